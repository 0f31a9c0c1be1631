package api

import (
	"strings"
	"testing"
)

func TestNewCompareID(t *testing.T) {
	id := NewCompareID()
	if !strings.HasPrefix(id, "cmp_") {
		t.Errorf("id %q missing cmp_ prefix", id)
	}
	if len(id) != len("cmp_")+24 {
		t.Errorf("id %q has wrong length %d", id, len(id))
	}
	if !ValidateCompareID(id) {
		t.Errorf("generated id %q fails validation", id)
	}
}

func TestNewConfigID(t *testing.T) {
	id := NewConfigID()
	if !ValidateConfigID(id) {
		t.Errorf("generated id %q fails validation", id)
	}
}

func TestNewUserID(t *testing.T) {
	id := NewUserID()
	if !strings.HasPrefix(id, "usr_") {
		t.Errorf("id %q missing usr_ prefix", id)
	}
}

func TestIDUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewCompareID()
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestValidateCompareID(t *testing.T) {
	tests := []struct {
		id    string
		valid bool
	}{
		{"cmp_abcdefghij0123456789ABCD", true},
		{"cmp_short", false},
		{"cfg_abcdefghij0123456789ABCD", false},
		{"", false},
		{"cmp_abcdefghij0123456789ABC!", false},
	}

	for _, tt := range tests {
		if got := ValidateCompareID(tt.id); got != tt.valid {
			t.Errorf("ValidateCompareID(%q) = %v, want %v", tt.id, got, tt.valid)
		}
	}
}
