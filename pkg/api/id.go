package api

import (
	"crypto/rand"
	"math/big"
	"regexp"
)

const (
	idLength = 24
	charset  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	compareIDPrefix = "cmp_"
	configIDPrefix  = "cfg_"
	userIDPrefix    = "usr_"
)

var (
	compareIDPattern = regexp.MustCompile(`^cmp_[a-zA-Z0-9]{24}$`)
	configIDPattern  = regexp.MustCompile(`^cfg_[a-zA-Z0-9]{24}$`)
)

// NewCompareID generates a comparison ID with the "cmp_" prefix followed
// by 24 cryptographically random alphanumeric characters.
func NewCompareID() string {
	return compareIDPrefix + randomAlphanumeric(idLength)
}

// NewConfigID generates a provider-config ID with the "cfg_" prefix.
func NewConfigID() string {
	return configIDPrefix + randomAlphanumeric(idLength)
}

// NewUserID generates a user ID with the "usr_" prefix.
func NewUserID() string {
	return userIDPrefix + randomAlphanumeric(idLength)
}

// ValidateCompareID checks whether the given string is a valid comparison ID.
func ValidateCompareID(id string) bool {
	return compareIDPattern.MatchString(id)
}

// ValidateConfigID checks whether the given string is a valid config ID.
func ValidateConfigID(id string) bool {
	return configIDPattern.MatchString(id)
}

func randomAlphanumeric(n int) string {
	max := big.NewInt(int64(len(charset)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic("crypto/rand failed: " + err.Error())
		}
		b[i] = charset[idx.Int64()]
	}
	return string(b)
}
