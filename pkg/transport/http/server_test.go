package http

import (
	"context"
	"encoding/json"
	"net"
	gohttp "net/http"
	"strings"
	"testing"
	"time"

	"github.com/prompt-arena/arena/pkg/api"
)

func TestServerStartsAndAcceptsRequests(t *testing.T) {
	a, _ := newTestAdapter(t, echoComparer)
	srv := NewServer(a.Handler(), DefaultServerConfig())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen error: %v", err)
	}
	addr := ln.Addr().String()

	go srv.ServeOn(ln)
	time.Sleep(50 * time.Millisecond)

	resp, err := gohttp.Post("http://"+addr+"/v1/compare", "application/json",
		strings.NewReader(`{"prompt":"hello"}`))
	if err != nil {
		t.Fatalf("POST error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != gohttp.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	var got api.CompareResponse
	json.NewDecoder(resp.Body).Decode(&got)
	if got.ID != "req_test" {
		t.Errorf("response ID = %q", got.ID)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(ctx)
}

func TestServerGracefulShutdown(t *testing.T) {
	slow := gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		select {
		case <-time.After(200 * time.Millisecond):
			w.WriteHeader(gohttp.StatusOK)
		case <-r.Context().Done():
		}
	})

	cfg := DefaultServerConfig()
	cfg.ShutdownTimeout = 5 * time.Second
	srv := NewServer(slow, cfg)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen error: %v", err)
	}
	addr := ln.Addr().String()

	go srv.ServeOn(ln)
	time.Sleep(50 * time.Millisecond)

	responseCh := make(chan int, 1)
	go func() {
		resp, err := gohttp.Get("http://" + addr + "/")
		if err != nil {
			responseCh <- 0
			return
		}
		defer resp.Body.Close()
		responseCh <- resp.StatusCode
	}()

	// Shut down mid-request; the in-flight request must still complete.
	time.Sleep(50 * time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(ctx)

	if status := <-responseCh; status != gohttp.StatusOK {
		t.Errorf("slow request status = %d, want 200", status)
	}
}

func TestDefaultServerConfig(t *testing.T) {
	cfg := DefaultServerConfig()
	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.ReadTimeout != 30*time.Second || cfg.WriteTimeout != 120*time.Second {
		t.Errorf("timeouts = %v, %v", cfg.ReadTimeout, cfg.WriteTimeout)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("ShutdownTimeout = %v", cfg.ShutdownTimeout)
	}
}
