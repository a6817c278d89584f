package transport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTP_Send(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s, want PUT", r.Method)
		}
		if got := r.Header.Get("X-Probe"); got != "yes" {
			t.Errorf("X-Probe = %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"name":"switch"}` {
			t.Errorf("body = %q", body)
		}
		w.Header().Set("Location", "http://example/ers/config/networkdevice/abc")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("created"))
	}))
	defer server.Close()

	header := http.Header{}
	header.Set("X-Probe", "yes")

	resp, err := New(DefaultConfig()).Send(context.Background(), http.MethodPut, server.URL, header, []byte(`{"name":"switch"}`))
	if err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("StatusCode = %d, want 201", resp.StatusCode)
	}
	if got := resp.Header.Get("Location"); got != "http://example/ers/config/networkdevice/abc" {
		t.Errorf("Location = %q", got)
	}
	if string(resp.Body) != "created" {
		t.Errorf("Body = %q", resp.Body)
	}
}

func TestHTTP_SendEmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 {
			t.Errorf("ContentLength = %d, want 0", r.ContentLength)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	resp, err := New(DefaultConfig()).Send(context.Background(), http.MethodDelete, server.URL, http.Header{}, nil)
	if err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("StatusCode = %d, want 204", resp.StatusCode)
	}
}

func TestHTTP_ErrorStatusIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer server.Close()

	resp, err := New(DefaultConfig()).Send(context.Background(), http.MethodGet, server.URL, http.Header{}, nil)
	if err != nil {
		t.Fatalf("Send() error: %v, HTTP statuses must not be transport errors", err)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d, want 500", resp.StatusCode)
	}
}

func TestHTTP_ConnectionFailure(t *testing.T) {
	// Reserved TEST-NET-1 address; nothing listens there.
	_, err := New(Config{Timeout: 200 * time.Millisecond}).Send(
		context.Background(), http.MethodGet, "http://192.0.2.1:9/x", http.Header{}, nil)
	if err == nil {
		t.Error("Send() should fail for an unreachable host")
	}
}

func TestHTTP_ContextCancellation(t *testing.T) {
	blocked := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-blocked
	}))
	defer server.Close()
	defer close(blocked)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := New(DefaultConfig()).Send(ctx, http.MethodGet, server.URL, http.Header{}, nil); err == nil {
		t.Error("Send() should fail when the context expires")
	}
}
