package inference

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestComplete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.Header.Get("Authorization") != "Bearer hf_test" {
			t.Errorf("expected bearer credential, got %q", r.Header.Get("Authorization"))
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("expected Content-Type application/json, got %q", r.Header.Get("Content-Type"))
		}

		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.Inputs != "hello" {
			t.Errorf("expected inputs hello, got %q", req.Inputs)
		}
		if req.Parameters.MaxNewTokens != 500 {
			t.Errorf("expected max_new_tokens 500, got %d", req.Parameters.MaxNewTokens)
		}
		if req.Parameters.Temperature != 0.7 {
			t.Errorf("expected temperature 0.7, got %f", req.Parameters.Temperature)
		}
		if req.Parameters.TopP != 0.9 {
			t.Errorf("expected top_p 0.9, got %f", req.Parameters.TopP)
		}
		if !req.Parameters.DoSample {
			t.Error("expected do_sample true")
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode([]map[string]string{
			{"generated_text": "hello [/INST] world"},
		})
	}))
	defer server.Close()

	c := NewClient("", time.Second)
	c.SetTestTransport(server.URL)

	result, err := c.Complete(context.Background(), "hello", "hf_test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "hello [/INST] world" {
		t.Errorf("expected raw generated text, got %q", result)
	}
}

func TestComplete_SingleObjectShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"generated_text": "single"})
	}))
	defer server.Close()

	c := NewClient(server.URL, time.Second)

	result, err := c.Complete(context.Background(), "p", "tok")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "single" {
		t.Errorf("expected 'single', got %q", result)
	}
}

func TestComplete_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, ErrUnauthorized},
		{"warming up", http.StatusServiceUnavailable, ErrServiceUnavailable},
		{"bad request", http.StatusBadRequest, ErrTransport},
		{"server error", http.StatusInternalServerError, ErrTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(map[string]string{"error": "nope"})
			}))
			defer server.Close()

			c := NewClient(server.URL, time.Second)
			_, err := c.Complete(context.Background(), "p", "tok")
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}

			var se *StatusError
			if !errors.As(err, &se) {
				t.Fatalf("expected *StatusError, got %T", err)
			}
			if se.StatusCode != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, se.StatusCode)
			}
		})
	}
}

func TestComplete_MalformedShapes(t *testing.T) {
	bodies := map[string]string{
		"empty list":     `[]`,
		"missing field":  `{"foo": "bar"}`,
		"not json":       `<html>oops</html>`,
		"number payload": `42`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(body))
			}))
			defer server.Close()

			c := NewClient(server.URL, time.Second)
			_, err := c.Complete(context.Background(), "p", "tok")
			if !errors.Is(err, ErrMalformedResponse) {
				t.Fatalf("expected ErrMalformedResponse, got %v", err)
			}
		})
	}
}

func TestComplete_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	c := NewClient(url, time.Second)
	_, err := c.Complete(context.Background(), "p", "tok")
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient("", 0)
	if c.url != DefaultURL {
		t.Errorf("expected default url, got %q", c.url)
	}
	if c.client.Timeout != 120*time.Second {
		t.Errorf("expected 120s timeout, got %s", c.client.Timeout)
	}
}
