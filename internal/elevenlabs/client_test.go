package elevenlabs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewClientValidation(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		expectError bool
	}{
		{
			name:   "valid config",
			config: Config{AgentID: "agent_123", APIKey: "key"},
		},
		{
			name:        "missing agent id",
			config:      Config{APIKey: "key"},
			expectError: true,
		},
		{
			name:        "missing api key",
			config:      Config{AgentID: "agent_123"},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.config)

			if tt.expectError && err == nil {
				t.Errorf("Expected error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestSignedURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != signedURLPath {
			t.Errorf("Unexpected path %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("agent_id"); got != "agent_123" {
			t.Errorf("Expected agent_id agent_123, got %q", got)
		}
		if got := r.Header.Get("xi-api-key"); got != "test-key" {
			t.Errorf("Expected xi-api-key header, got %q", got)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"signed_url":"wss://example.test/conversation?token=signed"}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{
		AgentID: "agent_123",
		APIKey:  "test-key",
		BaseURL: server.URL,
		Timeout: 2 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	url, err := client.SignedURL(context.Background())
	if err != nil {
		t.Fatalf("SignedURL failed: %v", err)
	}

	if url != "wss://example.test/conversation?token=signed" {
		t.Errorf("Unexpected signed URL %q", url)
	}
}

func TestSignedURLErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"invalid api key"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	client, err := NewClient(Config{AgentID: "agent_123", APIKey: "bad", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	_, err = client.SignedURL(context.Background())
	if err == nil {
		t.Fatalf("Expected error for 401 response")
	}
	if !strings.Contains(err.Error(), "status 401") {
		t.Errorf("Expected status in error, got %q", err.Error())
	}
}

func TestSignedURLMissingField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{AgentID: "agent_123", APIKey: "key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	if _, err := client.SignedURL(context.Background()); err == nil {
		t.Fatalf("Expected error for response without signed_url")
	}
}
