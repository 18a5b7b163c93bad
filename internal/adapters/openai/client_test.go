package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_Complete(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    string
		wantErr bool
	}{
		{
			name:   "Success",
			status: http.StatusOK,
			body:   `{"choices":[{"message":{"role":"assistant","content":"Here: {\"mood\":\"calm\"}"}}]}`,
			want:   `Here: {"mood":"calm"}`,
		},
		{
			name:    "Unauthorized",
			status:  http.StatusUnauthorized,
			body:    `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`,
			wantErr: true,
		},
		{
			name:    "No choices",
			status:  http.StatusOK,
			body:    `{"choices":[]}`,
			wantErr: true,
		},
		{
			name:    "Garbage body",
			status:  http.StatusBadGateway,
			body:    `<html>bad gateway</html>`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			var got completionRequest
			var auth string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/chat/completions" {
					w.WriteHeader(http.StatusNotFound)
					return
				}
				auth = r.Header.Get("Authorization")
				_ = json.NewDecoder(r.Body).Decode(&got)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient("sk-test", "", srv.URL)
			out, err := client.Complete(context.Background(), "prompt")
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected err=%v, got %v", tt.wantErr, err)
			}
			if tt.wantErr {
				return
			}
			if auth != "Bearer sk-test" {
				t.Fatalf("authorization header: got %q", auth)
			}
			if got.Model != defaultModel || got.MaxTokens != maxTokens {
				t.Fatalf("unexpected request: %+v", got)
			}
			if len(got.Messages) != 1 || got.Messages[0].Content != "prompt" {
				t.Fatalf("unexpected messages: %+v", got.Messages)
			}
			if out != tt.want {
				t.Fatalf("got %q, want %q", out, tt.want)
			}
		})
	}
}

func TestClient_CompleteWithoutKey(t *testing.T) {
	_, err := NewClient("", "", "").Complete(context.Background(), "prompt")
	if !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("expected ErrNoAPIKey, got %v", err)
	}
}
