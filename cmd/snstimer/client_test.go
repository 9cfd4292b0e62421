package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestAPIClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/limits/tiktok.com":
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_request","message":"limit out of range: 1441"}`))
		case "/api/v1/stats":
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	serverURL = srv.URL + "/"
	defer func() { serverURL = "" }()

	client, err := newAPIClient()
	if err != nil {
		t.Fatalf("newAPIClient() error = %v", err)
	}

	tests := []struct {
		name    string
		method  string
		path    string
		wantErr string
	}{
		{"server message", http.MethodPut, "/limits/tiktok.com", "limit out of range: 1441"},
		{"bare status", http.MethodGet, "/export", "502 Bad Gateway"},
		{"success", http.MethodDelete, "/stats", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := client.do(context.Background(), tt.method, tt.path, map[string]int{"minutes": 1441})
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("do() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("do() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestAttachmentName(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{`attachment; filename="snstimer-export-2024-01-15T093000.json"`, "snstimer-export-2024-01-15T093000.json"},
		{`attachment; filename="../../etc/passwd"`, "passwd"},
	}
	for _, tt := range tests {
		if got := attachmentName(tt.header); got != tt.want {
			t.Errorf("attachmentName(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}

	if got := attachmentName(""); !strings.HasPrefix(got, "snstimer-export-"+time.Now().Format("2006-01-02")) {
		t.Errorf("fallback name = %q", got)
	}
}

func TestValidKeysCoverDefaults(t *testing.T) {
	keys := getValidKeys()
	for _, key := range []string{"server.api_port", "tracker.tick_interval", "storage.redis.password", "sites"} {
		if !keys[key] {
			t.Errorf("%s missing from valid keys", key)
		}
	}
}
