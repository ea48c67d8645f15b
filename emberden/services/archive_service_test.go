package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestArchiveKey(t *testing.T) {
	tests := []struct {
		name      string
		sourceURL string
		want      string
	}{
		{
			name:      "extension from source",
			sourceURL: "https://cdn.discordapp.com/attachments/1/2/cinder.jpg",
			want:      "art/2026/sub_abc123.jpg",
		},
		{
			name:      "query string stripped",
			sourceURL: "https://cdn.discordapp.com/attachments/1/2/cinder.png?ex=66&width=800",
			want:      "art/2026/sub_abc123.png",
		},
		{
			name:      "extensionless defaults to png",
			sourceURL: "https://example.com/artwork",
			want:      "art/2026/sub_abc123.png",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := archiveKey("art", "sub_abc123", tt.sourceURL, 2026)
			if got != tt.want {
				t.Errorf("archiveKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKeyFromArchiveURL(t *testing.T) {
	key, err := keyFromArchiveURL("https://emberden.nyc3.digitaloceanspaces.com/art/2026/sub_abc123.png")
	if err != nil {
		t.Fatalf("keyFromArchiveURL() error = %v", err)
	}
	if key != "art/2026/sub_abc123.png" {
		t.Errorf("keyFromArchiveURL() = %q, want %q", key, "art/2026/sub_abc123.png")
	}

	if _, err := keyFromArchiveURL("https://cdn.discordapp.com/attachments/1/2/cinder.png"); err == nil {
		t.Error("keyFromArchiveURL() expected error for a non-archive URL")
	}
}

func TestArchiveFromURL_FetchFailure(t *testing.T) {
	svc := NewArchiveService("key", "secret", "nyc3", "emberden", "art")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	if _, err := svc.ArchiveFromURL(context.Background(), "sub_1", srv.URL+"/gone.png"); err == nil {
		t.Error("ArchiveFromURL() expected error when the source is gone")
	}

	if _, err := svc.ArchiveFromURL(context.Background(), "sub_1", "://not-a-url"); err == nil {
		t.Error("ArchiveFromURL() expected error for a malformed URL")
	}
}
