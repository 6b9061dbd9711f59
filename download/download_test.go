package download

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestFetcher(t *testing.T, handler http.HandlerFunc) *Fetcher {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	f, err := NewFetcher(server.URL, "9001", "s3cret", t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	f.Logger = log.New(io.Discard, "", 0)
	return f
}

func TestFetchInlineImage(t *testing.T) {
	var gotPath, gotQuery, gotAuth string
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		io.WriteString(w, "png bytes")
	})

	staged, err := f.Fetch(context.Background(), "55", "diagram.png", true)
	if err != nil {
		t.Fatal(err)
	}

	if gotPath != "/wikis/9001/files/55" {
		t.Errorf("path = %q", gotPath)
	}
	if gotQuery != "disposition=attachment" {
		t.Errorf("query = %q", gotQuery)
	}
	if gotAuth != "dooray-api s3cret" {
		t.Errorf("Authorization header = %q", gotAuth)
	}

	raw, err := os.ReadFile(staged)
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != "png bytes" {
		t.Errorf("staged content = %q", raw)
	}
	if filepath.Base(staged) != "diagram.png" {
		t.Errorf("staged name = %q", staged)
	}
}

func TestFetchAttachmentURL(t *testing.T) {
	var gotPath string
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		io.WriteString(w, "pdf bytes")
	})

	if _, err := f.Fetch(context.Background(), "77", "doc.pdf", false); err != nil {
		t.Fatal(err)
	}
	if gotPath != "/page-files/77" {
		t.Errorf("attachment path = %q", gotPath)
	}
}

func TestFetchMissingFileIsAMiss(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	staged, err := f.Fetch(context.Background(), "55", "gone.png", true)
	if err != nil {
		t.Fatalf("a 404 must degrade to a miss, got error: %v", err)
	}
	if staged != "" {
		t.Errorf("staged = %q, want empty", staged)
	}
}

func TestFetchAuthFailureIsAnError(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		})

		_, err := f.Fetch(context.Background(), "55", "x.png", true)
		if err == nil {
			t.Fatalf("status %d must be an error, not a miss", status)
		}
		if !strings.Contains(err.Error(), "authentication failed") {
			t.Errorf("error %q doesn't mention authentication", err)
		}
	}
}

func TestNewFetcherValidation(t *testing.T) {
	if _, err := NewFetcher("", "9001", "tok", t.TempDir()); err == nil {
		t.Error("expected an error for an empty domain")
	}
	if _, err := NewFetcher("https://x.dooray.com", "9001", "", t.TempDir()); err == nil {
		t.Error("expected an error for an empty token")
	}
}

func TestNewFetcherCreatesStagingDir(t *testing.T) {
	staging := filepath.Join(t.TempDir(), "nested", "staging")
	if _, err := NewFetcher("https://x.dooray.com", "9001", "tok", staging); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(staging)
	if err != nil {
		t.Fatal(err)
	}
	if !info.IsDir() {
		t.Error("staging path should be a directory")
	}
}
