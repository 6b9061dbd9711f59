package localbackup

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dooraytools/dooray-dump/dooray"
)

// fakeFetcher stands in for the download collaborator.  It "downloads" by
// writing a small file into its staging dir, unless told that a file id is
// missing (miss: "", nil) or broken (error).
type fakeFetcher struct {
	t       *testing.T
	staging string

	missing map[string]bool
	broken  map[string]bool

	calls []string
}

func newFakeFetcher(t *testing.T) *fakeFetcher {
	return &fakeFetcher{
		t:       t,
		staging: t.TempDir(),
		missing: map[string]bool{},
		broken:  map[string]bool{},
	}
}

func (f *fakeFetcher) Fetch(ctx context.Context, fileID string, targetName string, inline bool) (string, error) {
	f.calls = append(f.calls, fileID)
	if f.broken[fileID] {
		return "", fmt.Errorf("session lost")
	}
	if f.missing[fileID] {
		return "", nil
	}

	staged := filepath.Join(f.staging, targetName)
	if err := os.WriteFile(staged, []byte("file "+fileID), 0644); err != nil {
		f.t.Fatalf("fakeFetcher: %v", err)
	}
	return staged, nil
}

// fakeAPI serves a page tree from maps.  children is keyed by parent page id,
// "" meaning top level.
type fakeAPI struct {
	children map[string][]dooray.Page
	content  map[string]*dooray.PageContent
	listErr  map[string]error

	listCalls []string
}

func (a *fakeAPI) ListPages(ctx context.Context, wikiID string, parentPageID string) ([]dooray.Page, error) {
	a.listCalls = append(a.listCalls, parentPageID)
	if err := a.listErr[parentPageID]; err != nil {
		return nil, err
	}
	return a.children[parentPageID], nil
}

func (a *fakeAPI) GetPageContent(ctx context.Context, wikiID string, pageID string) (*dooray.PageContent, error) {
	content, ok := a.content[pageID]
	if !ok {
		return nil, fmt.Errorf("fakeAPI: no content for page %s", pageID)
	}
	return content, nil
}

func markdownContent(body string) *dooray.PageContent {
	return &dooray.PageContent{
		Body:      dooray.Body{MimeType: "text/x-markdown", Content: body},
		CreatedAt: "2024-01-02T15:04:05+09:00",
	}
}

// fixedClock pins the name-disambiguation timestamps; each call ticks one
// microsecond so repeated names stay distinct, like the real clock.
func fixedClock() func() time.Time {
	at := time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)
	return func() time.Time {
		at = at.Add(time.Microsecond)
		return at
	}
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func newTestBackup(t *testing.T, api *fakeAPI, fetcher *fakeFetcher, limit int) *WikiBackup {
	return &WikiBackup{
		API:         api,
		Fetcher:     fetcher,
		Logger:      quietLogger(),
		StorePath:   t.TempDir(),
		ProjectCode: "PROJ",
		WikiID:      "9001",
		Domain:      "https://example.dooray.com",
		PageLimit:   limit,
		Now:         fixedClock(),
	}
}
