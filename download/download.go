// Package download fetches wiki files over direct authenticated HTTP.  The
// tool this replaces drove a shared interactive browser session and watched
// the OS downloads folder for the newest file to appear; talking straight to
// the file endpoints removes that polling heuristic and its races entirely.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// DefaultTimeout bounds a single file download.
const DefaultTimeout = 10 * time.Second

// Fetcher downloads one wiki's files into a staging directory.  It implements
// localbackup.FileFetcher: a miss (404, timeout) returns "" with a nil error;
// only auth loss and filesystem trouble are reported as errors.
type Fetcher struct {
	// Domain is the tenant web domain, e.g. https://myorg.dooray.com
	Domain *url.URL

	// WikiID scopes inline-image URLs; attachments are wiki-independent.
	WikiID string

	// StagingDir receives downloads; the materializer moves them into place.
	StagingDir string

	Client  *http.Client
	Logger  *log.Logger
	Timeout time.Duration

	token string
}

// NewFetcher validates the tenant domain and prepares the staging directory.
func NewFetcher(domain string, wikiID string, token string, stagingDir string) (*Fetcher, error) {
	if domain == "" {
		return nil, fmt.Errorf("download: configure your Dooray web domain with --domain")
	}
	if token == "" {
		return nil, fmt.Errorf("download: auth token is empty, please check auth-token-cmd")
	}

	u, err := url.ParseRequestURI(domain)
	if err != nil {
		return nil, fmt.Errorf("download: couldn't parse domain URL: %w", err)
	}

	if err := os.MkdirAll(stagingDir, 0750); err != nil {
		return nil, fmt.Errorf("download: couldn't create staging directory %s: %w", stagingDir, err)
	}

	return &Fetcher{
		Domain:     u,
		WikiID:     wikiID,
		StagingDir: stagingDir,
		Client:     &http.Client{},
		Timeout:    DefaultTimeout,
		token:      token,
	}, nil
}

// Fetch downloads one file into the staging directory under targetName and
// returns the staged path.  Inline images and attachments live behind
// different URL shapes.
func (f *Fetcher) Fetch(ctx context.Context, fileID string, targetName string, inline bool) (string, error) {
	timeout := f.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	fileURL := f.fileURL(fileID, inline)

	req, err := http.NewRequestWithContext(ctx, "GET", fileURL, nil)
	if err != nil {
		return "", fmt.Errorf("download: couldn't instantiate http request: %w", err)
	}
	req.Header.Set("Authorization", "dooray-api "+f.token)

	response, err := f.Client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			f.logf("Download timed out: %s", targetName)
			return "", nil
		}
		return "", fmt.Errorf("download: couldn't perform http request: %w", err)
	}
	defer response.Body.Close()

	switch {
	case response.StatusCode == http.StatusOK:
		// fall through to the body copy
	case response.StatusCode == http.StatusUnauthorized || response.StatusCode == http.StatusForbidden:
		return "", fmt.Errorf("download: authentication failed for file %s", fileID)
	default:
		// Missing or misbehaving file; degrade to a miss and keep walking.
		f.logf("Download failed (%s): %s", response.Status, targetName)
		return "", nil
	}

	staged := filepath.Join(f.StagingDir, targetName)
	out, err := os.Create(staged)
	if err != nil {
		return "", fmt.Errorf("download: couldn't create staged file %s: %w", staged, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, response.Body); err != nil {
		// A partial file is worse than none.
		os.Remove(staged)
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			f.logf("Download timed out: %s", targetName)
			return "", nil
		}
		return "", fmt.Errorf("download: couldn't write staged file %s: %w", staged, err)
	}

	f.logf("Downloaded: %s", targetName)
	return staged, nil
}

func (f *Fetcher) fileURL(fileID string, inline bool) string {
	if inline {
		return fmt.Sprintf("%s/wikis/%s/files/%s?disposition=attachment", f.Domain, f.WikiID, fileID)
	}
	return fmt.Sprintf("%s/page-files/%s?disposition=attachment", f.Domain, fileID)
}

func (f *Fetcher) logf(format string, args ...any) {
	if f.Logger != nil {
		f.Logger.Printf(format+"\n", args...)
		return
	}
	log.Printf(format+"\n", args...)
}
