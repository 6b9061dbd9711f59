package localbackup

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/dooraytools/dooray-dump/dooray"
)

// WikiAPI is the remote surface the traversal needs.  *dooray.API satisfies
// it; tests substitute fakes.  A failed call means transport or auth trouble
// and aborts the run.
type WikiAPI interface {
	ListPages(ctx context.Context, wikiID string, parentPageID string) ([]dooray.Page, error)
	GetPageContent(ctx context.Context, wikiID string, pageID string) (*dooray.PageContent, error)
}

// FileFetcher retrieves one remote file into local staging.  It returns the
// staged path, or "" when the file is missing or the download timed out; an
// error is reserved for losing the download session entirely.
type FileFetcher interface {
	Fetch(ctx context.Context, fileID string, targetName string, inline bool) (string, error)
}

// RootKey is the sibling-numbering key for top-level pages.
const RootKey = "root"

// WikiBackup snapshots one project wiki into a fresh timestamped directory
// under StorePath.  One instance per run; the traversal is strictly
// sequential, so the counters need no locking.
type WikiBackup struct {
	API     WikiAPI
	Fetcher FileFetcher
	Logger  *log.Logger

	StorePath   string
	ProjectCode string
	WikiID      string
	Domain      string // tenant web domain, for resolving links in HTML bodies
	PageLimit   int    // -1 means unlimited

	// OnPage, if set, is called after each page has been materialized.
	OnPage func(subject string)

	// Now is the clock used for run-directory and file-name disambiguation.
	// Tests pin it; nil means time.Now.
	Now func() time.Time

	counter  *PageCounter
	backedUp int
}

// Run performs one full backup and returns the run directory plus the number
// of pages actually materialized.
func (d *WikiBackup) Run(ctx context.Context) (string, int, error) {
	d.counter = NewPageCounter(d.PageLimit)
	d.backedUp = 0

	runDir := filepath.Join(d.StorePath, d.clock().Format("20060102_150405"))
	if err := createDir(runDir); err != nil {
		return "", 0, err
	}

	roots, err := d.API.ListPages(ctx, d.WikiID, "")
	if err != nil {
		return "", 0, fmt.Errorf("localbackup: couldn't list top-level pages: %w", err)
	}
	if len(roots) == 0 {
		return "", 0, fmt.Errorf("localbackup: no root page found in wiki %s", d.WikiID)
	}
	if len(roots) > 1 {
		d.logf("Wiki %s has %d top-level pages; only the first ('%s') will be backed up.",
			d.WikiID, len(roots), roots[0].Subject)
	}
	root := roots[0]

	// The root always counts against (and may exhaust) the quota, but is
	// materialized regardless of it.
	d.counter.TryAdvance()
	number := d.counter.NextSiblingNumber(RootKey)

	// The root directory is named after the project code, not the page title.
	d.logf("Backing up root page: %s", d.ProjectCode)
	rootDir, err := d.createNumberedDir(runDir, d.ProjectCode, number)
	if err != nil {
		return "", 0, err
	}

	rootContent, err := d.API.GetPageContent(ctx, d.WikiID, root.ID)
	if err != nil {
		return "", 0, fmt.Errorf("localbackup: couldn't fetch root page %s: %w", root.ID, err)
	}
	if err := d.savePage(ctx, root, rootContent, rootDir); err != nil {
		return "", 0, err
	}
	d.pageDone(root.Subject)

	if err := d.backupChildren(ctx, root.ID, rootDir); err != nil {
		return "", 0, err
	}

	d.logf("Backup completed in directory: %s", runDir)
	d.logf("Total pages backed up: %d", d.backedUp)

	return runDir, d.backedUp, nil
}

// frame is one level of the depth-first walk: a fetched sibling list and a
// cursor into it.  An explicit stack instead of recursion, so very deep trees
// can't exhaust the call stack.
type frame struct {
	pages     []dooray.Page
	next      int
	parentID  string
	parentDir string
}

func (d *WikiBackup) backupChildren(ctx context.Context, rootID string, rootDir string) error {
	var stack []*frame

	push := func(parentID, parentDir string) error {
		// Once the quota is spent there's no point fetching more page lists.
		if d.counter.Exhausted() {
			return nil
		}
		pages, err := d.API.ListPages(ctx, d.WikiID, parentID)
		if err != nil {
			return fmt.Errorf("localbackup: couldn't list children of page %s: %w", parentID, err)
		}
		stack = append(stack, &frame{pages: pages, parentID: parentID, parentDir: parentDir})
		return nil
	}

	if err := push(rootID, rootDir); err != nil {
		return err
	}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		if f.next >= len(f.pages) {
			stack = stack[:len(stack)-1]
			continue
		}
		page := f.pages[f.next]
		f.next++

		if !d.counter.TryAdvance() {
			// Quota reached mid-sibling-list: the rest of this level and all
			// deeper subtrees are skipped.
			stack = stack[:len(stack)-1]
			continue
		}

		number := d.counter.NextSiblingNumber(f.parentID)
		d.logf("Backing up page %d: %02d %s", d.counter.Count(), number, page.Subject)

		pageDir, err := d.createNumberedDir(f.parentDir, page.Subject, number)
		if err != nil {
			return err
		}

		content, err := d.API.GetPageContent(ctx, d.WikiID, page.ID)
		if err != nil {
			return fmt.Errorf("localbackup: couldn't fetch page %s ('%s'): %w", page.ID, page.Subject, err)
		}
		if err := d.savePage(ctx, page, content, pageDir); err != nil {
			return fmt.Errorf("localbackup: couldn't save page %s ('%s'): %w", page.ID, page.Subject, err)
		}
		d.pageDone(page.Subject)

		// Depth-first: this page's children go on top of the stack.
		if err := push(page.ID, pageDir); err != nil {
			return err
		}
	}

	return nil
}

func (d *WikiBackup) createNumberedDir(basePath string, subject string, number int) (string, error) {
	dir := filepath.Join(basePath, fmt.Sprintf("%02d %s", number, safeDirName(subject)))
	if err := createDir(dir); err != nil {
		return "", err
	}
	return dir, nil
}

func (d *WikiBackup) pageDone(subject string) {
	d.backedUp++
	if d.OnPage != nil {
		d.OnPage(subject)
	}
}

func (d *WikiBackup) logf(format string, args ...any) {
	if d.Logger != nil {
		d.Logger.Printf(format+"\n", args...)
		return
	}
	log.Printf(format+"\n", args...)
}

func (d *WikiBackup) clock() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}
