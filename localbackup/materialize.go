package localbackup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dooraytools/dooray-dump/dooray"
)

// Metadata is the audit record written next to each page's content.md.  The
// attachment descriptors are stored raw, even for downloads that failed, so a
// manual retry has everything it needs.
type Metadata struct {
	ID           string              `json:"id"`
	Subject      string              `json:"subject"`
	MimeType     string              `json:"mimeType"`
	CreatedAt    string              `json:"createdAt"`
	ParentPageID *string             `json:"parentPageId"`
	Attachments  []dooray.Attachment `json:"attachments"`
}

// savePage produces the full on-disk artifact set for one page: content.md
// with rewritten media references, metadata.json, and the images/ and
// attachments/ folders the rewritten links point into.
func (d *WikiBackup) savePage(ctx context.Context, page dooray.Page, content *dooray.PageContent, pageDir string) error {
	body, err := d.markdownBody(content)
	if err != nil {
		return err
	}

	body = fmt.Sprintf("# %s\n\n%s", page.Subject, body)

	body, err = d.rewriteInlineImages(ctx, body, pageDir)
	if err != nil {
		return err
	}

	attachmentLinks, err := d.processAttachments(ctx, content.Files, pageDir)
	if err != nil {
		return err
	}
	if len(attachmentLinks) > 0 {
		body += "\n\n## Attachments\n" + strings.Join(attachmentLinks, "")
	}

	var parentID *string
	if page.ParentPageID != "" {
		parentID = &page.ParentPageID
	}

	meta := Metadata{
		ID:           page.ID,
		Subject:      page.Subject,
		MimeType:     content.Body.MimeType,
		CreatedAt:    content.CreatedAt,
		ParentPageID: parentID,
		Attachments:  content.Files,
	}

	if err := writeMetadata(filepath.Join(pageDir, "metadata.json"), meta); err != nil {
		return err
	}

	return writeFile(filepath.Join(pageDir, "content.md"), body)
}

// processAttachments downloads each attachment in the order the API listed
// them and returns the markdown link lines for the Attachments section.  One
// failed attachment degrades to a marker line and never stops the rest.
func (d *WikiBackup) processAttachments(ctx context.Context, files []dooray.Attachment, pageDir string) ([]string, error) {
	if len(files) == 0 {
		return nil, nil
	}

	attachmentsDir := filepath.Join(pageDir, "attachments")
	if err := createDir(attachmentsDir); err != nil {
		return nil, err
	}

	links := make([]string, 0, len(files))
	for _, file := range files {
		unique := uniqueFileName(file.Name, d.clock())

		staged, err := d.Fetcher.Fetch(ctx, file.ID, unique, false)
		if err != nil {
			d.logf("Attachment error for '%s' (file %s): %v", file.Name, file.ID, err)
			links = append(links, fmt.Sprintf("- %s (processing error) (size: %d bytes)\n", file.Name, file.Size))
			continue
		}
		if staged == "" {
			d.logf("Attachment download failed for '%s' (file %s)", file.Name, file.ID)
			links = append(links, fmt.Sprintf("- %s (download failed) (size: %d bytes)\n", file.Name, file.Size))
			continue
		}

		if err := moveFile(staged, filepath.Join(attachmentsDir, unique)); err != nil {
			d.logf("Attachment error for '%s' (file %s): %v", file.Name, file.ID, err)
			links = append(links, fmt.Sprintf("- %s (processing error) (size: %d bytes)\n", file.Name, file.Size))
			continue
		}

		d.logf("Attachment fetched: %s -> %s", file.Name, unique)
		links = append(links, fmt.Sprintf("- [%s](attachments/%s) (size: %d bytes)\n", file.Name, unique, file.Size))
	}

	return links, nil
}

// writeMetadata marshals without HTML escaping so subjects and file names
// survive round-trips readably.
func writeMetadata(abs string, meta Metadata) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return fmt.Errorf("localbackup: couldn't marshal metadata: %w", err)
	}

	return writeFile(abs, buf.String())
}
