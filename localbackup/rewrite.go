package localbackup

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// Inline wiki images appear in page bodies as markdown image syntax whose URL
// path is exactly /wikis/<digits>/files/<digits>.  Anything else, like an
// external image or a raw HTML img tag, passes through untouched.
var inlineImagePattern = regexp.MustCompile(`!\[(.*?)\]\(/wikis/(\d+)/files/(\d+)\)`)

// rewriteInlineImages downloads every wiki-hosted inline image referenced in
// body into destDir/images and repoints the markdown at the local copy.  A
// single failed image degrades to a readable marker; it never aborts the
// rewrite.
func (d *WikiBackup) rewriteInlineImages(ctx context.Context, body string, destDir string) (string, error) {
	imagesDir := filepath.Join(destDir, "images")
	if err := createDir(imagesDir); err != nil {
		return "", err
	}

	matches := inlineImagePattern.FindAllStringSubmatchIndex(body, -1)
	if len(matches) == 0 {
		return body, nil
	}

	var out strings.Builder
	last := 0
	for _, m := range matches {
		out.WriteString(body[last:m[0]])
		alt := body[m[2]:m[3]]
		containerID := body[m[4]:m[5]]
		fileID := body[m[6]:m[7]]
		out.WriteString(d.replaceInlineImage(ctx, alt, containerID, fileID, imagesDir))
		last = m[1]
	}
	out.WriteString(body[last:])

	return out.String(), nil
}

func (d *WikiBackup) replaceInlineImage(ctx context.Context, alt string, containerID string, fileID string, imagesDir string) string {
	name := strings.TrimSpace(alt)
	if name == "" {
		name = fmt.Sprintf("image_%s.png", fileID)
	}
	unique := uniqueFileName(name, d.clock())

	staged, err := d.Fetcher.Fetch(ctx, fileID, unique, true)
	if err != nil {
		d.logf("Inline image error for '%s' (wiki %s, file %s): %v", alt, containerID, fileID, err)
		return fmt.Sprintf("![%s] (processing error - Wiki ID: %s, File ID: %s)", alt, containerID, fileID)
	}
	if staged == "" {
		d.logf("Inline image download failed for '%s' (wiki %s, file %s)", alt, containerID, fileID)
		return fmt.Sprintf("![%s] (download failed - Wiki ID: %s, File ID: %s)", alt, containerID, fileID)
	}

	if err := moveFile(staged, filepath.Join(imagesDir, unique)); err != nil {
		d.logf("Inline image error for '%s' (wiki %s, file %s): %v", alt, containerID, fileID, err)
		return fmt.Sprintf("![%s] (processing error - Wiki ID: %s, File ID: %s)", alt, containerID, fileID)
	}

	return fmt.Sprintf("![%s](images/%s)", alt, unique)
}
