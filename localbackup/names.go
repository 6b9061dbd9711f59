package localbackup

import (
	"fmt"
	"path"
	"strings"
	"time"
	"unicode"
)

// safeFileName keeps letters, digits, '-' and '_'; every other rune becomes
// '_'.  Mirrors the naming used for downloaded images and attachments.
func safeFileName(s string) string {
	return sanitize(s, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_'
	})
}

// safeDirName additionally allows spaces, matching the on-disk page folder
// naming.  The result never contains a path separator.
func safeDirName(s string) string {
	return sanitize(s, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_'
	})
}

func sanitize(s string, keep func(rune) bool) string {
	var b strings.Builder
	for _, r := range s {
		if keep(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// uniqueFileName derives a collision-safe local name from an original file
// name: the extension survives, the base is sanitized, and a
// microsecond-resolution timestamp suffix keeps repeated names apart within a
// run.
func uniqueFileName(original string, t time.Time) string {
	ext := path.Ext(original)
	base := strings.TrimSuffix(original, ext)
	return fmt.Sprintf("%s_%s_%06d%s",
		safeFileName(base),
		t.Format("20060102_150405"),
		t.Nanosecond()/1000,
		ext)
}
