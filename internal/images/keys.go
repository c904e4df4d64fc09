package images

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Transient URL prefixes mark entries whose file has not been uploaded yet.
var transientPrefixes = []string{"blob:", "local:", "pending:"}

// IsTransient reports whether url is a local preview reference.
func IsTransient(url string) bool {
	for _, p := range transientPrefixes {
		if strings.HasPrefix(url, p) {
			return true
		}
	}
	return false
}

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// SanitizeFilename strips every character outside [A-Za-z0-9._-].
func SanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	clean := unsafeKeyChars.ReplaceAllString(name, "")
	clean = strings.TrimLeft(clean, ".")
	if clean == "" {
		return "image"
	}
	return clean
}

// ObjectKey builds a collision-resistant blob key,
// <unix-ms>-<8 hex>-<sanitized name>, so the file extension stays last.
func ObjectKey(now time.Time, filename string) string {
	return fmt.Sprintf("%d-%s-%s", now.UnixMilli(), uuid.NewString()[:8], SanitizeFilename(filename))
}
