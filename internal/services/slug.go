package services

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/radz2291/RZ-Property/internal/utils"
)

const maxSlugSuffix = 1000

var (
	nonSlugChars   = regexp.MustCompile(`[^a-z0-9]+`)
	accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// GenerateSlug derives a URL-safe slug from a title: accents are folded,
// every run of other characters becomes a single hyphen.
func GenerateSlug(title string) string {
	folded, _, err := transform.String(accentStripper, title)
	if err != nil {
		folded = title
	}
	slug := nonSlugChars.ReplaceAllString(strings.ToLower(folded), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return "property"
	}
	return slug
}

type slugChecker interface {
	SlugExists(ctx context.Context, slug string, excludeID utils.SixID) (bool, error)
}

// uniqueSlug returns base, or base-1, base-2... whichever is free first.
func uniqueSlug(ctx context.Context, repo slugChecker, base string, excludeID utils.SixID, start int) (string, error) {
	for n := start; n <= maxSlugSuffix; n++ {
		candidate := base
		if n > 0 {
			candidate = base + "-" + strconv.Itoa(n)
		}
		taken, err := repo.SlugExists(ctx, candidate, excludeID)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free slug for %q after %d attempts", base, maxSlugSuffix)
}

// slugSuffix returns the numeric suffix of slug relative to base, or 0.
func slugSuffix(slug, base string) int {
	if !strings.HasPrefix(slug, base+"-") {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimPrefix(slug, base+"-"))
	if err != nil {
		return 0
	}
	return n
}
