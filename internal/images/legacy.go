package images

import (
	"time"

	"github.com/radz2291/RZ-Property/internal/models"
)

// FromLegacy converts the old {featuredImage, images[]} shape. The featured
// image becomes order 1 and featured; the rest follow in their original order
// with duplicates of the featured URL dropped. Without a featured image the
// first entry is promoted.
func FromLegacy(featuredImage *string, urls []string, uploadedAt time.Time) []models.PropertyImage {
	out := []models.PropertyImage{}
	seen := map[string]bool{}

	if featuredImage != nil && *featuredImage != "" {
		out = append(out, models.PropertyImage{URL: *featuredImage, IsFeatured: true, UploadedAt: uploadedAt})
		seen[*featuredImage] = true
	}
	for _, u := range urls {
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, models.PropertyImage{URL: u, UploadedAt: uploadedAt})
	}

	reindex(out)
	promoteIfNone(out)
	return out
}

// ToLegacy derives the legacy fields: the featured entry's URL (or nil) and
// every URL in display order.
func ToLegacy(list []models.PropertyImage) (*string, []string) {
	ordered := sorted(list)
	urls := make([]string, 0, len(ordered))
	for _, img := range ordered {
		urls = append(urls, img.URL)
	}
	if img, ok := Featured(ordered); ok {
		u := img.URL
		return &u, urls
	}
	return nil, urls
}

// MigrateLegacy fills PropertyImages from the legacy fields when the property
// predates the gallery model. It reports whether anything changed.
func MigrateLegacy(p *models.Property) bool {
	if len(p.PropertyImages) > 0 {
		return false
	}
	if (p.FeaturedImage == nil || *p.FeaturedImage == "") && len(p.Images) == 0 {
		return false
	}
	uploadedAt := p.CreatedAt
	if uploadedAt.IsZero() {
		uploadedAt = time.Now().UTC()
	}
	p.PropertyImages = FromLegacy(p.FeaturedImage, p.Images, uploadedAt)
	return true
}

// ApplyLegacy writes the derived legacy fields onto p.
func ApplyLegacy(p *models.Property) {
	p.FeaturedImage, p.Images = ToLegacy(p.PropertyImages)
}

// ReferencedURLs lists every durable URL a property points at, including
// legacy fields, without duplicates.
func ReferencedURLs(p *models.Property) []string {
	var out []string
	seen := map[string]bool{}
	add := func(u string) {
		if u == "" || seen[u] || IsTransient(u) {
			return
		}
		seen[u] = true
		out = append(out, u)
	}
	for _, img := range sorted(p.PropertyImages) {
		add(img.URL)
	}
	if p.FeaturedImage != nil {
		add(*p.FeaturedImage)
	}
	for _, u := range p.Images {
		add(u)
	}
	return out
}

// RemovedURLs returns the URLs referenced by previous that final no longer uses.
func RemovedURLs(previous *models.Property, final []models.PropertyImage) []string {
	keep := map[string]bool{}
	for _, img := range final {
		keep[img.URL] = true
	}
	var out []string
	for _, u := range ReferencedURLs(previous) {
		if !keep[u] {
			out = append(out, u)
		}
	}
	return out
}
