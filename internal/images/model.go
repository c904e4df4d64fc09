// Package images implements the property gallery: pure, copy-on-write
// operations over []models.PropertyImage, the legacy shape migration, and the
// lifecycle manager that uploads and deletes blobs around a save.
package images

import (
	"errors"
	"fmt"
	"sort"

	"github.com/radz2291/RZ-Property/internal/models"
)

// ErrIndexOutOfRange is returned when an operation targets a missing entry.
var ErrIndexOutOfRange = errors.New("image index out of range")

// sorted returns a copy ordered by Order, keeping position for equal values.
func sorted(list []models.PropertyImage) []models.PropertyImage {
	out := make([]models.PropertyImage, len(list))
	copy(out, list)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// reindex assigns Order 1..N by position, in place.
func reindex(list []models.PropertyImage) {
	for i := range list {
		list[i].Order = i + 1
	}
}

func featuredIndex(list []models.PropertyImage) int {
	for i := range list {
		if list[i].IsFeatured {
			return i
		}
	}
	return -1
}

func firstVisible(list []models.PropertyImage) int {
	for i := range list {
		if !list[i].IsHidden {
			return i
		}
	}
	return -1
}

// keepSingleFeatured clears every featured flag after the first one, in place.
func keepSingleFeatured(list []models.PropertyImage) {
	seen := false
	for i := range list {
		if list[i].IsFeatured {
			if seen {
				list[i].IsFeatured = false
			}
			seen = true
		}
	}
}

// promoteIfNone marks the first visible entry featured when nothing is
// featured, in place. A featured hidden entry is left alone.
func promoteIfNone(list []models.PropertyImage) {
	if featuredIndex(list) >= 0 {
		return
	}
	if i := firstVisible(list); i >= 0 {
		list[i].IsFeatured = true
	}
}

// Normalize returns a copy sorted by order, reindexed 1..N, with at most one
// featured entry and a visible entry promoted when none is featured.
func Normalize(list []models.PropertyImage) []models.PropertyImage {
	out := sorted(list)
	reindex(out)
	keepSingleFeatured(out)
	promoteIfNone(out)
	return out
}

// AddImages appends newEntries after the existing ones. When the gallery had
// no featured entry the first visible one becomes featured; incoming featured
// flags never displace an existing featured entry.
func AddImages(existing, newEntries []models.PropertyImage) []models.PropertyImage {
	out := sorted(existing)
	hadFeatured := featuredIndex(out) >= 0

	maxOrder := 0
	for _, img := range out {
		if img.Order > maxOrder {
			maxOrder = img.Order
		}
	}
	for i, img := range newEntries {
		img.Order = maxOrder + i + 1
		if hadFeatured {
			img.IsFeatured = false
		}
		out = append(out, img)
	}

	reindex(out)
	keepSingleFeatured(out)
	promoteIfNone(out)
	return out
}

// RemoveImage drops the entry at index (position in display order). If it
// was featured, the first remaining visible entry is promoted.
func RemoveImage(existing []models.PropertyImage, index int) ([]models.PropertyImage, error) {
	list := sorted(existing)
	if index < 0 || index >= len(list) {
		return list, fmt.Errorf("remove %d of %d: %w", index, len(list), ErrIndexOutOfRange)
	}

	out := make([]models.PropertyImage, 0, len(list)-1)
	out = append(out, list[:index]...)
	out = append(out, list[index+1:]...)

	reindex(out)
	promoteIfNone(out)
	return out, nil
}

// SetFeatured makes the entry at index the only featured one. Hidden entries
// may be featured; visibility and featured status are independent.
func SetFeatured(existing []models.PropertyImage, index int) ([]models.PropertyImage, error) {
	out := sorted(existing)
	if index < 0 || index >= len(out) {
		return out, fmt.Errorf("feature %d of %d: %w", index, len(out), ErrIndexOutOfRange)
	}
	for i := range out {
		out[i].IsFeatured = i == index
	}
	reindex(out)
	return out, nil
}

// ToggleHidden flips the hidden flag of the entry at index. Featured status is
// not reassigned, so a featured entry can become featured-but-hidden.
func ToggleHidden(existing []models.PropertyImage, index int) ([]models.PropertyImage, error) {
	out := sorted(existing)
	if index < 0 || index >= len(out) {
		return out, fmt.Errorf("toggle %d of %d: %w", index, len(out), ErrIndexOutOfRange)
	}
	out[index].IsHidden = !out[index].IsHidden
	reindex(out)
	return out, nil
}

// Reorder moves the entry at from to position to and reindexes.
func Reorder(existing []models.PropertyImage, from, to int) ([]models.PropertyImage, error) {
	list := sorted(existing)
	if from < 0 || from >= len(list) || to < 0 || to >= len(list) {
		return list, fmt.Errorf("move %d to %d of %d: %w", from, to, len(list), ErrIndexOutOfRange)
	}

	moved := list[from]
	out := make([]models.PropertyImage, 0, len(list))
	out = append(out, list[:from]...)
	out = append(out, list[from+1:]...)
	out = append(out[:to], append([]models.PropertyImage{moved}, out[to:]...)...)

	reindex(out)
	return out, nil
}

// Featured returns the featured entry, if any (hidden or not).
func Featured(list []models.PropertyImage) (models.PropertyImage, bool) {
	if i := featuredIndex(list); i >= 0 {
		return list[i], true
	}
	return models.PropertyImage{}, false
}

// Visible returns the non-hidden entries in display order.
func Visible(list []models.PropertyImage) []models.PropertyImage {
	out := []models.PropertyImage{}
	for _, img := range sorted(list) {
		if !img.IsHidden {
			out = append(out, img)
		}
	}
	return out
}

// CoverURL picks the card image for a property: the featured visible image,
// else the first visible one, else the legacy featured image.
func CoverURL(p *models.Property) string {
	list := sorted(p.PropertyImages)
	if i := featuredIndex(list); i >= 0 && !list[i].IsHidden {
		return list[i].URL
	}
	if i := firstVisible(list); i >= 0 {
		return list[i].URL
	}
	if len(p.PropertyImages) == 0 && p.FeaturedImage != nil {
		return *p.FeaturedImage
	}
	return ""
}

// CheckInvariants reports the first broken gallery invariant: orders must be
// exactly 1..N and at most one entry may be featured.
func CheckInvariants(list []models.PropertyImage) error {
	featured := 0
	for i, img := range list {
		if img.Order != i+1 {
			return fmt.Errorf("entry %d has order %d, want %d", i, img.Order, i+1)
		}
		if img.IsFeatured {
			featured++
		}
	}
	if featured > 1 {
		return fmt.Errorf("%d featured entries, want at most 1", featured)
	}
	return nil
}
