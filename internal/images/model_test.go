package images

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radz2291/RZ-Property/internal/models"
)

func gallery(urls ...string) []models.PropertyImage {
	return AddImages(nil, entries(urls...))
}

func entries(urls ...string) []models.PropertyImage {
	out := make([]models.PropertyImage, 0, len(urls))
	for _, u := range urls {
		out = append(out, models.PropertyImage{URL: u})
	}
	return out
}

func urlsOf(list []models.PropertyImage) []string {
	out := make([]string, 0, len(list))
	for _, img := range list {
		out = append(out, img.URL)
	}
	return out
}

func featuredCount(list []models.PropertyImage) int {
	n := 0
	for _, img := range list {
		if img.IsFeatured {
			n++
		}
	}
	return n
}

func TestAddImages(t *testing.T) {
	t.Run("first image becomes featured", func(t *testing.T) {
		list := AddImages(nil, entries("a", "b"))
		require.Len(t, list, 2)
		assert.True(t, list[0].IsFeatured)
		assert.False(t, list[1].IsFeatured)
		assert.Equal(t, 1, list[0].Order)
		assert.Equal(t, 2, list[1].Order)
	})

	t.Run("appends after existing and keeps featured", func(t *testing.T) {
		existing := gallery("a", "b")
		incoming := entries("c")
		incoming[0].IsFeatured = true

		list := AddImages(existing, incoming)
		assert.Equal(t, []string{"a", "b", "c"}, urlsOf(list))
		assert.Equal(t, 3, list[2].Order)
		assert.True(t, list[0].IsFeatured)
		assert.False(t, list[2].IsFeatured)
	})

	t.Run("promotes a visible entry when existing has no featured", func(t *testing.T) {
		existing := []models.PropertyImage{{URL: "a", IsHidden: true, Order: 1}}
		list := AddImages(existing, entries("b"))
		assert.False(t, list[0].IsFeatured)
		assert.True(t, list[1].IsFeatured)
	})

	t.Run("does not mutate input", func(t *testing.T) {
		existing := gallery("a")
		before := append([]models.PropertyImage(nil), existing...)
		_ = AddImages(existing, entries("b"))
		assert.Equal(t, before, existing)
	})
}

func TestRemoveImage(t *testing.T) {
	t.Run("promotes first visible when featured is removed", func(t *testing.T) {
		list := gallery("a", "b", "c")
		list[1].IsHidden = true

		out, err := RemoveImage(list, 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "c"}, urlsOf(out))
		assert.False(t, out[0].IsFeatured)
		assert.True(t, out[1].IsFeatured)
		assert.Equal(t, 1, out[0].Order)
		assert.Equal(t, 2, out[1].Order)
	})

	t.Run("keeps featured when another entry is removed", func(t *testing.T) {
		out, err := RemoveImage(gallery("a", "b", "c"), 1)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "c"}, urlsOf(out))
		assert.True(t, out[0].IsFeatured)
	})

	t.Run("out of range", func(t *testing.T) {
		_, err := RemoveImage(gallery("a"), 3)
		assert.ErrorIs(t, err, ErrIndexOutOfRange)
		_, err = RemoveImage(nil, 0)
		assert.ErrorIs(t, err, ErrIndexOutOfRange)
	})

	t.Run("remove to empty then add", func(t *testing.T) {
		out, err := RemoveImage(gallery("a"), 0)
		require.NoError(t, err)
		assert.Empty(t, out)

		out = AddImages(out, entries("b"))
		require.Len(t, out, 1)
		assert.True(t, out[0].IsFeatured)
		assert.Equal(t, 1, out[0].Order)
	})
}

func TestSetFeaturedIsSingleWinner(t *testing.T) {
	out, err := SetFeatured(gallery("a", "b", "c"), 2)
	require.NoError(t, err)
	assert.Equal(t, 1, featuredCount(out))
	assert.True(t, out[2].IsFeatured)
}

func TestFeaturedButHiddenIsAllowed(t *testing.T) {
	// Visibility and featured status are independent: hiding the featured
	// image leaves it featured, and a hidden image may be featured.
	out, err := ToggleHidden(gallery("a", "b"), 0)
	require.NoError(t, err)
	assert.True(t, out[0].IsHidden)
	assert.True(t, out[0].IsFeatured)
	assert.False(t, out[1].IsFeatured)

	out, err = SetFeatured(out, 0)
	require.NoError(t, err)
	assert.True(t, out[0].IsFeatured)

	// The cover falls back to the first visible image.
	p := &models.Property{PropertyImages: out}
	assert.Equal(t, "b", CoverURL(p))
}

func TestReorder(t *testing.T) {
	out, err := Reorder(gallery("a", "b", "c", "d"), 0, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "a", "d"}, urlsOf(out))
	require.NoError(t, CheckInvariants(out))
	assert.True(t, out[2].IsFeatured)

	out, err = Reorder(out, 3, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "b", "c", "a"}, urlsOf(out))

	_, err = Reorder(out, 0, 4)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestNormalizeSortsAndReindexes(t *testing.T) {
	in := []models.PropertyImage{
		{URL: "c", Order: 9},
		{URL: "a", Order: 2, IsFeatured: true},
		{URL: "b", Order: 5, IsFeatured: true},
	}
	out := Normalize(in)
	assert.Equal(t, []string{"a", "b", "c"}, urlsOf(out))
	assert.Equal(t, 1, featuredCount(out))
	assert.True(t, out[0].IsFeatured)
	require.NoError(t, CheckInvariants(out))
}

// Random operation sequences must keep orders contiguous, and every add or
// remove must leave exactly one visible featured entry when one is visible.
func TestRandomOperationSequencesKeepInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for run := 0; run < 200; run++ {
		var list []models.PropertyImage
		next := 0
		for step := 0; step < 30; step++ {
			op := rng.Intn(5)
			var err error
			switch {
			case op == 0 || len(list) == 0:
				n := 1 + rng.Intn(3)
				add := make([]models.PropertyImage, n)
				for i := range add {
					add[i] = models.PropertyImage{URL: fmt.Sprintf("u%d", next)}
					next++
				}
				list = AddImages(list, add)
				assertFeaturedAfterAddOrRemove(t, list)
			case op == 1:
				list, err = RemoveImage(list, rng.Intn(len(list)))
				require.NoError(t, err)
				assertFeaturedAfterAddOrRemove(t, list)
			case op == 2:
				list, err = SetFeatured(list, rng.Intn(len(list)))
				require.NoError(t, err)
			case op == 3:
				list, err = ToggleHidden(list, rng.Intn(len(list)))
				require.NoError(t, err)
			default:
				list, err = Reorder(list, rng.Intn(len(list)), rng.Intn(len(list)))
				require.NoError(t, err)
			}
			require.NoError(t, CheckInvariants(list), "run %d step %d", run, step)
		}
	}
}

func assertFeaturedAfterAddOrRemove(t *testing.T, list []models.PropertyImage) {
	t.Helper()
	if len(Visible(list)) == 0 {
		return
	}
	require.Equal(t, 1, featuredCount(list))
}

func TestLegacyRoundTrip(t *testing.T) {
	featured := "https://cdn/x/f.jpg"
	urls := []string{"https://cdn/x/1.jpg", featured, "https://cdn/x/2.jpg"}
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	list := FromLegacy(&featured, urls, at)
	require.Len(t, list, 3)
	assert.Equal(t, featured, list[0].URL)
	assert.True(t, list[0].IsFeatured)
	assert.Equal(t, 1, list[0].Order)
	for _, img := range list[1:] {
		assert.False(t, img.IsFeatured)
		assert.False(t, img.IsHidden)
		assert.Equal(t, at, img.UploadedAt)
	}

	gotFeatured, gotURLs := ToLegacy(list)
	require.NotNil(t, gotFeatured)
	assert.Equal(t, featured, *gotFeatured)
	assert.ElementsMatch(t, urls, gotURLs)
}

func TestFromLegacyWithoutFeatured(t *testing.T) {
	list := FromLegacy(nil, []string{"a", "b"}, time.Now())
	require.Len(t, list, 2)
	assert.True(t, list[0].IsFeatured)

	f, urls := ToLegacy(nil)
	assert.Nil(t, f)
	assert.Empty(t, urls)
}

func TestMigrateLegacy(t *testing.T) {
	featured := "f"
	p := &models.Property{FeaturedImage: &featured, Images: []string{"a"}}
	assert.True(t, MigrateLegacy(p))
	assert.Equal(t, []string{"f", "a"}, urlsOf(p.PropertyImages))
	assert.False(t, MigrateLegacy(p), "already migrated")

	empty := &models.Property{}
	assert.False(t, MigrateLegacy(empty))
}

func TestRemovedURLsIncludesLegacyFields(t *testing.T) {
	legacy := "https://cdn/legacy.jpg"
	prev := &models.Property{
		PropertyImages: gallery("https://cdn/a.jpg", "https://cdn/b.jpg"),
		FeaturedImage:  &legacy,
		Images:         []string{"https://cdn/a.jpg", "https://cdn/old.jpg"},
	}
	final := gallery("https://cdn/a.jpg")

	assert.Equal(t,
		[]string{"https://cdn/b.jpg", legacy, "https://cdn/old.jpg"},
		RemovedURLs(prev, final))
}

func TestCoverURL(t *testing.T) {
	legacy := "legacy"
	assert.Equal(t, "legacy", CoverURL(&models.Property{FeaturedImage: &legacy}))
	assert.Equal(t, "", CoverURL(&models.Property{}))

	list, err := SetFeatured(gallery("a", "b"), 1)
	require.NoError(t, err)
	assert.Equal(t, "b", CoverURL(&models.Property{PropertyImages: list}))
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"photo.jpg":           "photo.jpg",
		"my photo (1).JPG":    "myphoto1.JPG",
		"../../etc/passwd":    "passwd",
		`C:\Users\me\pic.png`: "pic.png",
		"日本.png":              ".png",
		"???":                 "image",
		"rumah-teres_01.jpeg": "rumah-teres_01.jpeg",
	}
	for in, want := range tests {
		assert.Equal(t, want, SanitizeFilename(in), in)
	}
}

func TestObjectKey(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	a := ObjectKey(now, "my house.jpg")
	b := ObjectKey(now, "my house.jpg")
	assert.Regexp(t, `^1700000000123-[0-9a-f]{8}-myhouse\.jpg$`, a)
	assert.NotEqual(t, a, b)
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient("blob:http://localhost/123"))
	assert.True(t, IsTransient("local:0"))
	assert.False(t, IsTransient("https://cdn/a.jpg"))
}
