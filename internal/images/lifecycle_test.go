package images

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radz2291/RZ-Property/internal/errs"
	"github.com/radz2291/RZ-Property/internal/models"
)

// fakeStore fails uploads of files whose key contains a name in failUploads,
// and deletions of keys in failDeletes.
type fakeStore struct {
	mu          sync.Mutex
	failUploads map[string]bool
	failDeletes map[string]bool
	uploads     map[string]int
	deletes     []string
	inFlight    int
	maxInFlight int
}

func newFakeStore() *fakeStore {
	return &fakeStore{failUploads: map[string]bool{}, failDeletes: map[string]bool{}, uploads: map[string]int{}}
}

const fakeBase = "https://blobs.test/property-images/"

func (s *fakeStore) Upload(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	s.mu.Lock()
	s.inFlight++
	if s.inFlight > s.maxInFlight {
		s.maxInFlight = s.inFlight
	}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.inFlight--
		s.mu.Unlock()
	}()

	s.mu.Lock()
	defer s.mu.Unlock()
	for name := range s.failUploads {
		if strings.HasSuffix(key, name) {
			s.uploads[name]++
			return "", errors.New("connection reset")
		}
	}
	return fakeBase + key, nil
}

func (s *fakeStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes = append(s.deletes, key)
	if s.failDeletes[key] {
		return errors.New("access denied")
	}
	return nil
}

func (s *fakeStore) KeyFromURL(url string) (string, bool) {
	if !strings.HasPrefix(url, fakeBase) {
		return "", false
	}
	return strings.TrimPrefix(url, fakeBase), true
}

func jpeg(name string, size int) File {
	return File{Filename: name, ContentType: "image/jpeg", Data: make([]byte, size)}
}

func pendingEntries(n int) []models.PropertyImage {
	out := make([]models.PropertyImage, n)
	for i := range out {
		out[i] = models.PropertyImage{URL: "blob:preview", Order: i + 1}
	}
	return out
}

func TestSaveSingleImage(t *testing.T) {
	store := newFakeStore()
	m := NewManager(store, Options{})

	res, err := m.Save(context.Background(), pendingEntries(1), []File{jpeg("lake.jpg", 2*1024*1024)})
	require.NoError(t, err)
	require.Len(t, res.Images, 1)
	img := res.Images[0]
	assert.True(t, strings.HasPrefix(img.URL, fakeBase))
	assert.True(t, img.IsFeatured)
	assert.False(t, img.IsHidden)
	assert.Equal(t, 1, img.Order)
	assert.False(t, img.UploadedAt.IsZero())
	require.NotNil(t, res.FeaturedImage)
	assert.Equal(t, img.URL, *res.FeaturedImage)
	assert.Equal(t, []string{img.URL}, res.ImageURLs)
	assert.Len(t, res.UploadedKeys, 1)
	assert.Empty(t, res.Warnings)
}

func TestSavePartialUploadFailure(t *testing.T) {
	store := newFakeStore()
	store.failUploads["second.jpg"] = true
	m := NewManager(store, Options{})

	files := []File{jpeg("first.jpg", 10), jpeg("second.jpg", 10), jpeg("third.jpg", 10)}
	res, err := m.Save(context.Background(), pendingEntries(3), files)
	require.NoError(t, err)

	assert.Len(t, res.Images, 2)
	require.NoError(t, CheckInvariants(res.Images))
	assert.True(t, res.Images[0].IsFeatured)
	assert.Equal(t, 3, store.uploads["second.jpg"])

	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "second.jpg", res.Warnings[0].Filename)
	assert.Equal(t, 1, res.Warnings[0].Index)
	for _, img := range res.Images {
		assert.NotContains(t, img.URL, "second.jpg")
	}
}

func TestSaveKeepsPersistedEntries(t *testing.T) {
	store := newFakeStore()
	m := NewManager(store, Options{})

	existing := AddImages(nil, []models.PropertyImage{{URL: fakeBase + "old.jpg"}})
	edit := AddImages(existing, []models.PropertyImage{{URL: "blob:new"}})

	res, err := m.Save(context.Background(), edit, []File{jpeg("new.jpg", 10)})
	require.NoError(t, err)
	require.Len(t, res.Images, 2)
	assert.Equal(t, fakeBase+"old.jpg", res.Images[0].URL)
	assert.True(t, res.Images[0].IsFeatured)
	assert.Len(t, res.UploadedKeys, 1)
}

func TestSavePairsFilesByPositionNotOrder(t *testing.T) {
	store := newFakeStore()
	m := NewManager(store, Options{})

	entries := []models.PropertyImage{
		{URL: "blob:a", Order: 2, IsHidden: true},
		{URL: "blob:b", Order: 1, IsFeatured: true},
	}
	res, err := m.Save(context.Background(), entries, []File{jpeg("a.jpg", 10), jpeg("b.jpg", 10)})
	require.NoError(t, err)
	require.Len(t, res.Images, 2)

	first, second := res.Images[0], res.Images[1]
	assert.True(t, strings.HasSuffix(first.URL, "b.jpg"))
	assert.True(t, first.IsFeatured)
	assert.False(t, first.IsHidden)
	assert.True(t, strings.HasSuffix(second.URL, "a.jpg"))
	assert.True(t, second.IsHidden)
	assert.False(t, second.IsFeatured)
}

func TestSaveAppendsUnorderedUploads(t *testing.T) {
	store := newFakeStore()
	m := NewManager(store, Options{})

	entries := []models.PropertyImage{
		{URL: fakeBase + "old1.jpg", Order: 1, IsFeatured: true},
		{URL: fakeBase + "old2.jpg", Order: 2},
		{URL: "blob:new"},
	}
	res, err := m.Save(context.Background(), entries, []File{jpeg("new.jpg", 10)})
	require.NoError(t, err)
	require.Len(t, res.Images, 3)
	require.NoError(t, CheckInvariants(res.Images))

	assert.Equal(t, fakeBase+"old1.jpg", res.Images[0].URL)
	assert.True(t, res.Images[0].IsFeatured)
	assert.Equal(t, fakeBase+"old2.jpg", res.Images[1].URL)
	assert.True(t, strings.HasSuffix(res.Images[2].URL, "new.jpg"))
	assert.Equal(t, 3, res.Images[2].Order)
	assert.Equal(t, fakeBase+"old1.jpg", entries[0].URL, "input is not modified")
}

func TestSaveFeaturedUploadFailurePromotesNext(t *testing.T) {
	store := newFakeStore()
	store.failUploads["a.jpg"] = true
	m := NewManager(store, Options{})

	res, err := m.Save(context.Background(), gallery("blob:1", "blob:2"), []File{jpeg("a.jpg", 10), jpeg("b.jpg", 10)})
	require.NoError(t, err)
	require.Len(t, res.Images, 1)
	assert.True(t, res.Images[0].IsFeatured)
	assert.Equal(t, 1, res.Images[0].Order)
}

func TestSaveRespectsConcurrencyLimit(t *testing.T) {
	store := newFakeStore()
	m := NewManager(store, Options{Concurrency: 3})

	files := make([]File, 12)
	for i := range files {
		files[i] = jpeg("f.jpg", 10)
	}
	_, err := m.Save(context.Background(), pendingEntries(12), files)
	require.NoError(t, err)
	assert.LessOrEqual(t, store.maxInFlight, 3)
}

func TestValidateReportsEveryOffendingFile(t *testing.T) {
	m := NewManager(newFakeStore(), Options{})

	files := []File{
		jpeg("ok.jpg", 10),
		jpeg("huge.jpg", 6*1024*1024),
		{Filename: "notes.pdf", ContentType: "application/pdf", Data: []byte("x")},
	}
	err := m.Validate(pendingEntries(3), files)

	var verr *errs.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.False(t, verr.Has("files[0]"))
	assert.True(t, verr.Has("files[1]"))
	assert.True(t, verr.Has("files[2]"))
}

func TestValidateLimits(t *testing.T) {
	m := NewManager(newFakeStore(), Options{})

	var verr *errs.ValidationError
	err := m.Validate(pendingEntries(16), make([]File, 0))
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has("propertyImages"))
	assert.True(t, verr.Has("files"), "file count must match pending entries")

	assert.NoError(t, m.Validate(gallery(fakeBase+"a.jpg"), nil))
}

func TestSaveRejectsBatchBeforeUpload(t *testing.T) {
	store := newFakeStore()
	m := NewManager(store, Options{})

	_, err := m.Save(context.Background(), pendingEntries(1), []File{{Filename: "x.gif", ContentType: "text/plain", Data: []byte("x")}})
	require.Error(t, err)
	assert.Empty(t, store.uploads)
}

func TestDeleteBlobsAttemptsEveryKey(t *testing.T) {
	store := newFakeStore()
	store.failDeletes["b.jpg"] = true
	m := NewManager(store, Options{})

	var hooked []*errs.BlobDeletionError
	m.OnDeleteFailure = func(_ context.Context, f *errs.BlobDeletionError) { hooked = append(hooked, f) }

	urls := []string{fakeBase + "a.jpg", fakeBase + "b.jpg", fakeBase + "c.jpg", fakeBase + "d.jpg"}
	failures := m.DeleteBlobs(context.Background(), urls)

	assert.Equal(t, []string{"a.jpg", "b.jpg", "c.jpg", "d.jpg"}, store.deletes)
	require.Len(t, failures, 1)
	assert.Equal(t, "b.jpg", failures[0].Key)
	assert.Equal(t, failures, hooked)
}

func TestDeleteBlobsSkipsForeignAndTransientURLs(t *testing.T) {
	store := newFakeStore()
	m := NewManager(store, Options{})

	failures := m.DeleteBlobs(context.Background(), []string{"blob:x", "https://elsewhere/a.jpg"})
	assert.Empty(t, store.deletes)
	require.Len(t, failures, 1)
	assert.Equal(t, "https://elsewhere/a.jpg", failures[0].URL)
}
