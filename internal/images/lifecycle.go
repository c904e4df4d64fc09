package images

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/radz2291/RZ-Property/internal/errs"
	"github.com/radz2291/RZ-Property/internal/models"
	"github.com/radz2291/RZ-Property/internal/retry"
)

// BlobStore is the part of the blob store adapter the manager needs.
type BlobStore interface {
	Upload(ctx context.Context, key string, body []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	KeyFromURL(url string) (string, bool)
}

// File is a raw upload matched by position to a transient entry.
type File struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Size returns the file length in bytes.
func (f File) Size() int64 { return int64(len(f.Data)) }

// Options bounds a save. Zero values fall back to the defaults below.
type Options struct {
	MaxCount     int
	MaxSizeBytes int64
	Concurrency  int
	MaxAttempts  int
	RetryDelay   time.Duration
	CallTimeout  time.Duration
}

const (
	DefaultMaxCount     = 15
	DefaultMaxSizeBytes = 5 * 1024 * 1024
	DefaultConcurrency  = 3
	DefaultMaxAttempts  = 3
	DefaultRetryDelay   = 250 * time.Millisecond
	DefaultCallTimeout  = 30 * time.Second
)

func (o Options) withDefaults() Options {
	if o.MaxCount <= 0 {
		o.MaxCount = DefaultMaxCount
	}
	if o.MaxSizeBytes <= 0 {
		o.MaxSizeBytes = DefaultMaxSizeBytes
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.RetryDelay < 0 {
		o.RetryDelay = 0
	}
	if o.CallTimeout <= 0 {
		o.CallTimeout = DefaultCallTimeout
	}
	return o
}

// SaveResult is the outcome of a save: the final gallery with its derived
// legacy fields, the keys uploaded in this save, and non-fatal warnings.
type SaveResult struct {
	Images        []models.PropertyImage
	FeaturedImage *string
	ImageURLs     []string
	UploadedKeys  []string
	Warnings      []*errs.UploadError
}

// DeleteFailureFunc is called for every blob that could not be deleted.
type DeleteFailureFunc func(ctx context.Context, failure *errs.BlobDeletionError)

// Manager reconciles a gallery edit with the blob store.
type Manager struct {
	store BlobStore
	opts  Options

	uploadPolicy retry.Policy
	now          func() time.Time

	// OnDeleteFailure is optional; the deferred cleanup worker hooks in here.
	OnDeleteFailure DeleteFailureFunc
}

// NewManager builds a Manager around store.
func NewManager(store BlobStore, opts Options) *Manager {
	opts = opts.withDefaults()
	return &Manager{
		store: store,
		opts:  opts,
		uploadPolicy: retry.Policy{
			MaxAttempts:    opts.MaxAttempts,
			Delay:          opts.RetryDelay,
			Backoff:        retry.Linear,
			AttemptTimeout: opts.CallTimeout,
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Options returns the effective limits.
func (m *Manager) Options() Options { return m.opts }

// Validate checks the whole batch before any upload. Every offending file is
// reported under files[i]; valid files are never dropped silently.
func (m *Manager) Validate(entries []models.PropertyImage, files []File) error {
	verr := &errs.ValidationError{}

	if len(entries) > m.opts.MaxCount {
		verr.Add("propertyImages", "at most %d images are allowed, got %d", m.opts.MaxCount, len(entries))
	}

	transient := 0
	for i, img := range entries {
		switch {
		case img.URL == "":
			verr.Add(fmt.Sprintf("propertyImages[%d].url", i), "is required")
		case IsTransient(img.URL):
			transient++
		}
	}
	if transient != len(files) {
		verr.Add("files", "expected %d files for pending images, got %d", transient, len(files))
	}

	for i, f := range files {
		field := fmt.Sprintf("files[%d]", i)
		if f.Size() == 0 {
			verr.Add(field, "%s is empty", f.Filename)
			continue
		}
		if f.Size() > m.opts.MaxSizeBytes {
			verr.Add(field, "%s is %.1fMB, the limit is %dMB", f.Filename,
				float64(f.Size())/(1024*1024), m.opts.MaxSizeBytes/(1024*1024))
		}
		if !strings.HasPrefix(strings.ToLower(f.ContentType), "image/") {
			verr.Add(field, "%s is not an image (%s)", f.Filename, f.ContentType)
		}
	}

	return verr.OrNil()
}

type uploadOutcome struct {
	url string
	key string
	err *errs.UploadError
}

// Save validates, uploads every transient entry and resolves the final
// gallery. Only validation problems are returned as an error; failed uploads
// are dropped from the gallery and reported as warnings.
func (m *Manager) Save(ctx context.Context, entries []models.PropertyImage, files []File) (*SaveResult, error) {
	if err := m.Validate(entries, files); err != nil {
		return nil, err
	}

	list := withAppendOrder(entries)
	pending := make([]int, 0, len(files))
	for i, img := range list {
		if IsTransient(img.URL) {
			pending = append(pending, i)
		}
	}

	outcomes := make([]uploadOutcome, len(pending))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.opts.Concurrency)
	for n := range pending {
		n := n
		g.Go(func() error {
			outcomes[n] = m.uploadOne(gctx, n, files[n])
			return nil
		})
	}
	_ = g.Wait()

	result := &SaveResult{}
	drop := make(map[int]bool)
	for n, pos := range pending {
		o := outcomes[n]
		if o.err != nil {
			drop[pos] = true
			result.Warnings = append(result.Warnings, o.err)
			continue
		}
		list[pos].URL = o.url
		if list[pos].UploadedAt.IsZero() {
			list[pos].UploadedAt = m.now()
		}
		result.UploadedKeys = append(result.UploadedKeys, o.key)
	}

	final := make([]models.PropertyImage, 0, len(list)-len(drop))
	for i, img := range list {
		if !drop[i] {
			final = append(final, img)
		}
	}
	final = Normalize(final)

	result.Images = final
	result.FeaturedImage, result.ImageURLs = ToLegacy(final)
	return result, nil
}

// withAppendOrder copies entries in caller order. Entries without an order
// are placed after the highest existing one, in slice position.
func withAppendOrder(entries []models.PropertyImage) []models.PropertyImage {
	list := make([]models.PropertyImage, len(entries))
	copy(list, entries)
	next := 0
	for _, img := range list {
		if img.Order > next {
			next = img.Order
		}
	}
	for i := range list {
		if list[i].Order <= 0 {
			next++
			list[i].Order = next
		}
	}
	return list
}

func (m *Manager) uploadOne(ctx context.Context, index int, f File) (out uploadOutcome) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("image upload panicked", "file", f.Filename, "panic", r, "stack", string(debug.Stack()))
			out = uploadOutcome{err: &errs.UploadError{
				Index: index, Filename: f.Filename, Message: "internal error during upload",
				Err: fmt.Errorf("panic: %v", r),
			}}
		}
	}()

	key := ObjectKey(m.now(), f.Filename)
	var url string
	err := m.uploadPolicy.Do(ctx, func(ctx context.Context) error {
		u, err := m.store.Upload(ctx, key, f.Data, f.ContentType)
		if err != nil {
			slog.Warn("image upload attempt failed", "key", key, "error", err)
			return err
		}
		url = u
		return nil
	})
	if err != nil {
		return uploadOutcome{err: &errs.UploadError{
			Index:    index,
			Filename: f.Filename,
			Message:  fmt.Sprintf("upload failed after %d attempts", m.opts.MaxAttempts),
			Err:      err,
		}}
	}
	return uploadOutcome{url: url, key: key}
}

// DeleteBlobs deletes the blob behind every URL, one by one, with a single
// bounded attempt each. Every URL is attempted; failures are logged, handed
// to OnDeleteFailure and returned for reporting.
func (m *Manager) DeleteBlobs(ctx context.Context, urls []string) []*errs.BlobDeletionError {
	var failures []*errs.BlobDeletionError
	for _, u := range urls {
		if IsTransient(u) {
			continue
		}
		key, ok := m.store.KeyFromURL(u)
		if !ok {
			f := &errs.BlobDeletionError{URL: u, Err: fmt.Errorf("url is not served by the blob store")}
			slog.Warn("blob deletion skipped", "url", u, "error", f.Err)
			failures = append(failures, f)
			continue
		}

		callCtx, cancel := context.WithTimeout(ctx, m.opts.CallTimeout)
		err := m.store.Delete(callCtx, key)
		cancel()
		if err == nil {
			continue
		}

		f := &errs.BlobDeletionError{URL: u, Key: key, Err: err}
		slog.Warn("blob deletion failed", "key", key, "error", err)
		failures = append(failures, f)
		if m.OnDeleteFailure != nil {
			m.OnDeleteFailure(ctx, f)
		}
	}
	return failures
}

// DeleteKeys deletes blobs by key with the same policy as DeleteBlobs. It is
// used to drop the uploads of a save whose record write failed.
func (m *Manager) DeleteKeys(ctx context.Context, keys []string) {
	for _, key := range keys {
		callCtx, cancel := context.WithTimeout(ctx, m.opts.CallTimeout)
		err := m.store.Delete(callCtx, key)
		cancel()
		if err == nil {
			continue
		}
		slog.Warn("orphaned upload left behind", "key", key, "error", err)
		if m.OnDeleteFailure != nil {
			m.OnDeleteFailure(ctx, &errs.BlobDeletionError{Key: key, Err: err})
		}
	}
}
