package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/radz2291/RZ-Property/internal/errs"
	"github.com/radz2291/RZ-Property/internal/models"
	"github.com/radz2291/RZ-Property/internal/query"
	"github.com/radz2291/RZ-Property/internal/repository"
	"github.com/radz2291/RZ-Property/internal/tasks"
	"github.com/radz2291/RZ-Property/internal/utils"
)

// --- property repository ---

type fakePropertyRepo struct {
	mu         sync.Mutex
	props      map[utils.SixID]models.Property
	replaceErr error
	insertErr  error
}

func newFakePropertyRepo() *fakePropertyRepo {
	return &fakePropertyRepo{props: map[utils.SixID]models.Property{}}
}

func (r *fakePropertyRepo) FindProperties(_ context.Context, spec query.Spec) ([]models.Property, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]models.Property, 0, len(r.props))
	for _, p := range r.props {
		all = append(all, p)
	}
	return query.Apply(spec, all), nil
}

func (r *fakePropertyRepo) Insert(_ context.Context, p *models.Property) (*models.Property, error) {
	if r.insertErr != nil {
		return nil, r.insertErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p.EnsureID()
	r.props[p.ID] = *p
	return p, nil
}

func (r *fakePropertyRepo) Replace(_ context.Context, p *models.Property) error {
	if r.replaceErr != nil {
		return r.replaceErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.props[p.ID]; !ok {
		return errs.NotFound("property", p.ID.String())
	}
	r.props[p.ID] = *p
	return nil
}

func (r *fakePropertyRepo) get(id utils.SixID) (models.Property, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.props[id]
	return p, ok
}

func (r *fakePropertyRepo) FindByID(_ context.Context, id utils.SixID) (*models.Property, error) {
	p, ok := r.get(id)
	if !ok {
		return nil, errs.NotFound("property", id.String())
	}
	return &p, nil
}

func (r *fakePropertyRepo) FindBySlug(_ context.Context, slug string) (*models.Property, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.props {
		if p.Slug == slug {
			return &p, nil
		}
	}
	return nil, errs.NotFound("property", slug)
}

func (r *fakePropertyRepo) SlugExists(_ context.Context, slug string, excludeID utils.SixID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, p := range r.props {
		if p.Slug == slug && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakePropertyRepo) update(id utils.SixID, fn func(p *models.Property)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.props[id]
	if !ok {
		return errs.NotFound("property", id.String())
	}
	fn(&p)
	r.props[id] = p
	return nil
}

func (r *fakePropertyRepo) SetStatus(_ context.Context, id utils.SixID, status models.PropertyStatus, at time.Time) error {
	return r.update(id, func(p *models.Property) { p.Status = status; p.UpdatedAt = at })
}

func (r *fakePropertyRepo) SetFeatured(_ context.Context, id utils.SixID, featured bool, at time.Time) error {
	return r.update(id, func(p *models.Property) { p.IsFeatured = featured; p.UpdatedAt = at })
}

func (r *fakePropertyRepo) IncrementViews(ctx context.Context, slug string) (*models.Property, error) {
	p, err := r.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !p.Status.IsPublic() {
		return nil, errs.NotFound("property", slug)
	}
	_ = r.update(p.ID, func(p *models.Property) { p.ViewCount++ })
	out, _ := r.get(p.ID)
	return &out, nil
}

func (r *fakePropertyRepo) Delete(_ context.Context, id utils.SixID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.props[id]; !ok {
		return errs.NotFound("property", id.String())
	}
	delete(r.props, id)
	return nil
}

func (r *fakePropertyRepo) FindWithoutGallery(_ context.Context) ([]models.Property, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Property
	for _, p := range r.props {
		if len(p.PropertyImages) == 0 {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Compare(out[j].ID) < 0 })
	return out, nil
}

func (r *fakePropertyRepo) Stats(_ context.Context) (*repository.PropertyStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &repository.PropertyStats{ByStatus: map[models.PropertyStatus]int64{}}
	for _, p := range r.props {
		stats.Total++
		stats.TotalViews += p.ViewCount
		stats.ByStatus[p.Status]++
	}
	return stats, nil
}

// --- agent repository ---

type fakeAgentRepo struct {
	agent *models.Agent
}

func (r *fakeAgentRepo) FindDefault(context.Context) (*models.Agent, error) {
	if r.agent == nil {
		return nil, errs.NotFound("agent", "default")
	}
	a := *r.agent
	return &a, nil
}

func (r *fakeAgentRepo) Insert(_ context.Context, a *models.Agent) (*models.Agent, error) {
	a.EnsureID()
	stored := *a
	r.agent = &stored
	return a, nil
}

func (r *fakeAgentRepo) Replace(_ context.Context, a *models.Agent) error {
	stored := *a
	r.agent = &stored
	return nil
}

// --- page views ---

type fakePageViewRepo struct {
	views []models.PageView
}

func (r *fakePageViewRepo) Record(_ context.Context, v *models.PageView) error {
	r.views = append(r.views, *v)
	return nil
}

func (r *fakePageViewRepo) TopProperties(_ context.Context, limit int) ([]models.PropertyViewCount, error) {
	counts := map[utils.SixID]int64{}
	for _, v := range r.views {
		counts[v.PropertyID]++
	}
	var out []models.PropertyViewCount
	for id, n := range counts {
		out = append(out, models.PropertyViewCount{PropertyID: id, Views: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Views > out[j].Views })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- inquiries ---

type fakeInquiryRepo struct {
	items map[utils.SixID]models.Inquiry
}

func newFakeInquiryRepo() *fakeInquiryRepo {
	return &fakeInquiryRepo{items: map[utils.SixID]models.Inquiry{}}
}

func (r *fakeInquiryRepo) Insert(_ context.Context, inq *models.Inquiry) (*models.Inquiry, error) {
	inq.EnsureID()
	r.items[inq.ID] = *inq
	return inq, nil
}

func (r *fakeInquiryRepo) FindByID(_ context.Context, id utils.SixID) (*models.Inquiry, error) {
	inq, ok := r.items[id]
	if !ok {
		return nil, errs.NotFound("inquiry", id.String())
	}
	return &inq, nil
}

func (r *fakeInquiryRepo) List(_ context.Context, status *models.InquiryStatus, limit int64) ([]models.Inquiry, error) {
	out := []models.Inquiry{}
	for _, inq := range r.items {
		if status == nil || inq.Status == *status {
			out = append(out, inq)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeInquiryRepo) UpdateStatus(_ context.Context, id utils.SixID, status models.InquiryStatus, at time.Time) error {
	inq, ok := r.items[id]
	if !ok {
		return errs.NotFound("inquiry", id.String())
	}
	inq.Status = status
	inq.UpdatedAt = at
	r.items[id] = inq
	return nil
}

func (r *fakeInquiryRepo) Delete(_ context.Context, id utils.SixID) error {
	if _, ok := r.items[id]; !ok {
		return errs.NotFound("inquiry", id.String())
	}
	delete(r.items, id)
	return nil
}

func (r *fakeInquiryRepo) Count(ctx context.Context, status *models.InquiryStatus) (int64, error) {
	list, _ := r.List(ctx, status, 1<<31)
	return int64(len(list)), nil
}

// --- blob store ---

const fakeBlobBase = "https://blobs.test/property-images/"

type fakeBlobStore struct {
	mu          sync.Mutex
	objects     map[string][]byte
	uploads     int
	deletes     []string
	failUploads map[string]bool // by filename suffix
	failDeletes map[string]bool // by key
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: map[string][]byte{}, failUploads: map[string]bool{}, failDeletes: map[string]bool{}}
}

func (s *fakeBlobStore) Upload(_ context.Context, key string, body []byte, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads++
	for suffix := range s.failUploads {
		if strings.HasSuffix(key, suffix) {
			return "", fmt.Errorf("upload of %s refused", key)
		}
	}
	s.objects[key] = body
	return fakeBlobBase + key, nil
}

func (s *fakeBlobStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes = append(s.deletes, key)
	if s.failDeletes[key] {
		return fmt.Errorf("delete of %s refused", key)
	}
	delete(s.objects, key)
	return nil
}

func (s *fakeBlobStore) KeyFromURL(url string) (string, bool) {
	if !strings.HasPrefix(url, fakeBlobBase) {
		return "", false
	}
	return strings.TrimPrefix(url, fakeBlobBase), true
}

// --- enqueuer ---

type fakeEnqueuer struct {
	mu            sync.Mutex
	notifications []tasks.InquiryNotificationPayload
	blobDeletes   []tasks.BlobDeletePayload
	normalizes    []tasks.ImageNormalizePayload
}

func (e *fakeEnqueuer) EnqueueInquiryNotification(_ context.Context, p tasks.InquiryNotificationPayload) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.notifications = append(e.notifications, p)
	return nil
}

func (e *fakeEnqueuer) EnqueueBlobDelete(_ context.Context, p tasks.BlobDeletePayload) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.blobDeletes = append(e.blobDeletes, p)
	return nil
}

func (e *fakeEnqueuer) EnqueueImageNormalize(_ context.Context, p tasks.ImageNormalizePayload) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.normalizes = append(e.normalizes, p)
	return nil
}

// --- search ---

type recordingIndexer struct {
	indexed []string
	removed []string
}

func (r *recordingIndexer) Init(context.Context) error { return nil }

func (r *recordingIndexer) IndexProperties(_ context.Context, props ...models.Property) error {
	for _, p := range props {
		r.indexed = append(r.indexed, p.ID.String())
	}
	return nil
}

func (r *recordingIndexer) RemoveProperty(_ context.Context, id string) error {
	r.removed = append(r.removed, id)
	return nil
}

// --- site content ---

type fakeSiteContentRepo struct {
	records map[models.ContentSection]models.SiteContentRecord
}

func newFakeSiteContentRepo() *fakeSiteContentRepo {
	return &fakeSiteContentRepo{records: map[models.ContentSection]models.SiteContentRecord{}}
}

func (r *fakeSiteContentRepo) Get(_ context.Context, section models.ContentSection) (*models.SiteContentRecord, error) {
	rec, ok := r.records[section]
	if !ok {
		return nil, errs.NotFound("site content", string(section))
	}
	return &rec, nil
}

func (r *fakeSiteContentRepo) Put(_ context.Context, section models.ContentSection, content bson.Raw, at time.Time) error {
	r.records[section] = models.SiteContentRecord{Section: section, Content: content, UpdatedAt: at}
	return nil
}

// --- admin users ---

type fakeAdminUserRepo struct {
	users map[string]models.AdminUser
}

func newFakeAdminUserRepo() *fakeAdminUserRepo {
	return &fakeAdminUserRepo{users: map[string]models.AdminUser{}}
}

func (r *fakeAdminUserRepo) FindByUsername(_ context.Context, username string) (*models.AdminUser, error) {
	u, ok := r.users[username]
	if !ok {
		return nil, errs.NotFound("admin user", username)
	}
	return &u, nil
}

func (r *fakeAdminUserRepo) Insert(_ context.Context, u *models.AdminUser) (*models.AdminUser, error) {
	u.EnsureID()
	r.users[u.Username] = *u
	return u, nil
}

func (r *fakeAdminUserRepo) byID(id utils.SixID) (models.AdminUser, bool) {
	for _, u := range r.users {
		if u.ID == id {
			return u, true
		}
	}
	return models.AdminUser{}, false
}

func (r *fakeAdminUserRepo) SetPasswordHash(_ context.Context, id utils.SixID, hash string) error {
	u, ok := r.byID(id)
	if !ok {
		return errs.NotFound("admin user", id.String())
	}
	u.PasswordHash = hash
	r.users[u.Username] = u
	return nil
}

func (r *fakeAdminUserRepo) TouchLogin(_ context.Context, id utils.SixID, at time.Time) error {
	u, ok := r.byID(id)
	if !ok {
		return errs.NotFound("admin user", id.String())
	}
	u.LastLoginAt = &at
	r.users[u.Username] = u
	return nil
}
