package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/radz2291/RZ-Property/internal/errs"
	"github.com/radz2291/RZ-Property/internal/images"
	"github.com/radz2291/RZ-Property/internal/models"
	"github.com/radz2291/RZ-Property/internal/query"
	"github.com/radz2291/RZ-Property/internal/services"
)

// maxPropertyFormBytes caps a property form: a full gallery of the largest
// allowed files plus the JSON payload.
const maxPropertyFormBytes = 128 << 20

// PropertyHandler serves the public catalog and the admin property routes.
type PropertyHandler struct {
	propertyService services.IPropertyService
}

func NewPropertyHandler(propertyService services.IPropertyService) *PropertyHandler {
	return &PropertyHandler{propertyService: propertyService}
}

// propertyCard is a property as shown in lists.
type propertyCard struct {
	*models.Property
	CoverImage  string `json:"coverImage,omitempty"`
	PricePeriod string `json:"pricePeriod,omitempty"`
}

// propertyDetail is the public detail page payload.
type propertyDetail struct {
	propertyCard
	VisibleImages []models.PropertyImage `json:"visibleImages"`
}

func toCard(p *models.Property) propertyCard {
	return propertyCard{Property: p, CoverImage: images.CoverURL(p), PricePeriod: p.PricePeriod()}
}

func toCards(props []models.Property) []propertyCard {
	out := make([]propertyCard, len(props))
	for i := range props {
		out[i] = toCard(&props[i])
	}
	return out
}

func (h *PropertyHandler) list(c *gin.Context, scope query.Scope) {
	filter, problems := query.ParseFilter(c.Query)
	if len(problems) > 0 {
		verr := &errs.ValidationError{}
		for field, msg := range problems {
			verr.Add(field, "%s", msg)
		}
		respondError(c, verr)
		return
	}
	spec := query.Spec{Filter: filter, Sort: query.ParseSort(c.Query("sort")), Scope: scope}

	props, err := h.propertyService.ListProperties(c.Request.Context(), spec)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"properties": toCards(props)})
}

// ListPublic handles GET /v1/properties
func (h *PropertyHandler) ListPublic(c *gin.Context) { h.list(c, query.Public) }

// ListAdmin handles GET /v1/admin/properties
func (h *PropertyHandler) ListAdmin(c *gin.Context) { h.list(c, query.Admin) }

// Featured handles GET /v1/properties/featured
func (h *PropertyHandler) Featured(c *gin.Context) {
	props, err := h.propertyService.FeaturedProperties(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"properties": toCards(props)})
}

// GetPublic handles GET /v1/properties/:slug and counts the view.
func (h *PropertyHandler) GetPublic(c *gin.Context) {
	view := services.PageViewInfo{
		Path:      c.Request.URL.Path,
		UserAgent: c.Request.UserAgent(),
		Referrer:  c.Request.Referer(),
	}
	p, err := h.propertyService.ViewPublicProperty(c.Request.Context(), c.Param("slug"), view)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, propertyDetail{propertyCard: toCard(p), VisibleImages: images.Visible(p.PropertyImages)})
}

// Similar handles GET /v1/properties/:slug/similar
func (h *PropertyHandler) Similar(c *gin.Context) {
	props, err := h.propertyService.SimilarProperties(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"properties": toCards(props)})
}

// GetAdmin handles GET /v1/admin/properties/:id
func (h *PropertyHandler) GetAdmin(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	p, err := h.propertyService.GetProperty(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCard(p))
}

// readPropertyForm accepts either a JSON body, or a multipart form with the
// JSON in the "payload" field and one file per pending image in "files".
func readPropertyForm(c *gin.Context) (services.PropertyInput, []images.File, error) {
	var in services.PropertyInput
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := c.ShouldBindJSON(&in); err != nil {
			return in, nil, badBody(err)
		}
		return in, nil, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return in, nil, badBody(err)
	}
	payload := form.Value["payload"]
	if len(payload) != 1 {
		verr := &errs.ValidationError{}
		verr.Add("payload", "exactly one JSON payload field is required")
		return in, nil, verr
	}
	if err := json.Unmarshal([]byte(payload[0]), &in); err != nil {
		return in, nil, badBody(err)
	}

	headers := form.File["files"]
	if len(headers) == 0 {
		headers = form.File["files[]"]
	}
	files := make([]images.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return in, nil, fmt.Errorf("open upload %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return in, nil, fmt.Errorf("read upload %s: %w", fh.Filename, err)
		}
		contentType := fh.Header.Get("Content-Type")
		if contentType == "" || contentType == "application/octet-stream" {
			contentType = http.DetectContentType(data)
		}
		files = append(files, images.File{Filename: fh.Filename, ContentType: contentType, Data: data})
	}
	return in, files, nil
}

func badBody(err error) error {
	verr := &errs.ValidationError{}
	verr.Add("body", "could not be read: %v", err)
	return verr
}

// Create handles POST /v1/admin/properties
func (h *PropertyHandler) Create(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxPropertyFormBytes)
	in, files, err := readPropertyForm(c)
	if err != nil {
		respondError(c, err)
		return
	}
	res, err := h.propertyService.CreateProperty(c.Request.Context(), in, files)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// Update handles PUT /v1/admin/properties/:id
func (h *PropertyHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxPropertyFormBytes)
	in, files, err := readPropertyForm(c)
	if err != nil {
		respondError(c, err)
		return
	}
	res, err := h.propertyService.UpdateProperty(c.Request.Context(), id, in, files)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Delete handles DELETE /v1/admin/properties/:id
func (h *PropertyHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.propertyService.DeleteProperty(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SetStatus handles PATCH /v1/admin/properties/:id/status
func (h *PropertyHandler) SetStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, badBody(err))
		return
	}
	if err := h.propertyService.SetStatus(c.Request.Context(), id, req.Status); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "status": req.Status})
}

// SetFeatured handles PATCH /v1/admin/properties/:id/featured
func (h *PropertyHandler) SetFeatured(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req struct {
		IsFeatured *bool `json:"isFeatured" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, badBody(err))
		return
	}
	if err := h.propertyService.SetFeatured(c.Request.Context(), id, *req.IsFeatured); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "isFeatured": *req.IsFeatured})
}
