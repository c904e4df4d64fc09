package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/radz2291/RZ-Property/internal/services"
	"github.com/radz2291/RZ-Property/internal/storage"
)

// AdminHandler serves sign-in, the dashboard and bucket maintenance.
type AdminHandler struct {
	authService      services.IAdminAuthService
	analyticsService services.IAnalyticsService
	blobStore        storage.IBlobStore
}

func NewAdminHandler(authService services.IAdminAuthService, analyticsService services.IAnalyticsService, blobStore storage.IBlobStore) *AdminHandler {
	return &AdminHandler{authService: authService, analyticsService: analyticsService, blobStore: blobStore}
}

// Login handles POST /v1/admin/login
func (h *AdminHandler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}
	token, user, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

// Analytics handles GET /v1/admin/analytics
func (h *AdminHandler) Analytics(c *gin.Context) {
	summary, err := h.analyticsService.Summary(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// ListBuckets handles GET /v1/admin/storage/buckets
func (h *AdminHandler) ListBuckets(c *gin.Context) {
	buckets, err := h.blobStore.ListBuckets(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"buckets": buckets})
}

// EnsureBucket handles POST /v1/admin/storage/ensure
func (h *AdminHandler) EnsureBucket(c *gin.Context) {
	created, err := h.blobStore.EnsureBucket(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"created": created})
}
