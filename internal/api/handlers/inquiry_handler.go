package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/radz2291/RZ-Property/internal/services"
)

// InquiryHandler handles lead capture and the admin inquiry inbox.
type InquiryHandler struct {
	inquiryService services.IInquiryService
}

func NewInquiryHandler(inquiryService services.IInquiryService) *InquiryHandler {
	return &InquiryHandler{inquiryService: inquiryService}
}

// Submit handles POST /v1/inquiries (general contact).
func (h *InquiryHandler) Submit(c *gin.Context) {
	var in services.InquiryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, badBody(err))
		return
	}
	inq, err := h.inquiryService.SubmitInquiry(c.Request.Context(), in, nil)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": inq.ID, "status": inq.Status})
}

// SubmitForProperty handles POST /v1/properties/:slug/inquiries
func (h *InquiryHandler) SubmitForProperty(c *gin.Context) {
	var in services.InquiryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, badBody(err))
		return
	}
	inq, err := h.inquiryService.SubmitPropertyInquiry(c.Request.Context(), c.Param("slug"), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": inq.ID, "status": inq.Status})
}

// List handles GET /v1/admin/inquiries?status=&limit=
func (h *InquiryHandler) List(c *gin.Context) {
	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "0"), 10, 64)
	if err != nil || limit < 0 {
		limit = 0
	}
	list, err := h.inquiryService.ListInquiries(c.Request.Context(), c.Query("status"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"inquiries": list})
}

// Get handles GET /v1/admin/inquiries/:id
func (h *InquiryHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	inq, err := h.inquiryService.GetInquiry(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, inq)
}

// UpdateStatus handles PATCH /v1/admin/inquiries/:id/status
func (h *InquiryHandler) UpdateStatus(c *gin.Context) {
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
	if err := h.inquiryService.UpdateInquiryStatus(c.Request.Context(), id, req.Status); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "status": req.Status})
}

// Delete handles DELETE /v1/admin/inquiries/:id
func (h *InquiryHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.inquiryService.DeleteInquiry(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
