package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/radz2291/RZ-Property/internal/content"
	"github.com/radz2291/RZ-Property/internal/services"
)

const maxContentBytes = 1 << 20

// ContentHandler serves the site content sections and the agent profile.
type ContentHandler struct {
	contentService services.ISiteContentService
	agentService   services.IAgentService
}

func NewContentHandler(contentService services.ISiteContentService, agentService services.IAgentService) *ContentHandler {
	return &ContentHandler{contentService: contentService, agentService: agentService}
}

// GetSection handles GET /v1/content/:section and its admin twin.
func (h *ContentHandler) GetSection(c *gin.Context) {
	section, ok := content.ParseSection(c.Param("section"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown content section"})
		return
	}
	sc, err := h.contentService.GetContent(c.Request.Context(), section)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"section": section, "content": sc})
}

// PutSection handles PUT /v1/admin/content/:section
func (h *ContentHandler) PutSection(c *gin.Context) {
	section, ok := content.ParseSection(c.Param("section"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown content section"})
		return
	}
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxContentBytes))
	if err != nil {
		respondError(c, badBody(err))
		return
	}
	sc, err := h.contentService.PutContent(c.Request.Context(), section, payload)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"section": section, "content": sc})
}

// GetAgent handles GET /v1/agent
func (h *ContentHandler) GetAgent(c *gin.Context) {
	agent, err := h.agentService.GetAgent(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, agent)
}

// PutAgent handles PUT /v1/admin/agent
func (h *ContentHandler) PutAgent(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxContentBytes))
	if err != nil {
		respondError(c, badBody(err))
		return
	}
	agent, err := h.agentService.UpdateAgent(c.Request.Context(), payload)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, agent)
}
