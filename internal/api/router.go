package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/radz2291/RZ-Property/internal/api/handlers"
	"github.com/radz2291/RZ-Property/internal/api/middleware"
	"github.com/radz2291/RZ-Property/internal/cache"
	"github.com/radz2291/RZ-Property/internal/captcha"
	"github.com/radz2291/RZ-Property/internal/config"
	"github.com/radz2291/RZ-Property/internal/email"
	"github.com/radz2291/RZ-Property/internal/services"
	"github.com/radz2291/RZ-Property/internal/storage"
)

// Dependencies are the services the public and admin routes are built on.
// PageCache may be nil, which disables response caching.
type Dependencies struct {
	Properties services.IPropertyService
	Inquiries  services.IInquiryService
	Content    services.ISiteContentService
	Agent      services.IAgentService
	AdminAuth  services.IAdminAuthService
	Analytics  services.IAnalyticsService
	BlobStore  storage.IBlobStore
	PageCache  cache.IPageCache
	Captcha    captcha.ITurnstileVerifier
}

// SetupRouter configures and returns the main Gin engine.
func SetupRouter(cfg *config.Config, deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(middleware.CORSMiddleware(cfg.CORSAllowedOrigins))

	propertyHandler := handlers.NewPropertyHandler(deps.Properties)
	inquiryHandler := handlers.NewInquiryHandler(deps.Inquiries)
	contentHandler := handlers.NewContentHandler(deps.Content, deps.Agent)
	adminHandler := handlers.NewAdminHandler(deps.AdminAuth, deps.Analytics, deps.BlobStore)

	cached := func(h gin.HandlerFunc) []gin.HandlerFunc {
		if deps.PageCache == nil {
			return []gin.HandlerFunc{h}
		}
		return []gin.HandlerFunc{middleware.PageCacheMiddleware(deps.PageCache), h}
	}

	// Only lead capture is open to anonymous writes, so only it is guarded.
	rateLimiter := middleware.NewRateLimiterMiddleware(cfg)
	guarded := []gin.HandlerFunc{middleware.CaptchaMiddleware(cfg, deps.Captcha), rateLimiter.Limit()}

	v1 := r.Group("/v1")
	{
		v1.GET("/ping", func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		})

		// Public catalog
		v1.GET("/properties", cached(propertyHandler.ListPublic)...)
		v1.GET("/properties/featured", cached(propertyHandler.Featured)...)
		v1.GET("/properties/:slug", propertyHandler.GetPublic) // counts views, never cached
		v1.GET("/properties/:slug/similar", cached(propertyHandler.Similar)...)
		v1.GET("/content/:section", cached(contentHandler.GetSection)...)
		v1.GET("/agent", cached(contentHandler.GetAgent)...)

		// Lead capture
		v1.POST("/inquiries", append(guarded, inquiryHandler.Submit)...)
		v1.POST("/properties/:slug/inquiries", append(guarded, inquiryHandler.SubmitForProperty)...)

		v1.POST("/admin/login", adminHandler.Login)

		admin := v1.Group("/admin")
		admin.Use(middleware.AuthMiddleware(cfg.JwtSecret), middleware.AdminMiddleware())
		{
			admin.GET("/properties", propertyHandler.ListAdmin)
			admin.POST("/properties", propertyHandler.Create)
			admin.GET("/properties/:id", propertyHandler.GetAdmin)
			admin.PUT("/properties/:id", propertyHandler.Update)
			admin.DELETE("/properties/:id", propertyHandler.Delete)
			admin.PATCH("/properties/:id/status", propertyHandler.SetStatus)
			admin.PATCH("/properties/:id/featured", propertyHandler.SetFeatured)

			admin.GET("/inquiries", inquiryHandler.List)
			admin.GET("/inquiries/:id", inquiryHandler.Get)
			admin.PATCH("/inquiries/:id/status", inquiryHandler.UpdateStatus)
			admin.DELETE("/inquiries/:id", inquiryHandler.Delete)

			admin.GET("/content/:section", contentHandler.GetSection)
			admin.PUT("/content/:section", contentHandler.PutSection)
			admin.PUT("/agent", contentHandler.PutAgent)

			admin.GET("/analytics", adminHandler.Analytics)
			admin.GET("/storage/buckets", adminHandler.ListBuckets)
			admin.POST("/storage/ensure", adminHandler.EnsureBucket)
		}
	}

	return r
}

// SetupServiceRouter configures and returns the service Gin engine. It is
// bound to a side port and accepts shutdown and mock mail lookups.
func SetupServiceRouter(cfg *config.Config, rdb *redis.Client, shutdownChan chan<- struct{}) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.POST("/api", func(c *gin.Context) {
		var req struct {
			Method    string          `json:"method"`
			Arguments json.RawMessage `json:"arguments"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request format"})
			return
		}

		switch req.Method {
		case "shutdown":
			log.Println("Received shutdown command via Service API")
			c.JSON(http.StatusOK, gin.H{"success": true, "result": "Shutdown initiated"})
			select {
			case shutdownChan <- struct{}{}:
			default:
				log.Println("Shutdown channel already signaled.")
			}
		case "getTestEmail":
			var args []string // [kind, email]
			if err := json.Unmarshal(req.Arguments, &args); err != nil || len(args) != 2 {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid arguments: expected JSON array [kind, email]"})
				return
			}
			getTestEmail(c, rdb, email.MockEmailKey(args[1], args[0]))
		default:
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": fmt.Sprintf("Unknown service method: %s", req.Method)})
		}
	})
	return r
}

// getTestEmail polls Redis briefly for a mock email and consumes it.
func getTestEmail(c *gin.Context, rdb *redis.Client, key string) {
	if rdb == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "Redis not configured"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	var raw string
	var err error
	for i := 0; i < 10; i++ {
		raw, err = rdb.GetDel(ctx, key).Result()
		if err == nil {
			break
		}
		if !errors.Is(err, redis.Nil) {
			log.Printf("Service API: Error getting key %s from Redis: %v", key, err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Redis error"})
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": fmt.Sprintf("Test email not found in Redis for key %s", key)})
		return
	}

	var data map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		log.Printf("Service API: Error unmarshalling email data from key %s: %v", key, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to parse stored email data"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}
