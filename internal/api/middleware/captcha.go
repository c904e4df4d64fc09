package middleware

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/radz2291/RZ-Property/internal/captcha"
	"github.com/radz2291/RZ-Property/internal/config"
)

const (
	// ContextKeyIsHumanVerified holds the key for captcha status in Gin context.
	ContextKeyIsHumanVerified = "isHumanVerified"
)

// CaptchaMiddleware handles Cloudflare Turnstile verification (X-C-V) and
// human token (X-C-T) checks. It never rejects a request; the rate limiter
// decides what an unverified client may do.
func CaptchaMiddleware(cfg *config.Config, verifier captcha.ITurnstileVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		fingerprint := c.GetHeader("X-BFP")
		humanToken := c.GetHeader("X-C-T")
		challenge := c.GetHeader("X-C-V")

		isHuman := humanToken != "" && verifier.ValidateHumanToken(humanToken, clientIP, fingerprint)

		if !isHuman && challenge != "" {
			verified, err := verifier.Verify(c.Request.Context(), challenge, clientIP)
			if err != nil {
				log.Printf("Error verifying Turnstile token for %s: %v", clientIP, err)
			} else if verified {
				isHuman = true
				newToken, err := verifier.GenerateHumanToken(clientIP, fingerprint, cfg.CaptchaTokenTTL)
				if err != nil {
					log.Printf("Error generating X-C-T token after successful verification: %v", err)
				} else {
					c.Header("X-C-T", newToken)
				}
			}
		}

		c.Set(ContextKeyIsHumanVerified, isHuman)
		c.Next()
	}
}
