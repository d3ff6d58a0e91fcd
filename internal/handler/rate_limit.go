package handler

import (
	"net/http"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewAIRateLimiter ограничивает запросы к AI в рамках одной сессии.
// При превышении лимита пользователь возвращается на страницу промпта с ошибкой.
func NewAIRateLimiter(store ratelimit.Store, flashSecret []byte, secure bool, logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("AIRateLimiter")
	return ratelimit.RateLimiter(store, &ratelimit.Options{
		ErrorHandler: func(c *gin.Context, info ratelimit.Info) {
			log.Warn("AI rate limit exceeded",
				zap.String("sessionID", sessionID(c)),
				zap.String("path", c.Request.URL.Path),
				zap.Time("resetTime", info.ResetTime),
			)
			msg := []FlashMessage{{
				Type:    "error",
				Message: "Too many AI requests. Try again in " + time.Until(info.ResetTime).Round(time.Second).String(),
			}}
			if err := setFlashMessages(c, msg, flashSecret, secure); err != nil {
				log.Error("Failed to set flash message", zap.Error(err))
			}
			location := "/prompts"
			if id := c.Param("id"); id != "" {
				location += "/" + id
			}
			c.Redirect(http.StatusSeeOther, location)
			c.Abort()
		},
		KeyFunc: func(c *gin.Context) string {
			if sid := sessionID(c); sid != "" {
				return "ai:" + sid
			}
			return "ai:" + c.ClientIP()
		},
	})
}
