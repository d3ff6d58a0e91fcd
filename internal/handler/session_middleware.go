package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"prompt-studio/internal/session"
)

const sessionIDKey = "session_id"

// SessionMiddleware достает идентификатор сессии из подписанной куки.
// Если куки нет или она недействительна, выдается новая сессия.
func SessionMiddleware(codec *session.CookieCodec, secure bool, logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("SessionMiddleware")
	return func(c *gin.Context) {
		if token, err := c.Cookie(session.CookieName); err == nil {
			sid, parseErr := codec.Parse(token)
			if parseErr == nil {
				c.Set(sessionIDKey, sid)
				c.Next()
				return
			}
			log.Debug("Session cookie rejected, issuing a new one", zap.Error(parseErr))
		}

		sid := session.NewSessionID()
		token, err := codec.Issue(sid)
		if err != nil {
			_ = c.Error(err).SetMeta("issue session cookie")
			c.Abort()
			return
		}
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(session.CookieName, token, codec.MaxAge(), "/", "", secure, true)
		c.Set(sessionIDKey, sid)
		c.Next()
	}
}

func sessionID(c *gin.Context) string {
	return c.GetString(sessionIDKey)
}
