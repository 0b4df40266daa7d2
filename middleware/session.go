package middleware

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const colorKey = "color"

// Sessions installs the cookie-backed session store.
func Sessions(secret string) gin.HandlerFunc {
	store := cookie.NewStore([]byte(secret))
	return sessions.Sessions("GifChatSession", store)
}

// DisplayColor assigns each session a display colour on first request.
// The colour is the only user identity in the system: it names the
// sender on messages and the owner on rooms.
func DisplayColor() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)

		color, _ := session.Get(colorKey).(string)
		if color == "" {
			color = randomColor()
			session.Set(colorKey, color)
			session.Save()
		}

		c.Set(colorKey, color)
		c.Next()
	}
}

// Color returns the session display colour set by DisplayColor.
func Color(c *gin.Context) string {
	return c.GetString(colorKey)
}

// randomColor derives a css hex colour from a fresh uuid.
func randomColor() string {
	id := uuid.NewString()
	return "#" + id[:6]
}
