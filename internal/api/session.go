package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	sessionCookie = "sid"
	sessionMaxAge = 30 * 24 * 60 * 60
)

// sessionID 读取会话 cookie；缺失或格式不对时签发新的
// 会话 id 会用作上传文件名，因此只接受 uuid。
func sessionID(c *gin.Context) string {
	if v, err := c.Cookie(sessionCookie); err == nil {
		if id, err := uuid.Parse(v); err == nil {
			return id.String()
		}
	}
	id := uuid.NewString()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, id, sessionMaxAge, "/", "", false, true)
	return id
}
