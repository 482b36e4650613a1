package public

import (
	"strings"

	"github.com/bakehouse-api/internal/http/response"

	"github.com/gin-gonic/gin"
)

// getVisitorID 读取访客身份中间件写入的访客标识。
// 中间件保证每个请求都有访客标识，取不到说明路由装配有误。
func getVisitorID(c *gin.Context) (string, bool) {
	value, exists := c.Get("visitor_id")
	if !exists {
		respondError(c, response.CodeInternal, "error.internal", nil)
		return "", false
	}
	id, ok := value.(string)
	if !ok || strings.TrimSpace(id) == "" {
		respondError(c, response.CodeInternal, "error.internal", nil)
		return "", false
	}
	return id, true
}
