package router

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bakehouse-api/internal/config"
	"github.com/bakehouse-api/internal/constants"
	"github.com/bakehouse-api/internal/http/response"
	"github.com/bakehouse-api/internal/i18n"
	"github.com/bakehouse-api/internal/repository"
	"github.com/bakehouse-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"go.uber.org/zap"
)

const requestIDKey = "request_id"
const requestIDHeader = "X-Request-ID"
const visitorIDKey = "visitor_id"

// CORSMiddleware 跨域中间件
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	allowedMethods := cfg.AllowedMethods
	if len(allowedMethods) == 0 {
		allowedMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	allowedHeaders := cfg.AllowedHeaders
	if len(allowedHeaders) == 0 {
		allowedHeaders = []string{
			"Content-Type",
			"Content-Length",
			"Accept-Encoding",
			"Authorization",
			"Cache-Control",
			"X-Requested-With",
			constants.VisitorTokenHeader,
		}
	}
	methodsHeader := strings.Join(allowedMethods, ", ")
	headersHeader := strings.Join(allowedHeaders, ", ")

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		allowedOrigin := resolveAllowedOrigin(origin, allowedOrigins, cfg.AllowCredentials)
		if allowedOrigin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
			if allowedOrigin != "*" {
				c.Writer.Header().Add("Vary", "Origin")
			}
		}
		if cfg.AllowCredentials {
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", headersHeader)
		c.Writer.Header().Set("Access-Control-Allow-Methods", methodsHeader)
		c.Writer.Header().Set("Access-Control-Expose-Headers", constants.VisitorTokenHeader)
		if cfg.MaxAge > 0 {
			c.Writer.Header().Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

func resolveAllowedOrigin(origin string, allowedOrigins []string, allowCredentials bool) string {
	if len(allowedOrigins) == 0 {
		return ""
	}
	for _, allowed := range allowedOrigins {
		if allowed == "*" {
			if allowCredentials && origin != "" {
				return origin
			}
			return "*"
		}
	}
	if origin == "" {
		return ""
	}
	for _, allowed := range allowedOrigins {
		if strings.EqualFold(allowed, origin) {
			return origin
		}
	}
	return ""
}

// RequestIDMiddleware 请求 ID 中间件
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Next()
	}
}

// LoggerMiddleware 结构化请求日志中间件
func LoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.L()
	}
	sugar := logger.Sugar()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log := sugar.With(
			"request_id", getRequestID(c),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
		if len(c.Errors) > 0 {
			log.Errorw("request", "errors", c.Errors.String())
			return
		}
		log.Infow("request")
	}
}

func getRequestID(c *gin.Context) string {
	value, ok := c.Get(requestIDKey)
	if !ok {
		return ""
	}
	if requestID, ok := value.(string); ok {
		return requestID
	}
	return ""
}

// VisitorIdentityMiddleware 访客身份中间件
// 解析顺序：Cookie → 签名头 → 新建；任何情况下都不会拒绝请求。
// 每次响应都回写 Cookie 与签名头，跨站前端可二选一保存。
func VisitorIdentityMiddleware(cfg config.VisitorConfig) gin.HandlerFunc {
	cookieName := strings.TrimSpace(cfg.CookieName)
	if cookieName == "" {
		cookieName = constants.VisitorCookieNameDefault
	}
	maxAgeDays := cfg.CookieMaxAgeDays
	if maxAgeDays <= 0 {
		maxAgeDays = constants.VisitorCookieMaxAgeDays
	}
	maxAge := maxAgeDays * 24 * 60 * 60

	return func(c *gin.Context) {
		visitorID := ""
		if cookieValue, err := c.Cookie(cookieName); err == nil {
			visitorID = strings.TrimSpace(cookieValue)
		}
		if visitorID == "" {
			visitorID = parseSignedVisitorToken(c.GetHeader(constants.VisitorTokenHeader), cfg.SigningSecret)
		}
		if visitorID == "" {
			visitorID = uuid.NewString()
		}

		c.SetSameSite(http.SameSiteNoneMode)
		c.SetCookie(cookieName, visitorID, maxAge, "/", strings.TrimSpace(cfg.CookieDomain), true, true)
		c.Writer.Header().Set(constants.VisitorTokenHeader, buildSignedVisitorToken(visitorID, cfg.SigningSecret))

		c.Set(visitorIDKey, visitorID)
		c.Next()
	}
}

func signVisitorID(visitorID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(visitorID))
	return hex.EncodeToString(mac.Sum(nil))
}

func buildSignedVisitorToken(visitorID, secret string) string {
	return visitorID + "." + signVisitorID(visitorID, secret)
}

func parseSignedVisitorToken(token, secret string) string {
	token = strings.TrimSpace(token)
	if token == "" {
		return ""
	}
	idx := strings.LastIndex(token, ".")
	if idx <= 0 || idx == len(token)-1 {
		return ""
	}
	visitorID := token[:idx]
	signature := token[idx+1:]
	expected := signVisitorID(visitorID, secret)
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return ""
	}
	return visitorID
}

// JWTAuthMiddleware 管理端 JWT 鉴权中间件
func JWTAuthMiddleware(secretKey string, adminRepo repository.AdminRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secretKey == "" || adminRepo == nil {
			abortUnauthorized(c, "error.unauthorized")
			return
		}
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "error.unauthorized")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			abortUnauthorized(c, "error.unauthorized")
			return
		}

		tokenString := parts[1]
		parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		claims := &service.JWTClaims{}
		token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(secretKey), nil
		})
		if err != nil || !token.Valid || claims.AdminID == 0 {
			abortUnauthorized(c, "error.unauthorized")
			return
		}

		admin, err := adminRepo.GetByID(claims.AdminID)
		if err != nil || admin == nil {
			abortUnauthorized(c, "error.unauthorized")
			return
		}

		c.Set("admin_id", claims.AdminID)
		c.Set("username", claims.Username)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, key string) {
	msg := i18n.T(i18n.ResolveLocale(c.GetHeader("Accept-Language")), key)
	response.Unauthorized(c, msg)
	c.Abort()
}
