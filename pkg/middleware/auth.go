package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	staffIDKey   = "staff_id"
	usernameKey  = "username"
	staffRoleKey = "staff_role"
)

// StaffClaims는 인증 서버가 발급한 토큰의 클레임.
// 이 서비스는 토큰을 검증만 하고 권한 관리는 하지 않는다.
type StaffClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Auth는 Bearer 토큰을 검증하고 직원 식별 정보를 컨텍스트에 넣는다.
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Please authenticate"})
			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")

		claims := &StaffClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid || claims.Subject == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Please authenticate"})
			return
		}

		c.Set(staffIDKey, claims.Subject)
		c.Set(usernameKey, claims.Username)
		c.Set(staffRoleKey, claims.Role)
		c.Next()
	}
}

// RequireRole은 특정 역할 전용 라우트 가드 (상품 관리 등).
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(staffRoleKey) != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied"})
			return
		}
		c.Next()
	}
}

// StaffID는 인증 미들웨어가 넣어둔 직원 ID.
func StaffID(c *gin.Context) string {
	return c.GetString(staffIDKey)
}
