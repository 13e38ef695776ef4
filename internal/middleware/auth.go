package middleware

import (
	"crypto/rsa"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"anoa.com/authorhub/internal/config"
	"anoa.com/authorhub/internal/entity"
	"anoa.com/authorhub/pkg/response"
)

const (
	msgMissingToken = "Không có quyền truy cập - Thiếu token"
	msgInvalidToken = "Token không hợp lệ hoặc đã hết hạn"
	msgInvalidRole  = "Vai trò không hợp lệ"
	msgAccessDenied = "Truy cập bị từ chối: Bạn không có quyền thực hiện hành động này"
)

// AccessClaims is the token payload issued by the identity provider.
type AccessClaims struct {
	Role  string `json:"custom:role,omitempty"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

type AuthMiddleware struct {
	render  *response.Renderer
	keyFunc jwt.Keyfunc
	parser  *jwt.Parser
}

// NewAuthMiddleware verifies RS256 tokens when a public key is configured and
// HS256 tokens signed with the shared secret otherwise.
func NewAuthMiddleware(cfg config.AuthConfig, render *response.Renderer) (*AuthMiddleware, error) {
	opts := []jwt.ParserOption{jwt.WithExpirationRequired()}
	if cfg.JWTIssuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.JWTIssuer))
	}
	if cfg.JWTAudience != "" {
		opts = append(opts, jwt.WithAudience(cfg.JWTAudience))
	}

	var keyFunc jwt.Keyfunc
	switch {
	case cfg.JWTPublicKey != "":
		pub, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.JWTPublicKey))
		if err != nil {
			return nil, fmt.Errorf("parse JWT_PUBLIC_KEY: %w", err)
		}
		opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
		keyFunc = rsaKey(pub)
	case cfg.JWTSecret != "":
		opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		secret := []byte(cfg.JWTSecret)
		keyFunc = func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return secret, nil
		}
	default:
		return nil, fmt.Errorf("no token verification key configured")
	}

	return &AuthMiddleware{
		render:  render,
		keyFunc: keyFunc,
		parser:  jwt.NewParser(opts...),
	}, nil
}

func rsaKey(pub *rsa.PublicKey) jwt.Keyfunc {
	return func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return pub, nil
	}
}

// RequireAuth resolves the caller from the bearer token and stores it under response.CallerKey.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		authHeader := c.GetHeader("Authorization")

		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
				tokenString = parts[1]
			}
		}

		// Fallback to query parameter "token" (useful for WebSockets)
		if tokenString == "" {
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			m.render.Fail(c, http.StatusUnauthorized, msgMissingToken)
			return
		}

		claims := &AccessClaims{}
		token, err := m.parser.ParseWithClaims(tokenString, claims, m.keyFunc)
		if err != nil || !token.Valid || claims.Subject == "" {
			m.render.Fail(c, http.StatusUnauthorized, msgInvalidToken)
			return
		}

		role := entity.RoleUser
		if claims.Role != "" {
			role, err = entity.ParseRole(claims.Role)
			if err != nil {
				m.render.Fail(c, http.StatusUnauthorized, msgInvalidRole)
				return
			}
		}

		c.Set(response.CallerKey, entity.Caller{
			ExternalID: claims.Subject,
			Role:       role,
			Email:      claims.Email,
			Name:       claims.Name,
		})
		c.Next()
	}
}

// RequireRoles must run after RequireAuth.
func (m *AuthMiddleware) RequireRoles(roles ...entity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, err := response.GetCaller(c)
		if err != nil {
			m.render.Error(c, err)
			return
		}

		for _, role := range roles {
			if caller.Role == role {
				c.Next()
				return
			}
		}

		m.render.Fail(c, http.StatusForbidden, msgAccessDenied)
	}
}
