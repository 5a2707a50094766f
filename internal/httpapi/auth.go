package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/yungbote/founderflow-backend/internal/config"
	"github.com/yungbote/founderflow-backend/internal/platform/ctxutil"
	"github.com/yungbote/founderflow-backend/internal/platform/logger"
)

var errMissingToken = errors.New("missing or invalid token")

type authMiddleware struct {
	log    *logger.Logger
	secret []byte
	issuer string
}

func newAuthMiddleware(log *logger.Logger, cfg config.AuthConfig) *authMiddleware {
	return &authMiddleware{
		log:    log.With("middleware", "AuthMiddleware"),
		secret: []byte(cfg.JWTSecret),
		issuer: strings.TrimSpace(cfg.Issuer),
	}
}

// RequireAuth accepts HS256 bearer tokens. The subject is attached to the
// request's trace data for logging.
func (am *authMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := extractToken(c)
		if raw == "" {
			am.reject(c, errMissingToken)
			return
		}
		sub, err := am.verify(raw)
		if err != nil {
			am.log.Debug("token rejected", "error", err)
			am.reject(c, err)
			return
		}
		if td := ctxutil.GetTraceData(c.Request.Context()); td != nil {
			td.Subject = sub
		}
		c.Next()
	}
}

func (am *authMiddleware) verify(raw string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if am.issuer != "" {
		opts = append(opts, jwt.WithIssuer(am.issuer))
	}
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return am.secret, nil
	}, opts...)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

func (am *authMiddleware) reject(c *gin.Context, _ error) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, errorEnvelope{Error: errorBody{
		Message: errMissingToken.Error(),
		Code:    "unauthorized",
	}})
}

// extractToken reads the bearer header, falling back to ?token= for
// EventSource clients that cannot set headers.
func extractToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return strings.TrimSpace(c.Query("token"))
}
