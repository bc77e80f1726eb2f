package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/docflow/review-service/internal/access"
	ierr "github.com/docflow/review-service/internal/errors"
	"github.com/docflow/review-service/internal/models"
	"github.com/gin-gonic/gin"
)

const (
	claimsKey = "claims"
	actorKey  = "actor"
)

// Token is minimal interface for a verified token that can expose claims
type Token interface {
	Claims(v interface{}) error
}

// Verifier is the minimal interface the middleware depends on
type Verifier interface {
	Verify(ctx context.Context, raw string) (Token, error)
}

// AuthMiddleware verifies Bearer tokens with ver and stores the resulting
// models.Actor in the gin context. Claims stay available under "claims".
func AuthMiddleware(ver Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing Authorization header"})
			return
		}
		scheme, token, ok := strings.Cut(auth, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid Authorization header"})
			return
		}

		verified, err := ver.Verify(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		var claims map[string]interface{}
		if err := verified.Claims(&claims); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "failed to parse claims"})
			return
		}
		actor, ok := ActorFromClaims(claims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token has no subject"})
			return
		}

		c.Set(claimsKey, claims)
		c.Set(actorKey, actor)
		c.Next()
	}
}

// ActorFromClaims maps token claims onto an Actor. The role comes from a
// "role" string, a "roles" list or Keycloak's realm_access.roles, whichever
// grants the most. It reports false when "sub" is missing.
func ActorFromClaims(claims map[string]interface{}) (models.Actor, bool) {
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return models.Actor{}, false
	}
	var roles []string
	if r, ok := claims["role"].(string); ok {
		roles = append(roles, r)
	}
	roles = append(roles, stringList(claims["roles"])...)
	if ra, ok := claims["realm_access"].(map[string]interface{}); ok {
		roles = append(roles, stringList(ra["roles"])...)
	}
	actor := models.Actor{ID: sub, Role: models.HighestRole(roles)}
	actor.Email, _ = claims["email"].(string)
	actor.Name, _ = claims["name"].(string)
	if actor.Name == "" {
		actor.Name, _ = claims["preferred_username"].(string)
	}
	return actor, true
}

func stringList(v interface{}) []string {
	switch vals := v.(type) {
	case []string:
		return vals
	case []interface{}:
		out := make([]string, 0, len(vals))
		for _, x := range vals {
			if s, ok := x.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// CurrentActor returns the actor stored by AuthMiddleware.
func CurrentActor(c *gin.Context) (models.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return models.Actor{}, false
	}
	a, ok := v.(models.Actor)
	return a, ok
}

// SetActor stores an actor in the context. Used by tests and trusted gateways.
func SetActor(c *gin.Context, a models.Actor) {
	c.Set(actorKey, a)
}

// RequireCapability rejects actors whose role lacks capability with 403.
func RequireCapability(capability access.Capability, hint string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := CurrentActor(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		if !access.Can(actor.Role, capability) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": hint, "code": ierr.ErrCodeForbidden})
			return
		}
		c.Next()
	}
}

// rateKey prefers the authenticated subject and falls back to the client IP.
func rateKey(c *gin.Context) string {
	if a, ok := CurrentActor(c); ok && a.ID != "" {
		return "sub:" + a.ID
	}
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	return "ip:" + ip
}

// Verifiers tries each verifier in order and accepts the first success.
type Verifiers []Verifier

func (vs Verifiers) Verify(ctx context.Context, raw string) (Token, error) {
	if len(vs) == 0 {
		return nil, errors.New("no token verifier configured")
	}
	var errs []error
	for _, v := range vs {
		tok, err := v.Verify(ctx, raw)
		if err == nil {
			return tok, nil
		}
		errs = append(errs, err)
	}
	return nil, errors.Join(errs...)
}
