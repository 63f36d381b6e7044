// Package actor resolves the opaque "current actor" attached to a
// request: a name and a role, nothing more. Identity management lives
// outside this service; callers present either a signed actor token or
// plain headers.
package actor

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/maintenance-service/pkg/util"
)

const principalKey = "actor_principal"

// Role identifies the viewer kind a client session represents.
type Role string

const (
	RoleResident   Role = "RESIDENT"
	RoleAdmin      Role = "ADMIN"
	RoleTechnician Role = "TECHNICIAN"
)

// Principal is the caller as this service knows them.
type Principal struct {
	Name string
	Role Role
}

// Middleware extracts the current actor from the request. A bearer
// token wins; the X-Actor-Name/X-Actor-Role headers are the fallback.
// Requests with neither proceed anonymously: the service itself does
// not gate on identity.
type Middleware struct {
	tokens *TokenManager
}

// NewMiddleware constructs middleware.
func NewMiddleware(tokens *TokenManager) *Middleware {
	return &Middleware{tokens: tokens}
}

// Handle resolves the principal and stores it on the request context.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	if token, ok := bearerToken(c); ok {
		claims, err := m.tokens.ParseToken(token)
		if err != nil {
			return apperrors.NewUnauthorized("invalid actor token")
		}
		c.Locals(principalKey, &Principal{Name: claims.Name, Role: claims.Role})
		return c.Next()
	}

	if name := c.Get("X-Actor-Name"); name != "" {
		c.Locals(principalKey, &Principal{
			Name: name,
			Role: Role(c.Get("X-Actor-Role", string(RoleResident))),
		})
	}
	return c.Next()
}

// FromContext retrieves the resolved actor, if any.
func FromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

func bearerToken(c *fiber.Ctx) (string, bool) {
	header := c.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) {
		return "", false
	}
	if header[:len(prefix)] != prefix {
		return "", false
	}
	return header[len(prefix):], true
}
