package session

import (
	"errors"

	"github.com/campuscare/backend/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrNoIdentity = errors.New("no authenticated identity in request context")

// identityKey is the Fiber locals key for an Identity resolved by middleware.
const identityKey = "identity"

// Identity is the authenticated caller, extracted per request from the
// verified JWT. It is passed explicitly to services; there is no
// process-wide auth state.
type Identity struct {
	UserID   uuid.UUID
	Email    string
	Username string
	Role     string
}

func (i *Identity) IsAdmin() bool {
	return i.Role == models.RoleAdmin
}

// Store pins a resolved Identity on the request so later lookups get it
// instead of re-reading the token claims. Middleware that grants a role
// beyond what the token carries must store the upgraded Identity here.
func Store(c *fiber.Ctx, ident *Identity) {
	c.Locals(identityKey, ident)
}

// FromContext returns the Identity stored by middleware, falling back to
// the claims of the JWT the auth middleware put in Fiber locals.
func FromContext(c *fiber.Ctx) (*Identity, error) {
	if ident, ok := c.Locals(identityKey).(*Identity); ok && ident != nil {
		return ident, nil
	}

	token, ok := c.Locals("user").(*jwt.Token)
	if !ok || token == nil {
		return nil, ErrNoIdentity
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrNoIdentity
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return nil, ErrNoIdentity
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, ErrNoIdentity
	}

	email, _ := claims["email"].(string)
	username, _ := claims["username"].(string)
	role, _ := claims["role"].(string)
	if role == "" {
		role = models.RoleUser
	}

	return &Identity{
		UserID:   userID,
		Email:    email,
		Username: username,
		Role:     role,
	}, nil
}
