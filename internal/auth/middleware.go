package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/deskops/sla-service/internal/domain"
	"github.com/deskops/sla-service/internal/events"
	apperrors "github.com/deskops/sla-service/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller as asserted by its token.
type Principal struct {
	SubjectID   string
	SubjectType domain.SubjectType
	Role        *domain.StaffRole
}

// Actor converts the principal into event actor metadata.
func (p *Principal) Actor() events.Actor {
	id := p.SubjectID
	return events.Actor{Type: p.SubjectType, ID: &id}
}

// AuthMiddleware validates bearer tokens.
type AuthMiddleware struct {
	tokens *TokenManager
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	switch claims.SubjectType {
	case domain.SubjectTypeUser, domain.SubjectTypeStaff, domain.SubjectTypeService:
	default:
		return apperrors.NewUnauthorized("unknown subject")
	}

	c.Locals(principalKey, &Principal{
		SubjectID:   claims.Subject,
		SubjectType: claims.SubjectType,
		Role:        claims.Role,
	})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
