package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/deskops/sla-service/internal/domain"
	apperrors "github.com/deskops/sla-service/pkg/util/errorutil"
)

// RequireStaffRole ensures the staff principal has one of the allowed roles.
// Service principals pass so external schedulers can drive admin operations.
func RequireStaffRole(allowed ...domain.StaffRole) fiber.Handler {
	allowedSet := make(map[domain.StaffRole]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if principal.SubjectType == domain.SubjectTypeService {
			return c.Next()
		}
		if principal.SubjectType != domain.SubjectTypeStaff || principal.Role == nil {
			return apperrors.NewForbidden("staff role required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[*principal.Role]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// RequireAnyRole ensures caller is authenticated.
func RequireAnyRole() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}
