package units

import (
	"github.com/emolog/emolog/internal/auth"
)

// ResolveAllowedUnits decides which units the principal may see
// analytics for.
//
// Callers with VIEW_ALL_UNITS_ANALYTICS see everything: with a requested
// unit the scope narrows to that unit, without one the empty slice is
// returned and means unrestricted.
//
// Callers with VIEW_UNIT_EMOTION_DASHBOARD and an assigned unit see
// their own unit and its direct children, one level deep. A requested
// unit outside that set is refused.
//
// Everyone else is refused.
func (s *Service) ResolveAllowedUnits(authz *auth.Service, principal *auth.Principal, requested *uint) ([]uint, error) {
	userID := principal.User.ID

	if principal.IsAdmin() {
		if requested != nil {
			return []uint{*requested}, nil
		}

		return []uint{}, nil
	}

	viewAll, err := authz.HasPermission(userID, auth.PermViewAllUnitsAnalytics)
	if err != nil {
		return nil, err
	}
	if viewAll {
		if requested != nil {
			return []uint{*requested}, nil
		}

		return []uint{}, nil
	}

	viewUnit, err := authz.HasPermission(userID, auth.PermViewUnitEmotionDashboard)
	if err != nil {
		return nil, err
	}
	if !viewUnit || principal.User.UnitID == nil {
		return nil, auth.ErrUnitAccessDenied
	}

	own := *principal.User.UnitID

	children, err := s.DirectChildren(own)
	if err != nil {
		return nil, err
	}

	allowed := append([]uint{own}, children...)

	if requested != nil {
		for _, id := range allowed {
			if id == *requested {
				return []uint{*requested}, nil
			}
		}

		return nil, auth.ErrUnitAccessDenied
	}

	return allowed, nil
}
