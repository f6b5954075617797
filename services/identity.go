package services

import "smartorder/entity"

// Identity is the caller as seen by the services. A nil UserID is a guest.
type Identity struct {
	UserID *uint
	Role   string
}

func Guest() Identity { return Identity{} }

func User(id uint, role string) Identity { return Identity{UserID: &id, Role: role} }

func (i Identity) Authenticated() bool { return i.UserID != nil && *i.UserID != 0 }

func (i Identity) IsStaff() bool {
	return i.Authenticated() && (i.Role == entity.RoleChef || i.Role == entity.RoleAdmin)
}

func (i Identity) IsAdmin() bool { return i.Authenticated() && i.Role == entity.RoleAdmin }

// canView applies the order read rule: guest orders are open to anyone
// holding the id, owned orders only to their owner and to staff.
func (i Identity) canView(o *entity.Order) error {
	if o.UserID == nil || i.IsStaff() {
		return nil
	}
	if !i.Authenticated() {
		return ErrUnauthorized
	}
	if !o.OwnedBy(*i.UserID) {
		return ErrForbidden
	}
	return nil
}
