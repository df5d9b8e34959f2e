package auth

// Principal is the authenticated requester. Admins may act on any booking;
// members only on their own.
type Principal struct {
	UserID int    `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// CanAccess reports whether the principal may read or modify a resource owned
// by ownerID.
func (p Principal) CanAccess(ownerID int) bool {
	return p.IsAdmin() || p.UserID == ownerID
}
