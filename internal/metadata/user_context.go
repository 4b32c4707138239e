package metadata

// UserContext represents the authenticated caller, set by the identity
// middleware before requests reach the entity routes.
type UserContext struct {
	ID       string `json:"id"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role"`
	TenantID string `json:"tenant_id,omitempty"`
}

// adminRoles may use the back-office.
var adminRoles = map[string]bool{
	"admin":       true,
	"super_admin": true,
}

// IsAdmin checks whether the caller holds a back-office role.
func (u *UserContext) IsAdmin() bool {
	return u != nil && adminRoles[u.Role]
}
