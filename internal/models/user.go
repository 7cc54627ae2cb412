package models

// Roles recognized by the chat subsystem.
const (
	RoleCustomer = "customer"
	RoleMerchant = "merchant"
)

// User is the authenticated identity attached to a connection. The chat
// server never creates users; identity arrives in externally issued tokens.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}
