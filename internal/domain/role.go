package domain

// Role type to distinguish caller roles. Identity and role arrive from the
// external authorization layer (JWT claims); this service only gates on them.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTrainer Role = "trainer"
	RoleMember  Role = "member"
)
