package models

// Roles recognized by the admin path.
const (
	RoleAdmin     = "admin"
	RoleEncargado = "encargado"
)

// AssignRoleRequest is the payload for the role-assignment endpoint.
type AssignRoleRequest struct {
	UserID string `json:"userId"`
}

// AssignRoleResponse is returned on a successful role assignment.
type AssignRoleResponse struct {
	Message string `json:"message"`
}
