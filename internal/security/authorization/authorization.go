package authorization

import (
	"fmt"
	"log/slog"
)

// Role represents a user role
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Permission represents an action permission
type Permission string

const (
	PermViewWardrobe   Permission = "view_wardrobe"
	PermManageOutfits  Permission = "manage_outfits"
	PermViewCatalog    Permission = "view_catalog"
	PermImportCatalog  Permission = "import_catalog"
	PermAssignClothing Permission = "assign_clothing"
	PermResetData      Permission = "reset_data"
	PermAdminManage    Permission = "admin_manage"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleAdmin: {
		PermViewWardrobe,
		PermManageOutfits,
		PermViewCatalog,
		PermImportCatalog,
		PermAssignClothing,
		PermResetData,
		PermAdminManage,
	},
	RoleUser: {
		PermViewWardrobe,
		PermManageOutfits,
		PermViewCatalog,
	},
}

// Authorizer handles authorization checks. Role assignment is by
// username: the configured admin account gets RoleAdmin, everyone
// else RoleUser.
type Authorizer struct {
	adminUsername string
	logger        *slog.Logger
}

// NewAuthorizer creates a new authorizer
func NewAuthorizer(adminUsername string, logger *slog.Logger) *Authorizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Authorizer{
		adminUsername: adminUsername,
		logger:        logger,
	}
}

// RoleFor returns the role held by the named user
func (a *Authorizer) RoleFor(username string) Role {
	if username != "" && username == a.adminUsername {
		return RoleAdmin
	}
	return RoleUser
}

// Can checks if a role has a specific permission
func (a *Authorizer) Can(role Role, permission Permission) bool {
	permissions, exists := RolePermissions[role]
	if !exists {
		return false
	}
	for _, p := range permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// Require validates that a role has a specific permission
func (a *Authorizer) Require(role Role, permission Permission) error {
	if !a.Can(role, permission) {
		a.logger.Warn("permission denied",
			slog.String("role", string(role)),
			slog.String("permission", string(permission)),
		)
		return fmt.Errorf("permission denied: %s role cannot %s", role, permission)
	}
	return nil
}
