package agency

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/realty/internal/common"
	"github.com/dmitrijs2005/realty/internal/services/authz"
)

// Command is a privileged agency action. Each command is gated by exactly
// one permission.
type Command int

const (
	CommandViewProperties Command = iota + 1
	CommandAddProperty
	CommandRemoveProperty
	CommandManageUsers
	CommandManagePermissions
)

// Permission returns the permission name gating c.
func (c Command) Permission() string {
	switch c {
	case CommandViewProperties:
		return authz.PermissionViewProperties
	case CommandAddProperty:
		return authz.PermissionAddEntry
	case CommandRemoveProperty:
		return authz.PermissionDeleteEntries
	case CommandManageUsers:
		return authz.PermissionManageUsers
	case CommandManagePermissions:
		return authz.PermissionManagePermissions
	default:
		return ""
	}
}

func (c Command) String() string {
	switch c {
	case CommandViewProperties:
		return "view"
	case CommandAddProperty:
		return "add"
	case CommandRemoveProperty:
		return "remove"
	case CommandManageUsers:
		return "users"
	case CommandManagePermissions:
		return "permissions"
	default:
		return fmt.Sprintf("Command(%d)", int(c))
	}
}

// ParseCommand maps a command word to its Command.
func ParseCommand(s string) (Command, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "view":
		return CommandViewProperties, nil
	case "add":
		return CommandAddProperty, nil
	case "remove":
		return CommandRemoveProperty, nil
	case "users":
		return CommandManageUsers, nil
	case "permissions":
		return CommandManagePermissions, nil
	default:
		return 0, fmt.Errorf("%w: unknown command %q", common.ErrValidation, s)
	}
}
