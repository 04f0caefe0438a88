package rbac

// Simple default policy. Expand as needed.
var RolePermissions = map[string][]string{
	"student": {
		"session:create",
		"session:answer",
		"session:submit",
		"session:view-own",
		"document:view",
		"theory:practice",
	},
	"teacher": {
		"session:*",
		"document:*",
		"theory:practice",
		"result:view-all",
	},
	"admin": {
		"*", // everything
	},
}
