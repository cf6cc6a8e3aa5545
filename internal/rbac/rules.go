package rbac

// Simple default policy. Expand as needed.
var RolePermissions = map[string][]string{
	"student": {
		"lesson:view",
		"session:view-own",
		"user:change_password",
	},
	"grader": {
		"lesson:view",
		"lesson:edit",
		"session:view-all",
		"session:grade",
		"user:change_password",
	},
	"admin": {
		"*", // everything
	},
}
