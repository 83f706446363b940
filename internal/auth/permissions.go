package auth

const (
	PermManageUsers   = "users.manage"
	PermManageRoles   = "roles.manage"
	PermManageBilling = "billing.manage"
	PermReadAudit     = "audit.read"
)

// BuiltinPermissions is the catalog ensured at startup. Roles may only
// reference keys present here; that referential check happens at
// role-mutation time, not on the request path.
var BuiltinPermissions = []Permission{
	{Key: PermManageUsers, Description: "Manage users and team membership"},
	{Key: PermManageRoles, Description: "Manage roles and permission grants"},
	{Key: PermManageBilling, Description: "Manage subscriptions, invoices and payment methods"},
	{Key: PermReadAudit, Description: "Read the audit log"},
}
