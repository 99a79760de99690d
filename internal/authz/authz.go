package authz

// Actions on admin resources.
const (
	ActionCreate = "create"
	ActionRead   = "read"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Roles in ascending order of privilege.
const (
	RoleGuest   = "guest"
	RoleMember  = "member"
	RoleManager = "manager"
	RoleAdmin   = "admin"
)

// permissions is the static role -> resource -> actions table backing every
// permission check. It is data, not policy code: changing access means
// editing this table.
var permissions = map[string]map[string][]string{
	RoleGuest: {
		"products": {ActionRead},
	},
	RoleMember: {
		"products": {ActionRead},
		"orders":   {ActionCreate, ActionRead},
		"messages": {ActionCreate, ActionRead},
	},
	RoleManager: {
		"products": {ActionCreate, ActionRead, ActionUpdate},
		"orders":   {ActionRead, ActionUpdate},
		"messages": {ActionCreate, ActionRead, ActionUpdate},
		"users":    {ActionRead},
	},
	RoleAdmin: {
		"products": {ActionCreate, ActionRead, ActionUpdate, ActionDelete},
		"orders":   {ActionCreate, ActionRead, ActionUpdate, ActionDelete},
		"messages": {ActionCreate, ActionRead, ActionUpdate, ActionDelete},
		"users":    {ActionCreate, ActionRead, ActionUpdate, ActionDelete},
	},
}

// Can reports whether role may perform action on resource. Unknown roles,
// resources, and actions all deny.
func Can(role, resource, action string) bool {
	resources, ok := permissions[role]
	if !ok {
		return false
	}

	actions, ok := resources[resource]
	if !ok {
		return false
	}

	for _, a := range actions {
		if a == action {
			return true
		}
	}

	return false
}

// IsValidRole reports whether role is one of the predefined roles.
func IsValidRole(role string) bool {
	_, ok := permissions[role]
	return ok
}
