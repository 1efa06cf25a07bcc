package game

// Node is one step of the infiltration ladder: it is cleared after
// RequiredHacks correct operator actions. Nodes are immutable once the
// session is created; the JSON tags are the §6 wire shape for the
// snapshot's map field.
type Node struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	RequiredHacks int    `json:"required_hacks"`
}

// Role identifies which side of the session a connection fills. Roles are
// assigned implicitly by the endpoint the client connects to.
type Role string

const (
	// RoleOperator issues terminal commands that drive puzzle validation.
	RoleOperator Role = "operator"
	// RoleAgent observes infiltration progress through the dashboard.
	RoleAgent Role = "agent"
)

// Valid reports whether r is one of the two known roles.
func (r Role) Valid() bool {
	return r == RoleOperator || r == RoleAgent
}

// Partner returns the opposite role.
func (r Role) Partner() Role {
	if r == RoleOperator {
		return RoleAgent
	}
	return RoleOperator
}
