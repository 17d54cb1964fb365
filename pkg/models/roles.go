package models

// Reserved agent identifiers used by the coordination layer.
const (
	// SourceUser is the reserved source id for human-originated traffic.
	SourceUser = "user"
	// TargetBroadcast is the sentinel target that fans a message out to
	// every registered agent except the sender.
	TargetBroadcast = "broadcast"
)

// Agent role identifiers for the standard team fleet.
const (
	// RoleProjectManager owns scope and requirement decisions.
	RoleProjectManager = "project_manager"
	// RoleArchitect owns design and schema decisions.
	RoleArchitect = "solution_architect"
	// RoleDeveloper implements code deliverables.
	RoleDeveloper = "developer"
	// RoleQA verifies deliverables and investigates defects.
	RoleQA = "qa_test"
	// RoleScrumMaster is the human-facing role; all approvals route through it.
	RoleScrumMaster = "scrum_master"
	// RoleTeamLead receives checkpoint notifications and escalations.
	RoleTeamLead = "team_lead"
)

// DefaultRoles returns the standard fleet roles in registration order.
func DefaultRoles() []string {
	return []string{
		RoleProjectManager,
		RoleArchitect,
		RoleDeveloper,
		RoleQA,
		RoleScrumMaster,
		RoleTeamLead,
	}
}

// RouteMultiple is the routing destination used when feedback concerns more
// than one component owner and no single role can absorb it.
const RouteMultiple = "multiple"
