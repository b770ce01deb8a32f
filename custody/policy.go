/*
policy.go - Role to capability mapping

PURPOSE:
  A pure function from role to capability set, consulted by the registry
  before any mutating operation. The registry is the enforcement point;
  UI layers may consult the same table to hide controls, but hiding is
  not enforcement.

CAPABILITIES:
  canViewAll:     See every document regardless of involvement
  canUpload:      Create documents
  canApprove:     Approve/reject documents in review (and archive)
  canDelete:      Reserved; nothing in the engine deletes documents
  canManageUsers: Reserved for the directory
  canViewReports: Access dashboard statistics

FALLBACK:
  An unknown role maps to the HR permission set. This is a deliberate,
  logged policy decision rather than an error, because principals arrive
  from an external identity provider that may know roles this engine
  does not. The registry logs every fallback hit.

SEE ALSO:
  - registry.go: Consults PermissionsFor before each command
*/
package custody

// Permissions is the capability set granted to a role.
type Permissions struct {
	CanViewAll     bool
	CanUpload      bool
	CanApprove     bool
	CanDelete      bool
	CanManageUsers bool
	CanViewReports bool
}

// PermissionsFor maps a role to its capability set. The second return
// value reports whether the role was recognized; false means the HR
// fallback was applied and the caller should log the decision.
func PermissionsFor(role Role) (Permissions, bool) {
	switch role {
	case RoleAdmin:
		return Permissions{
			CanViewAll:     true,
			CanUpload:      true,
			CanApprove:     true,
			CanDelete:      true,
			CanManageUsers: true,
			CanViewReports: true,
		}, true
	case RoleHR:
		return Permissions{
			CanUpload:      true,
			CanApprove:     true,
			CanViewReports: true,
		}, true
	case RoleAccounting:
		return Permissions{
			CanUpload:      true,
			CanApprove:     true,
			CanViewReports: true,
		}, true
	case RoleAudit:
		return Permissions{
			CanViewAll:     true,
			CanViewReports: true,
		}, true
	default:
		// Unknown role: HR permission set, reported via ok=false so the
		// registry can log the fallback.
		return Permissions{
			CanUpload:      true,
			CanApprove:     true,
			CanViewReports: true,
		}, false
	}
}
