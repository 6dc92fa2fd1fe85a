package rbac

// Authorize is the one authorization policy applied by every gate in the
// portal: hierarchical, role >= required under the total order
// Employee < HR Manager < Admin. Invalid roles never satisfy any
// requirement.
func Authorize(role, required Role) bool {
	rr, ok := rank[role]
	if !ok {
		return false
	}
	need, ok := rank[required]
	if !ok {
		return false
	}
	return rr >= need
}
