package model

// Mailbox account status constants.
const (
	StatusPending      = "pending"
	StatusProvisioning = "provisioning"
	StatusActive       = "active"
	StatusFailed       = "failed"
	StatusSuspended    = "suspended"
)

// CanTransition reports whether moving an account from one status to
// another is a legal lifecycle edge. Deletion is not a status: rows are
// removed outright, so it never appears here.
func CanTransition(from, to string) bool {
	switch from {
	case StatusPending:
		return to == StatusProvisioning
	case StatusProvisioning:
		return to == StatusActive || to == StatusFailed
	case StatusActive:
		return to == StatusSuspended
	case StatusSuspended:
		return to == StatusActive
	case StatusFailed:
		// Only an operator retry re-enters the pipeline.
		return to == StatusProvisioning
	}
	return false
}

// CountsAgainstQuota reports whether an account in the given status
// occupies a mailbox slot. Failed accounts hold no remote resources and
// are excluded.
func CountsAgainstQuota(status string) bool {
	switch status {
	case StatusPending, StatusProvisioning, StatusActive, StatusSuspended:
		return true
	}
	return false
}
