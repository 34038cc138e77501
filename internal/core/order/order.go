// Package order defines the read-only view of a customer order as reported by
// the server, and the status vocabulary the reconciler diffs against.
package order

// Status is the lifecycle state of an order.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusPreparing  Status = "preparing"
	StatusDelivering Status = "delivering"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// IsActive reports whether the order is still in progress.
func (s Status) IsActive() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusPreparing, StatusDelivering:
		return true
	}
	return false
}

// IsTerminal reports whether the order has reached completed or cancelled.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Order is the subset of the server order representation this client reads.
// The server is the source of truth; nothing here mutates it.
type Order struct {
	ID         int64  `json:"id"`
	Status     Status `json:"status"`
	ETAMinutes *int   `json:"eta_minutes,omitempty"`
}

// AnyActive reports whether at least one order has an active status.
// An empty slice has no active orders.
func AnyActive(orders []Order) bool {
	for _, o := range orders {
		if o.Status.IsActive() {
			return true
		}
	}
	return false
}
