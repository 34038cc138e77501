package order

import "fmt"

// Message renders the user-facing text announcing that o reached its current
// status. The boolean is false for statuses that have no announcement
// (pending, or anything unknown).
func Message(o Order) (string, bool) {
	switch o.Status {
	case StatusConfirmed:
		msg := fmt.Sprintf("Zamówienie #%d potwierdzone!", o.ID)
		if o.ETAMinutes != nil && *o.ETAMinutes != 0 {
			msg += fmt.Sprintf(" Szacowany czas: %d min.", *o.ETAMinutes)
		}
		return msg, true
	case StatusPreparing:
		return fmt.Sprintf("Zamówienie #%d jest w przygotowaniu.", o.ID), true
	case StatusDelivering:
		return fmt.Sprintf("Zamówienie #%d jest w drodze! 🛵", o.ID), true
	case StatusCompleted:
		return fmt.Sprintf("Zamówienie #%d zostało zrealizowane. Smacznego!", o.ID), true
	case StatusCancelled:
		return fmt.Sprintf("Zamówienie #%d zostało anulowane.", o.ID), true
	}
	return "", false
}
