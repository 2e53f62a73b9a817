// README: Booking aggregate, fan-out request records and status definitions.
package booking

import (
	"time"

	"github.com/AKULA-V-S-S-V-D-DURGAPRASAD/furryhubtail-backend/internal/types"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
)

type RequestStatus string

const (
	RequestPending  RequestStatus = "PENDING"
	RequestAccepted RequestStatus = "ACCEPTED"
	RequestRejected RequestStatus = "REJECTED"
	RequestExpired  RequestStatus = "EXPIRED"
)

// Booking is one customer's request for a package. ProviderID is set
// exactly once, by the winning confirm. TotalPrice and Location are
// snapshots taken at creation and never track later changes.
type Booking struct {
	ID            types.ID
	CustomerID    types.ID
	PackageID     types.ID
	ProviderID    *types.ID
	Status        Status
	StatusVersion int
	BookingDate   time.Time
	Location      *types.Point
	TotalPrice    types.Money
	OTP           *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	CompletedAt   *time.Time
}

// Request is one offer of a booking to one provider. At most one row
// exists per (booking, provider) pair.
type Request struct {
	ID          types.ID
	BookingID   types.ID
	ProviderID  types.ID
	RequestedAt time.Time
	Status      RequestStatus
}

// AllowedTransitions represents the booking state flow as code.
// CANCELLED and COMPLETED are terminal.
var AllowedTransitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}
