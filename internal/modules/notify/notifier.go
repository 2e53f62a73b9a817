// README: Notification gateway contract and event payloads.
package notify

import (
	"context"

	"github.com/AKULA-V-S-S-V-D-DURGAPRASAD/furryhubtail-backend/internal/types"
)

type Kind string

const (
	KindBookingConfirmed           Kind = "booking_confirmed"
	KindBookingCancelledByCustomer Kind = "booking_cancelled_by_customer"
	KindBookingCancelledByProvider Kind = "booking_cancelled_by_provider"
	KindBookingCompleted           Kind = "booking_completed"
	KindProviderCancelAck          Kind = "provider_cancel_ack"
)

// Event carries everything a delivery channel needs to compose a message.
// OTP is set only for KindBookingConfirmed.
type Event struct {
	Kind           Kind
	BookingID      types.ID
	RecipientName  string
	RecipientPhone string
	ProviderPhone  string
	OTP            string
}

// Gateway delivers booking notifications. Callers treat delivery as
// fire-and-forget: a returned error is logged at the call site and never
// affects the booking transition that triggered it.
type Gateway interface {
	Notify(ctx context.Context, e Event) error
}

// NopGateway discards every event. Used in tests and when no SMS relay
// is configured.
type NopGateway struct{}

func (NopGateway) Notify(context.Context, Event) error { return nil }
