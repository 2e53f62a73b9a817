// README: SMS gateway delivering booking notifications through an HTTP relay.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type SMSGateway struct {
	apiURL string
	apiKey string
	sender string
	client *http.Client
}

func NewSMSGateway(apiURL, apiKey, sender string) *SMSGateway {
	return &SMSGateway{
		apiURL: apiURL,
		apiKey: apiKey,
		sender: sender,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type smsRequest struct {
	To      string `json:"to"`
	Sender  string `json:"sender"`
	Message string `json:"message"`
}

func (g *SMSGateway) Notify(ctx context.Context, e Event) error {
	if e.RecipientPhone == "" {
		return fmt.Errorf("no recipient phone for booking %s", e.BookingID)
	}
	payload := smsRequest{
		To:      e.RecipientPhone,
		Sender:  g.sender,
		Message: composeMessage(e),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.apiURL, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sms relay returned %d: %s", resp.StatusCode, string(b))
	}
	return nil
}

func composeMessage(e Event) string {
	switch e.Kind {
	case KindBookingConfirmed:
		return fmt.Sprintf(
			"Dear %s, your booking %s has been accepted by a FurryHub provider (%s). Share OTP %s with the provider once the service is done. Thank you for choosing FurryHub!",
			e.RecipientName, e.BookingID, e.ProviderPhone, e.OTP)
	case KindBookingCancelledByCustomer:
		return fmt.Sprintf(
			"Dear %s, your booking %s has been cancelled. Thank you for choosing FurryHub!",
			e.RecipientName, e.BookingID)
	case KindBookingCancelledByProvider:
		return fmt.Sprintf(
			"Dear %s, your booking %s has been cancelled by your FurryHub provider. We apologize for the inconvenience.",
			e.RecipientName, e.BookingID)
	case KindProviderCancelAck:
		return fmt.Sprintf(
			"Dear %s, you have cancelled booking %s. The customer has been notified.",
			e.RecipientName, e.BookingID)
	case KindBookingCompleted:
		return fmt.Sprintf(
			"Dear %s, your booking %s has been completed by your FurryHub provider (%s). Thank you for choosing FurryHub!",
			e.RecipientName, e.BookingID, e.ProviderPhone)
	default:
		return fmt.Sprintf("Dear %s, there is an update on your booking %s.", e.RecipientName, e.BookingID)
	}
}
