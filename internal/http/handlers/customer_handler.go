// README: Customer-facing booking handlers.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AKULA-V-S-S-V-D-DURGAPRASAD/furryhubtail-backend/internal/http/middleware"
	"github.com/AKULA-V-S-S-V-D-DURGAPRASAD/furryhubtail-backend/internal/modules/booking"
	"github.com/AKULA-V-S-S-V-D-DURGAPRASAD/furryhubtail-backend/internal/modules/directory"
	"github.com/AKULA-V-S-S-V-D-DURGAPRASAD/furryhubtail-backend/internal/types"
)

type CustomerHandler struct {
	booking   *booking.Service
	directory *directory.Service
}

func NewCustomerHandler(b *booking.Service, d *directory.Service) *CustomerHandler {
	return &CustomerHandler{booking: b, directory: d}
}

type bookingResponse struct {
	ID          types.ID    `json:"id"`
	Status      string      `json:"status"`
	PackageID   types.ID    `json:"package_id"`
	ProviderID  *types.ID   `json:"provider_id,omitempty"`
	BookingDate time.Time   `json:"booking_date"`
	Location    *pointDTO   `json:"location,omitempty"`
	TotalPrice  priceDTO    `json:"total_price"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
}

type pointDTO struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type priceDTO struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// toBookingResponse never exposes the OTP: the customer receives it over
// SMS and the provider must obtain it in person.
func toBookingResponse(b *booking.Booking) bookingResponse {
	resp := bookingResponse{
		ID:          b.ID,
		Status:      string(b.Status),
		PackageID:   b.PackageID,
		ProviderID:  b.ProviderID,
		BookingDate: b.BookingDate,
		TotalPrice:  priceDTO{Amount: b.TotalPrice.Amount, Currency: b.TotalPrice.Currency},
		CompletedAt: b.CompletedAt,
	}
	if b.Location != nil {
		resp.Location = &pointDTO{Lat: b.Location.Lat, Lng: b.Location.Lng}
	}
	return resp
}

type createBookingReq struct {
	PackageID string `json:"package_id"`
}

func (h *CustomerHandler) CreateBooking(c *gin.Context) {
	var req createBookingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.PackageID == "" {
		writeError(c, http.StatusBadRequest, "package_id is required")
		return
	}
	b, err := h.booking.Create(c.Request.Context(), booking.CreateCommand{
		CustomerEmail: middleware.CallerEmail(c),
		PackageID:     types.ID(req.PackageID),
	})
	if err != nil {
		writeBookingError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, toBookingResponse(b))
}

func (h *CustomerHandler) ListBookings(c *gin.Context) {
	list, err := h.booking.ListForCustomer(c.Request.Context(), middleware.CallerEmail(c))
	if err != nil {
		writeBookingError(c, err)
		return
	}
	out := make([]bookingResponse, 0, len(list))
	for _, b := range list {
		out = append(out, toBookingResponse(b))
	}
	writeJSON(c, http.StatusOK, gin.H{"bookings": out})
}

func (h *CustomerHandler) CancelBooking(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		writeError(c, http.StatusBadRequest, "missing booking id")
		return
	}
	b, err := h.booking.CancelByCustomer(c.Request.Context(), booking.CancelByCustomerCommand{
		BookingID:     types.ID(id),
		CustomerEmail: middleware.CallerEmail(c),
	})
	if err != nil {
		writeBookingError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toBookingResponse(b))
}

type updateAddressReq struct {
	Address string `json:"address"`
}

func (h *CustomerHandler) UpdateAddress(c *gin.Context) {
	var req updateAddressReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Address == "" {
		writeError(c, http.StatusBadRequest, "address is required")
		return
	}
	err := h.directory.UpdateCustomerAddress(c.Request.Context(), middleware.CallerEmail(c), req.Address)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			writeError(c, http.StatusNotFound, "customer not found")
			return
		}
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": "updated"})
}
