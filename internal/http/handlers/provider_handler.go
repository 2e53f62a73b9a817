// README: Provider-facing booking handlers (discovery, accept, cancel, complete).
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/AKULA-V-S-S-V-D-DURGAPRASAD/furryhubtail-backend/internal/http/middleware"
	"github.com/AKULA-V-S-S-V-D-DURGAPRASAD/furryhubtail-backend/internal/modules/booking"
	"github.com/AKULA-V-S-S-V-D-DURGAPRASAD/furryhubtail-backend/internal/modules/directory"
	"github.com/AKULA-V-S-S-V-D-DURGAPRASAD/furryhubtail-backend/internal/types"
)

type ProviderHandler struct {
	booking   *booking.Service
	directory *directory.Service
}

func NewProviderHandler(b *booking.Service, d *directory.Service) *ProviderHandler {
	return &ProviderHandler{booking: b, directory: d}
}

type providerBookingResponse struct {
	bookingResponse
	Origin string `json:"origin"`
}

// ListBookings returns the provider's work list. Optional lat/lng query
// parameters override the search point for the discovery set.
func (h *ProviderHandler) ListBookings(c *gin.Context) {
	var at *types.Point
	latStr, lngStr := c.Query("lat"), c.Query("lng")
	if latStr != "" || lngStr != "" {
		lat, errLat := strconv.ParseFloat(latStr, 64)
		lng, errLng := strconv.ParseFloat(lngStr, 64)
		if errLat != nil || errLng != nil {
			writeError(c, http.StatusBadRequest, "lat and lng must both be valid numbers")
			return
		}
		at = &types.Point{Lat: lat, Lng: lng}
	}

	list, err := h.booking.ListForProvider(c.Request.Context(), middleware.CallerEmail(c), at)
	if err != nil {
		writeBookingError(c, err)
		return
	}
	out := make([]providerBookingResponse, 0, len(list))
	for _, pb := range list {
		out = append(out, providerBookingResponse{
			bookingResponse: toBookingResponse(pb.Booking),
			Origin:          pb.Origin,
		})
	}
	writeJSON(c, http.StatusOK, gin.H{"bookings": out})
}

func (h *ProviderHandler) ConfirmBooking(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		writeError(c, http.StatusBadRequest, "missing booking id")
		return
	}
	b, err := h.booking.Confirm(c.Request.Context(), booking.ConfirmCommand{
		BookingID:     types.ID(id),
		ProviderEmail: middleware.CallerEmail(c),
	})
	if err != nil {
		writeBookingError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toBookingResponse(b))
}

func (h *ProviderHandler) CancelBooking(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		writeError(c, http.StatusBadRequest, "missing booking id")
		return
	}
	b, err := h.booking.CancelByProvider(c.Request.Context(), booking.CancelByProviderCommand{
		BookingID:     types.ID(id),
		ProviderEmail: middleware.CallerEmail(c),
	})
	if err != nil {
		writeBookingError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toBookingResponse(b))
}

type completeBookingReq struct {
	OTP string `json:"otp"`
}

func (h *ProviderHandler) CompleteBooking(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		writeError(c, http.StatusBadRequest, "missing booking id")
		return
	}
	var req completeBookingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.OTP == "" {
		writeError(c, http.StatusBadRequest, "otp is required")
		return
	}
	b, err := h.booking.Complete(c.Request.Context(), booking.CompleteCommand{
		BookingID:     types.ID(id),
		ProviderEmail: middleware.CallerEmail(c),
		OTP:           req.OTP,
	})
	if err != nil {
		writeBookingError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toBookingResponse(b))
}

type updateLocationReq struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (h *ProviderHandler) UpdateLocation(c *gin.Context) {
	var req updateLocationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Lat < -90 || req.Lat > 90 || req.Lng < -180 || req.Lng > 180 {
		writeError(c, http.StatusBadRequest, "coordinates out of range")
		return
	}
	err := h.directory.UpdateProviderLocation(c.Request.Context(), middleware.CallerEmail(c),
		types.Point{Lat: req.Lat, Lng: req.Lng})
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			writeError(c, http.StatusNotFound, "provider not found")
			return
		}
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": "updated"})
}
