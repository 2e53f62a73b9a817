// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AKULA-V-S-S-V-D-DURGAPRASAD/furryhubtail-backend/internal/http/handlers"
	"github.com/AKULA-V-S-S-V-D-DURGAPRASAD/furryhubtail-backend/internal/http/middleware"
	"github.com/AKULA-V-S-S-V-D-DURGAPRASAD/furryhubtail-backend/internal/logger"
	"github.com/AKULA-V-S-S-V-D-DURGAPRASAD/furryhubtail-backend/internal/modules/booking"
	"github.com/AKULA-V-S-S-V-D-DURGAPRASAD/furryhubtail-backend/internal/modules/directory"
)

func NewRouter(
	bookingService *booking.Service,
	directoryService *directory.Service,
	log logger.ILogger,
) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Recovery(log), middleware.Logging(log))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	api := r.Group("/api", middleware.Auth())

	customerHandler := handlers.NewCustomerHandler(bookingService, directoryService)
	customers := api.Group("/customers")
	customers.POST("/bookings", customerHandler.CreateBooking)
	customers.GET("/bookings", customerHandler.ListBookings)
	customers.POST("/bookings/:id/cancel", customerHandler.CancelBooking)
	customers.PUT("/address", customerHandler.UpdateAddress)

	providerHandler := handlers.NewProviderHandler(bookingService, directoryService)
	providers := api.Group("/providers")
	providers.GET("/bookings", providerHandler.ListBookings)
	providers.POST("/bookings/:id/confirm", providerHandler.ConfirmBooking)
	providers.POST("/bookings/:id/cancel", providerHandler.CancelBooking)
	providers.POST("/bookings/:id/complete", providerHandler.CompleteBooking)
	providers.PUT("/location", providerHandler.UpdateLocation)

	return r
}
