package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"courtly/handlers"
	"courtly/middleware"
)

// Handlers bundles everything the router needs.
type Handlers struct {
	Webhook     *handlers.WebhookHandler
	Reservation *handlers.ReservationHandler
	Admin       *handlers.AdminHandler
}

// RegisterRoutes wires every endpoint onto the router.
func RegisterRoutes(r *gin.Engine, h *Handlers) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", handlers.HealthHandler)

	// Payment provider callback. No auth: the provider's retry policy keys
	// off the status code alone.
	payments := r.Group("/api/payments")
	{
		payments.POST("/webhook", h.Webhook.PaymentWebhookHandler)
	}

	// Reservation lifecycle.
	api := r.Group("/api")
	{
		api.POST("/holds", h.Reservation.CreateHoldHandler)
		api.GET("/holds/:reference", h.Reservation.GetHoldHandler)
		api.GET("/bookings/:id", h.Reservation.GetBookingHandler)
	}

	// Admin endpoints (Require Authentication)
	admin := r.Group("/api/admin")
	admin.Use(middleware.JWTAuthAdminMiddleware())
	{
		admin.POST("/roles/assign", h.Admin.AssignRoleHandler)
		admin.POST("/sweep", h.Admin.TriggerSweepHandler)
	}
}
