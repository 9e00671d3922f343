package api

import (
	stdhttp "net/http"

	intconfig "busbooking/internal/config"
	"busbooking/internal/domain"
	h "busbooking/internal/http/handlers"
	"busbooking/internal/http/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewRouter wires middleware and every API route onto a fresh gin engine.
func NewRouter(env intconfig.Env, hs *h.Handlers, tokens middleware.TokenParser) *gin.Engine {
	h.RegisterValidators()

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger(),
		gin.Recovery(),
		middleware.CORS(env.AllowedOrigins()),
		middleware.RateLimit(env.RateLimitPerMinute),
	)
	r.MaxMultipartMemory = 12 << 20

	if err := r.SetTrustedProxies(nil); err != nil {
		zap.L().Warn("failed to set trusted proxies", zap.Error(err))
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":      "route not found",
			"code":       domain.CodeNotFound,
			"path":       c.Request.URL.Path,
			"method":     c.Request.Method,
			"request_id": middleware.GetRequestID(c),
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := middleware.Auth(tokens)
	vendorOnly := middleware.RequireRoles(domain.RoleVendor)
	adminOnly := middleware.RequireRoles(domain.RoleAdmin)
	customerOnly := middleware.RequireRoles(domain.RoleCustomer)

	api := r.Group("/api")
	{
		api.GET("/health", hs.Health)

		// Auth
		api.POST("/auth/register", hs.Register)
		api.POST("/auth/login", hs.Login)
		api.POST("/vendors/register", hs.RegisterVendor)

		// Public catalogue
		api.GET("/stops", hs.ListStops)
		api.GET("/routes", hs.ListRoutes)
		api.GET("/routes/:id/stops", hs.ListRouteStops)
		api.GET("/schedule/search", hs.SearchSchedules)
		api.GET("/schedule/:id", hs.GetSchedule)
		api.GET("/schedule/:id/seats", hs.SeatMap)

		api.POST("/stop", auth, middleware.RequireRoles(domain.RoleVendor, domain.RoleAdmin), hs.CreateStop)
		api.GET("/seat-layouts", auth, middleware.RequireRoles(domain.RoleVendor, domain.RoleAdmin), hs.ListSeatLayouts)
		api.GET("/seat-layouts/:id", auth, middleware.RequireRoles(domain.RoleVendor, domain.RoleAdmin), hs.GetSeatLayout)
		api.POST("/routes", auth, adminOnly, hs.CreateRoute)
		api.POST("/routes/:id/stops", auth, adminOnly, hs.AddRouteStop)

		// Vendor schedules
		schedule := api.Group("/schedule", auth, vendorOnly)
		schedule.POST("", hs.CreateSchedule)
		schedule.POST("/bulk", hs.CreateBulkSchedule)
		schedule.GET("/my-schedules", hs.MySchedules)
		schedule.PUT("/:id", hs.UpdateSchedule)
		schedule.DELETE("/:id", hs.DeleteSchedule)

		vendor := api.Group("/vendor", auth, vendorOnly)
		vendor.GET("/profile", hs.VendorProfile)
		vendor.POST("/documents", hs.UploadVendorDocument)
		vendor.POST("/schedules/bulk", hs.CreateBulkSchedule)
		vendor.GET("/buses", hs.ListBuses)
		vendor.POST("/buses", hs.CreateBus)
		vendor.PUT("/buses/:id", hs.UpdateBus)

		// Admin
		admin := api.Group("/admin", auth, adminOnly)
		admin.GET("/vendors", hs.ListVendors)
		admin.PUT("/vendors/:id/approve", hs.ApproveVendor)
		admin.PUT("/vendors/:id/reject", hs.RejectVendor)
		admin.GET("/vendors/:id/document", hs.VendorDocument)
		admin.GET("/bookings/:id", hs.GetBooking)
		admin.GET("/seat-layouts", hs.ListSeatLayouts)
		admin.POST("/seat-layouts", hs.CreateSeatLayout)
		admin.GET("/seat-layouts/:id", hs.GetSeatLayout)
		admin.PUT("/seat-layouts/:id", hs.UpdateSeatLayout)
		admin.DELETE("/seat-layouts/:id", hs.DeleteSeatLayout)

		// Customer bookings
		bookings := api.Group("/customer/bookings", auth, customerOnly)
		bookings.POST("", hs.CreateBooking)
		bookings.POST("/connecting", hs.CreateConnectingBooking)
		bookings.GET("", hs.MyBookings)
		bookings.GET("/:id", hs.GetBooking)
		bookings.GET("/:id/cancellation-preview", hs.CancellationPreview)
		bookings.POST("/:id/cancel", hs.CancelBooking)
		bookings.GET("/:id/ticket", hs.DownloadTicket)

		payments := api.Group("/payments", auth, customerOnly)
		payments.POST("/orders", hs.CreatePaymentOrder)
		payments.POST("/verify", hs.VerifyPayment)
	}

	return r
}
