package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"ride/internal/handler"
	"ride/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	DriverHandler  *handler.DriverHandler
	TripHandler    *handler.TripHandler
	UserHandler    *handler.UserHandler
	PaymentHandler *handler.PaymentHandler
	ManagerHandler *handler.ManagerHandler
	RatingHandler  *handler.RatingHandler
	RedisClient    *redis.Client
	NewRelicApp    *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// User routes.
		users := v1.Group("/users")
		{
			users.POST("/register", deps.UserHandler.Register)
			users.GET("", deps.UserHandler.GetAll)
			users.GET("/:id", deps.UserHandler.GetUser)
		}

		// Driver routes.
		drivers := v1.Group("/drivers")
		{
			drivers.POST("/register", deps.DriverHandler.Register)
			drivers.GET("", deps.DriverHandler.GetAll)
			drivers.GET("/:id", deps.DriverHandler.GetDriver)
			drivers.POST("/:id/online", deps.DriverHandler.GoOnline)
			drivers.POST("/:id/offline", deps.DriverHandler.GoOffline)
			drivers.POST("/:id/location", deps.DriverHandler.UpdateLocation)
		}

		// Trip routes: requestTrip admits a passenger into matching; the rest
		// of the group is the driver-facing state machine plus cancellations.
		trips := v1.Group("/trips")
		{
			trips.POST("", deps.TripHandler.RequestTrip)
			trips.GET("", deps.TripHandler.GetAll)
			trips.GET("/:id", deps.TripHandler.GetTrip)
			trips.POST("/:id/accept", deps.TripHandler.AcceptOffer)
			trips.POST("/:id/reject", deps.TripHandler.RejectOffer)
			trips.POST("/:id/arrive", deps.TripHandler.DriverArrived)
			trips.POST("/:id/start", deps.TripHandler.StartTrip)
			trips.POST("/:id/complete", deps.TripHandler.CompleteTrip)
			trips.POST("/:id/cancel-by-passenger", deps.TripHandler.CancelByPassenger)
			trips.POST("/:id/cancel-by-driver", deps.TripHandler.CancelByDriver)
			trips.POST("/:id/confirm-payment", deps.PaymentHandler.ConfirmCashPayment)
			trips.GET("/:id/payment", deps.PaymentHandler.GetPayment)
			trips.POST("/:id/rating", deps.RatingHandler.SubmitRating)
			trips.GET("/:id/rating", deps.RatingHandler.GetRating)
		}

		// Trip request routes: lets a passenger poll a still-searching
		// request for whether it later matched, expired, or was cancelled.
		tripRequests := v1.Group("/trip-requests")
		{
			tripRequests.GET("/:id", deps.TripHandler.GetTripRequest)
		}

		// Manager routes: kill switch, feature flags, force-cancel, config readback.
		manager := v1.Group("/manager")
		{
			manager.POST("/trips-enabled", deps.ManagerHandler.ToggleTrips)
			manager.POST("/feature-flags", deps.ManagerHandler.ToggleFeatureFlag)
			manager.GET("/config", deps.ManagerHandler.GetSystemConfig)
			manager.POST("/trips/:id/cancel", deps.ManagerHandler.ForceCancelTrip)
		}
	}

	return router
}
