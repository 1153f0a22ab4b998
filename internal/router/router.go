package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sharebutes/sharebutes/internal/handlers"
	"github.com/sharebutes/sharebutes/internal/middleware"
	"github.com/sharebutes/sharebutes/internal/models"
	"github.com/sharebutes/sharebutes/internal/types"
)

func NewRouter() *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     types.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)
		api.GET("/stats", handlers.GetPlatformStats)
		api.GET("/ws/stats", handlers.StatsSocket)

		auth := api.Group("/auth")
		{
			auth.POST("/register", handlers.Register)
			auth.POST("/login", handlers.Login)
			auth.POST("/forgot-password", handlers.ForgotPassword)
			auth.POST("/logout", handlers.Logout)
			auth.GET("/me", middleware.AuthMiddleware(), handlers.Me)
			auth.PUT("/profile", middleware.AuthMiddleware(), handlers.UpdateProfile)
			auth.PUT("/change-password", middleware.AuthMiddleware(), handlers.ChangePassword)
			auth.GET("/stats", middleware.AuthMiddleware(), handlers.GetUserStats)
			auth.GET("/user-stats", middleware.AuthMiddleware(), handlers.GetUserStats)
		}

		donations := api.Group("/donations")
		{
			donations.GET("", handlers.ListDonations)
			donations.POST("", middleware.AuthMiddleware(), middleware.RequireUserType(models.UserTypeDonor), handlers.CreateDonation)

			donations.GET("/my-donations", middleware.AuthMiddleware(), middleware.RequireUserType(models.UserTypeDonor), handlers.GetMyDonations)
			donations.GET("/claimed-by-me", middleware.AuthMiddleware(), handlers.GetClaimedByMe)
			donations.GET("/stats", middleware.AuthMiddleware(), middleware.RequireUserType(models.UserTypeDonor), handlers.GetDonationStats)

			donations.GET("/:id", handlers.GetDonation)
			donations.PUT("/:id", middleware.AuthMiddleware(), middleware.RequireUserType(models.UserTypeDonor), handlers.UpdateDonation)
			donations.DELETE("/:id", middleware.AuthMiddleware(), middleware.RequireUserType(models.UserTypeDonor), handlers.DeleteDonation)
			donations.POST("/:id/claim", middleware.AuthMiddleware(), middleware.RequireUserType(models.UserTypeNGO), handlers.ClaimDonation)
			donations.POST("/:id/pickup", middleware.AuthMiddleware(), handlers.MarkPickedUp)
		}

		requests := api.Group("/requests")
		{
			requests.GET("", handlers.ListRequests)
			requests.POST("", middleware.AuthMiddleware(), middleware.RequireUserType(models.UserTypeNGO), handlers.CreateRequest)

			requests.GET("/urgent", handlers.GetUrgentRequests)
			requests.GET("/nearby", handlers.GetNearbyRequests)
			requests.GET("/my-requests", middleware.AuthMiddleware(), middleware.RequireUserType(models.UserTypeNGO), handlers.GetMyRequests)
			requests.GET("/stats", middleware.AuthMiddleware(), middleware.RequireUserType(models.UserTypeNGO), handlers.GetRequestStats)

			requests.GET("/:id", handlers.GetRequest)
			requests.PUT("/:id", middleware.AuthMiddleware(), middleware.RequireUserType(models.UserTypeNGO), handlers.UpdateRequest)
			requests.DELETE("/:id", middleware.AuthMiddleware(), middleware.RequireUserType(models.UserTypeNGO), handlers.DeleteRequest)
			requests.POST("/:id/cancel", middleware.AuthMiddleware(), middleware.RequireUserType(models.UserTypeNGO), handlers.CancelRequest)
			requests.POST("/:id/fulfill", middleware.AuthMiddleware(), middleware.RequireUserType(models.UserTypeNGO), handlers.FulfillRequest)
		}
	}

	return r
}
