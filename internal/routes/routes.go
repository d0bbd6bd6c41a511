package routes

import (
	"telehealth-server/internal/handlers"
	"telehealth-server/internal/logger"
	"telehealth-server/internal/metrics"
	"telehealth-server/internal/middleware"
	"telehealth-server/internal/models"

	"github.com/gin-gonic/gin"
)

// Deps is everything the router needs from main.
type Deps struct {
	Auth         *handlers.AuthHandler
	Users        *handlers.UserHandler
	Appointments *handlers.AppointmentHandler
	Payments     *handlers.PaymentHandler
	Stories      *handlers.StoryHandler
	Health       *handlers.HealthHandler

	Authenticator middleware.Authenticator
	Metrics       *metrics.Metrics
	Log           *logger.Logger

	// UploadsDir is served under UploadsPath when media is stored locally.
	UploadsDir  string
	UploadsPath string
}

// Each resource is reachable under its singular and plural name.
var (
	patientPrefixes     = []string{"/patient", "/patients"}
	doctorPrefixes      = []string{"/doctor", "/doctors"}
	appointmentPrefixes = []string{"/appointment", "/appointments"}
)

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, d Deps) {
	router.Use(middleware.RequestLogger(d.Log))
	if d.Metrics != nil {
		router.Use(d.Metrics.Middleware())
		router.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}
	router.GET("/health", d.Health.Health)
	if d.UploadsDir != "" {
		router.Static(d.UploadsPath, d.UploadsDir)
	}

	api := router.Group("/api/v1")
	authed := middleware.AuthMiddleware(d.Authenticator)
	asPatient := []gin.HandlerFunc{authed, middleware.RoleAuthMiddleware(models.RolePatient)}
	asDoctor := []gin.HandlerFunc{authed, middleware.RoleAuthMiddleware(models.RoleDoctor)}

	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/refresh-token", d.Auth.RefreshToken)
		authRoutes.POST("/logout", authed, d.Auth.Logout)
	}

	for _, prefix := range patientPrefixes {
		patients := api.Group(prefix)
		patients.POST("/register", d.Auth.RegisterPatient)
		patients.POST("/login", d.Auth.PatientLogin)

		private := patients.Group("", asPatient...)
		{
			private.GET("/profile", d.Users.GetPatientProfile)
			private.PUT("/update-profile", d.Users.UpdatePatientProfile)
			private.POST("/doctor-booking", d.Appointments.BookAppointment)

			private.POST("/upload-story", d.Stories.UploadStory)
			private.GET("/my-stories", d.Stories.GetMyStories)
			private.GET("/all-stories", d.Stories.GetAllStories)
			private.GET("/story/:storyId", d.Stories.GetStory)
			private.PUT("/story/:storyId", d.Stories.UpdateStory)
			private.DELETE("/story/:storyId", d.Stories.DeleteStory)
		}
	}

	for _, prefix := range doctorPrefixes {
		doctors := api.Group(prefix)
		doctors.POST("/register", d.Auth.RegisterDoctor)
		doctors.POST("/login", d.Auth.DoctorLogin)
		doctors.GET("/all-doctor", d.Users.GetDoctors)
		doctors.GET("/get-doctor/:doctorId", d.Users.GetDoctorByID)
		doctors.GET("/:doctorId/slots", d.Appointments.GetAvailableSlots)

		private := doctors.Group("", asDoctor...)
		{
			private.GET("/profile", d.Users.GetDoctorProfile)
			private.PUT("/update-profile", d.Users.UpdateDoctorProfile)
			private.GET("/schedule/today", d.Appointments.GetTodaySchedule)
			private.GET("/my-clients", d.Users.GetDoctorPatients)

			private.GET("/stories", d.Stories.GetAllStories)
			private.GET("/stories/:storyId", d.Stories.GetStory)
			private.POST("/stories/:storyId/comment", d.Stories.AddComment)
			private.PUT("/stories/:storyId/comment/:commentId", d.Stories.EditComment)
			private.DELETE("/stories/:storyId/comment/:commentId", d.Stories.DeleteComment)
		}
	}

	for _, prefix := range appointmentPrefixes {
		appointments := api.Group(prefix, authed)
		{
			appointments.GET("/patient", middleware.RoleAuthMiddleware(models.RolePatient), d.Appointments.GetPatientAppointments)
			appointments.GET("/doctor", middleware.RoleAuthMiddleware(models.RoleDoctor), d.Appointments.GetDoctorAppointments)
			appointments.GET("/by-doctor/:doctorId", d.Appointments.GetBookedSlots)
			appointments.PATCH("/:id/status", d.Appointments.UpdateAppointmentStatus)
		}
	}

	payments := api.Group("/payment")
	{
		payments.POST("/bkash/create", append(asPatient, d.Payments.CreateBkashPayment)...)
		// bKash redirects the payer's browser here without our token.
		payments.GET("/bkash/callback", d.Payments.BkashCallback)
	}
}
