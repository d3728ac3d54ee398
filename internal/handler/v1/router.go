package v1

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/manulsahu/MediSight/internal/config"
	"github.com/manulsahu/MediSight/internal/domain"
	"github.com/manulsahu/MediSight/internal/handler/middleware"
	"github.com/manulsahu/MediSight/pkg/metrics"
)

type Handlers struct {
	Auth          *AuthHandler
	Patients      *PatientHandler
	Doctors       *DoctorHandler
	Appointments  *AppointmentHandler
	Reports       *ReportHandler
	Medications   *MedicationHandler
	Messages      *MessageHandler
	Notifications *NotificationHandler
	Health        *HealthHandler
}

type RouterDeps struct {
	Log         *zap.Logger
	Metrics     *metrics.Collector
	Tokens      middleware.TokenValidator
	CORS        config.CORSConfig
	Limiter     *middleware.IPRateLimiter
	AuthLimiter *middleware.IPRateLimiter
	Production  bool
}

func NewRouter(deps RouterDeps, h Handlers) *gin.Engine {
	if deps.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Recovery(deps.Log),
		middleware.Logger(deps.Log),
		middleware.Metrics(deps.Metrics),
		middleware.CORS(deps.CORS),
	)

	r.GET("/healthz", h.Health.Health)
	r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	api := r.Group("/api/v1", middleware.RateLimit(deps.Limiter))

	public := api.Group("/auth", middleware.RateLimit(deps.AuthLimiter))
	public.POST("/register", h.Auth.Register)
	public.POST("/login", h.Auth.Login)
	public.POST("/refresh", h.Auth.Refresh)

	authed := api.Group("", middleware.Authenticate(deps.Tokens, deps.Log))
	clinician := middleware.RequireRole(domain.RoleDoctor, domain.RoleAdmin)
	doctorOnly := middleware.RequireRole(domain.RoleDoctor)
	patientOnly := middleware.RequireRole(domain.RolePatient)
	adminOnly := middleware.RequireRole(domain.RoleAdmin)

	authed.POST("/auth/password", h.Auth.ChangePassword)

	patients := authed.Group("/patients")
	patients.GET("", clinician, h.Patients.List)
	patients.POST("", clinician, h.Patients.Create)
	patients.GET("/me", patientOnly, h.Patients.Me)
	patients.GET("/:id", h.Patients.Get)
	patients.PATCH("/:id", h.Patients.Update)
	patients.DELETE("/:id", adminOnly, h.Patients.Deactivate)
	patients.GET("/:id/reports", h.Reports.List)
	patients.POST("/:id/reports", h.Reports.Create)
	patients.GET("/:id/insights", h.Reports.Insights)
	patients.GET("/:id/medications", h.Medications.List)
	patients.POST("/:id/medications", clinician, h.Medications.Add)
	patients.GET("/:id/schedule", h.Medications.Schedule)

	reports := authed.Group("/reports")
	reports.GET("/:id", h.Reports.Get)
	reports.DELETE("/:id", h.Reports.Delete)
	reports.PUT("/:id/readings", h.Reports.UpdateReadings)

	doctors := authed.Group("/doctors")
	doctors.GET("", h.Doctors.List)
	doctors.GET("/:id", h.Doctors.Get)
	doctors.PATCH("/:id", h.Doctors.Update)

	appts := authed.Group("/appointments")
	appts.GET("", h.Appointments.List)
	appts.POST("", patientOnly, h.Appointments.Request)
	appts.GET("/:id", h.Appointments.Get)
	appts.POST("/:id/accept", doctorOnly, h.Appointments.Accept)
	appts.POST("/:id/reject", doctorOnly, h.Appointments.Reject)
	appts.POST("/:id/complete", doctorOnly, h.Appointments.Complete)
	appts.POST("/:id/cancel", h.Appointments.Cancel)

	meds := authed.Group("/medications")
	meds.PATCH("/:id", clinician, h.Medications.Update)
	meds.DELETE("/:id", clinician, h.Medications.Remove)
	meds.POST("/:id/doses", patientOnly, h.Medications.MarkDose)

	authed.POST("/messages", h.Messages.Send)
	convs := authed.Group("/conversations")
	convs.GET("", h.Messages.Conversations)
	convs.GET("/:id/messages", h.Messages.Messages)
	convs.POST("/:id/read", h.Messages.MarkRead)

	authed.GET("/notifications/stream", h.Notifications.Stream)

	return r
}
