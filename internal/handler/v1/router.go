// Package v1 exposes the HTTP API. Handlers stay thin: bind, call the
// service, map the error.
package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/project-mc/server/internal/config"
	"github.com/project-mc/server/internal/realtime"
	"github.com/project-mc/server/internal/service"
	"github.com/project-mc/server/pkg/auth"
	"github.com/project-mc/server/pkg/metrics"
)

type Handler struct {
	cfg *config.Config

	authSvc     *service.AuthService
	patientSvc  *service.PatientService
	apptSvc     *service.AppointmentService
	questionSvc *service.QuestionService
	driveSvc    *service.DriveService
	documentSvc *service.DocumentService

	hub        *realtime.Hub
	jwtManager *auth.JWTManager
	metrics    *metrics.Collector
	upgrader   websocket.Upgrader
	log        *zap.Logger
}

func NewHandler(
	cfg *config.Config,
	authSvc *service.AuthService,
	patientSvc *service.PatientService,
	apptSvc *service.AppointmentService,
	questionSvc *service.QuestionService,
	driveSvc *service.DriveService,
	documentSvc *service.DocumentService,
	hub *realtime.Hub,
	jwtManager *auth.JWTManager,
	collector *metrics.Collector,
	log *zap.Logger,
) *Handler {
	allowed := make(map[string]bool, len(cfg.CORS.AllowedOrigins))
	for _, o := range cfg.CORS.AllowedOrigins {
		allowed[o] = true
	}

	return &Handler{
		cfg:         cfg,
		authSvc:     authSvc,
		patientSvc:  patientSvc,
		apptSvc:     apptSvc,
		questionSvc: questionSvc,
		driveSvc:    driveSvc,
		documentSvc: documentSvc,
		hub:         hub,
		jwtManager:  jwtManager,
		metrics:     collector,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
		log: log,
	}
}

// Router builds the gin engine with all middleware and routes attached.
func (h *Handler) Router() *gin.Engine {
	if h.cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(h.log))
	r.Use(Metrics(h.metrics))
	r.Use(CORS(h.cfg.CORS))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": h.cfg.App.Version})
	})
	r.GET("/metrics", gin.WrapH(metrics.MetricsHandler()))

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", h.register)
		authGroup.POST("/login", h.login)
		authGroup.POST("/refresh", h.refresh)
		authGroup.PUT("/password", Authenticated(h.jwtManager), h.changePassword)
	}

	secured := api.Group("")
	secured.Use(Authenticated(h.jwtManager))
	{
		secured.POST("/patients", h.createPatient)
		secured.GET("/patients", h.listPatients)
		secured.GET("/patients/:id", h.getPatient)
		secured.PUT("/patients/:id", h.renamePatient)
		secured.DELETE("/patients/:id", h.deletePatient)

		secured.POST("/appointments", h.createAppointment)
		secured.GET("/appointments", h.listAppointments)
		secured.GET("/appointments/day", h.dayView)
		secured.GET("/appointments/:id", h.getAppointment)
		secured.PATCH("/appointments/:id", h.updateAppointment)
		secured.DELETE("/appointments/:id", h.deleteAppointment)
		secured.POST("/appointments/:id/files", h.attachAppointmentFile)
		secured.GET("/appointments/:id/files", h.listAppointmentFiles)
		secured.GET("/appointments/:id/files/:fileID/url", h.appointmentFileURL)
		secured.DELETE("/appointments/:id/files/:fileID", h.deleteAppointmentFile)

		secured.POST("/questions", h.createQuestion)
		secured.GET("/questions", h.listQuestions)
		secured.GET("/questions/:id", h.getQuestion)
		secured.PATCH("/questions/:id", h.updateQuestion)
		secured.DELETE("/questions/:id", h.deleteQuestion)
		secured.GET("/questions/:id/appointments", h.listQuestionAppointments)
		secured.POST("/questions/:id/appointments/:appointmentID", h.linkQuestionAppointment)
		secured.DELETE("/questions/:id/appointments/:appointmentID", h.unlinkQuestionAppointment)
		secured.POST("/questions/:id/files", h.attachQuestionFile)
		secured.GET("/questions/:id/files", h.listQuestionFiles)
		secured.GET("/questions/:id/files/:linkID/url", h.questionFileURL)
		secured.DELETE("/questions/:id/files/:linkID", h.detachQuestionFile)

		secured.POST("/drive/folders", h.createFolder)
		secured.DELETE("/drive/folders", h.deleteFolder)
		secured.GET("/drive/list", h.listFolder)
		secured.POST("/drive/files", h.uploadFile)
		secured.GET("/drive/files/url", h.fileDownloadURL)
		secured.DELETE("/drive/files", h.deleteFile)
		secured.POST("/drive/share/file", h.shareFile)
		secured.POST("/drive/share/folder", h.shareFolder)
		secured.GET("/drive/shared-with-me", h.sharedWithMe)
		secured.POST("/drive/shares/redeem", h.redeemShare)

		secured.POST("/documents", h.uploadDocument)
		secured.GET("/documents", h.listDocuments)
		secured.POST("/documents/chat", h.chatDocuments)
		secured.GET("/documents/:id", h.getDocument)
		secured.POST("/documents/:id/process", h.processDocument)
		secured.GET("/documents/:id/url", h.documentDownloadURL)
		secured.POST("/documents/:id/summarize", h.summarizeDocument)
		secured.POST("/documents/:id/translate", h.translateDocument)
		secured.PATCH("/documents/:id/assign", h.reassignDocument)
		secured.DELETE("/documents/:id", h.deleteDocument)

		secured.GET("/ws", h.websocketConnect)
	}

	return r
}
