package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/project-mc/server/internal/ai"
	"github.com/project-mc/server/internal/config"
	"github.com/project-mc/server/internal/drive"
	v1 "github.com/project-mc/server/internal/handler/v1"
	"github.com/project-mc/server/internal/mail"
	"github.com/project-mc/server/internal/realtime"
	"github.com/project-mc/server/internal/repository"
	"github.com/project-mc/server/internal/service"
	"github.com/project-mc/server/pkg/auth"
	"github.com/project-mc/server/pkg/database"
	"github.com/project-mc/server/pkg/logger"
	"github.com/project-mc/server/pkg/metrics"
	"github.com/project-mc/server/pkg/tracer"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	log.Info("starting server",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	tp, err := tracer.Init(cfg.Tracing)
	if err != nil {
		return fmt.Errorf("initializing tracer: %w", err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Warn("tracer shutdown failed", zap.Error(err))
		}
	}()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return err
	}
	if err := database.Migrate(db, log); err != nil {
		return err
	}

	store, err := drive.NewS3Store(context.Background(), drive.S3Options{
		Bucket:          cfg.Storage.Bucket,
		Region:          cfg.Storage.Region,
		Endpoint:        cfg.Storage.Endpoint,
		AccessKeyID:     cfg.Storage.AccessKeyID,
		SecretAccessKey: cfg.Storage.SecretAccessKey,
		UsePathStyle:    cfg.Storage.UsePathStyle,
	})
	if err != nil {
		return fmt.Errorf("initializing object store: %w", err)
	}

	collector := metrics.NewCollector("projectmc")
	jwtManager := auth.NewJWTManager(cfg.JWT)

	hub := realtime.NewHub(log.Named("realtime"), collector)
	go hub.Run()

	auditSvc := service.NewAuditService(repository.NewAuditRepository(db), log.Named("audit"), collector)

	aiClient := ai.NewClient(cfg.AI, log.Named("ai"))
	mailer := mail.NewMailer(cfg.Mail)

	authSvc := service.NewAuthService(repository.NewUserRepository(db), jwtManager, auditSvc, log.Named("auth"))
	patientSvc := service.NewPatientService(repository.NewPatientRepository(db), auditSvc, hub, log.Named("patient"))
	apptSvc := service.NewAppointmentService(repository.NewAppointmentRepository(db), store, auditSvc, hub, collector, log.Named("appointment"))
	questionSvc := service.NewQuestionService(repository.NewQuestionRepository(db), repository.NewAppointmentRepository(db), store, auditSvc, hub, collector, log.Named("question"))
	driveSvc := service.NewDriveService(repository.NewFolderRepository(db), repository.NewShareRepository(db), store, mailer, auditSvc, hub, collector, log.Named("drive"))
	documentSvc := service.NewDocumentService(repository.NewDocumentRepository(db), store, aiClient, auditSvc, hub, collector, log.Named("document"))

	handler := v1.NewHandler(cfg, authSvc, patientSvc, apptSvc, questionSvc, driveSvc, documentSvc, hub, jwtManager, collector, log.Named("http"))

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      handler.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}

	// Flush buffered audit entries last so shutdown writes still land.
	auditSvc.Shutdown()

	log.Info("server stopped")
	return nil
}
