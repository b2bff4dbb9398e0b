package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/project-mc/server/internal/config"
	"github.com/project-mc/server/internal/domain"
	"github.com/project-mc/server/internal/domain/appointment"
	"github.com/project-mc/server/internal/domain/document"
	"github.com/project-mc/server/internal/domain/patient"
	"github.com/project-mc/server/internal/domain/question"
	"github.com/project-mc/server/internal/domain/share"
	"github.com/project-mc/server/internal/drive"
)

func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger:      gormlogger.Default.LogMode(gormlogger.Silent),
		PrepareStmt: true,
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: cfg.DSN(),
	}), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}

func Migrate(db *gorm.DB, log *zap.Logger) error {
	log.Info("running database migrations")
	start := time.Now()

	schemas := []string{"mc", "auth", "audit"} // logical namespace
	for _, schema := range schemas {
		if err := db.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema)).Error; err != nil {
			return fmt.Errorf("creating schema %s: %w", schema, err)
		}
	}

	models := []any{
		&domain.User{},
		&domain.AuditLog{},
		&patient.Patient{},
		&appointment.Appointment{},
		&appointment.File{},
		&question.Question{},
		&question.AppointmentLink{},
		&question.FileLink{},
		&drive.Folder{},
		&share.Share{},
		&document.Document{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto-migrating models: %w", err)
	}

	if err := createIndexes(db); err != nil {
		return fmt.Errorf("creating indexes: %w", err)
	}

	log.Info("migrations completed", zap.Duration("duration", time.Since(start)))
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []struct {
		name  string
		query string
	}{
		// Day/week views scan by owner + time range.
		{
			name:  "idx_appointments_owner_range",
			query: `CREATE INDEX IF NOT EXISTS idx_appointments_owner_range ON mc.appointments (owner_id, start_at, end_at)`,
		},
		// Path resolution is an exact match per scope; patient_id NULL and
		// non-NULL live in separate partial indexes so uniqueness holds in
		// both namespaces.
		{
			name:  "idx_folders_path_scoped",
			query: `CREATE UNIQUE INDEX IF NOT EXISTS idx_folders_path_scoped ON mc.folders (owner_id, patient_id, full_path) WHERE patient_id IS NOT NULL`,
		},
		{
			name:  "idx_folders_path_general",
			query: `CREATE UNIQUE INDEX IF NOT EXISTS idx_folders_path_general ON mc.folders (owner_id, full_path) WHERE patient_id IS NULL`,
		},
		// Recursive delete enumerates descendants with a prefix scan.
		{
			name:  "idx_folders_path_prefix",
			query: `CREATE INDEX IF NOT EXISTS idx_folders_path_prefix ON mc.folders (owner_id, full_path text_pattern_ops)`,
		},
		{
			name:  "idx_questions_board",
			query: `CREATE INDEX IF NOT EXISTS idx_questions_board ON mc.questions (owner_id, status, priority DESC, created_at DESC)`,
		},
		{
			name:  "idx_shares_recipient",
			query: `CREATE INDEX IF NOT EXISTS idx_shares_recipient ON mc.shares (target_email, created_at DESC)`,
		},
	}

	for _, idx := range indexes {
		if err := db.Exec(idx.query).Error; err != nil {
			return fmt.Errorf("creating index %s: %w", idx.name, err)
		}
	}

	return nil
}
