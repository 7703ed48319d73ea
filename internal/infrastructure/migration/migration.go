package migration

import (
	"context"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"

	"bandwave/internal/infrastructure/persistence/models"
	"bandwave/internal/shared/logger"
)

//go:embed scripts/*.sql
var embedMigrations embed.FS

// Manager runs schema migrations. MySQL deployments use the versioned goose
// scripts; SQLite (dev and tests) uses gorm auto-migration because the
// scripts carry MySQL-specific DDL.
type Manager struct {
	db     *gorm.DB
	driver string
	logger logger.Interface
}

func NewManager(db *gorm.DB, driver string, logger logger.Interface) *Manager {
	return &Manager{
		db:     db,
		driver: driver,
		logger: logger,
	}
}

// Up applies all pending migrations.
func (m *Manager) Up(ctx context.Context) error {
	if m.driver == "sqlite" {
		return m.autoMigrate()
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("mysql"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}

	if err := goose.UpContext(ctx, sqlDB, "scripts"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, err := goose.GetDBVersionContext(ctx, sqlDB)
	if err != nil {
		return fmt.Errorf("failed to read migration version: %w", err)
	}

	m.logger.Infow("migrations applied", "version", version)
	return nil
}

// Down rolls back the most recent migration.
func (m *Manager) Down(ctx context.Context) error {
	if m.driver == "sqlite" {
		return fmt.Errorf("rollback is not supported for sqlite")
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("mysql"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}

	if err := goose.DownContext(ctx, sqlDB, "scripts"); err != nil {
		return fmt.Errorf("failed to roll back migration: %w", err)
	}

	m.logger.Infow("migration rolled back")
	return nil
}

// Status logs the state of each migration.
func (m *Manager) Status(ctx context.Context) error {
	if m.driver == "sqlite" {
		m.logger.Infow("sqlite uses auto-migration; no versioned status")
		return nil
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("mysql"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}

	return goose.StatusContext(ctx, sqlDB, "scripts")
}

func (m *Manager) autoMigrate() error {
	err := m.db.AutoMigrate(
		&models.PlanModel{},
		&models.SubscriptionModel{},
		&models.SubscriptionHistoryModel{},
		&models.PaymentModel{},
		&models.PlanRequestModel{},
		&models.UsagePeriodModel{},
	)
	if err != nil {
		return fmt.Errorf("failed to auto-migrate schema: %w", err)
	}
	m.logger.Infow("schema auto-migrated", "driver", m.driver)
	return nil
}
