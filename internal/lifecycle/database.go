package lifecycle

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shaiso/ghreport/internal/domain"
	"github.com/shaiso/ghreport/internal/rai"
	"github.com/shaiso/ghreport/internal/telemetry"
)

// DatabaseAPI — операции сервиса над базами (реализует *rai.Client).
type DatabaseAPI interface {
	GetDatabase(ctx context.Context, name string) (*domain.Database, error)
	CreateDatabase(ctx context.Context, name, engine string, overwrite bool) error
	DeleteDatabase(ctx context.Context, name string) error
}

// DatabaseManager создаёт и удаляет базу данных.
type DatabaseManager struct {
	client DatabaseAPI
	logger *slog.Logger
}

// NewDatabaseManager создаёт DatabaseManager.
func NewDatabaseManager(client DatabaseAPI, logger *slog.Logger) *DatabaseManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &DatabaseManager{client: client, logger: logger}
}

// EnsureDeleted удаляет базу, если она существует.
func (m *DatabaseManager) EnsureDeleted(ctx context.Context, name string) error {
	logger := telemetry.WithDatabase(m.logger, name)

	if _, err := m.client.GetDatabase(ctx, name); err != nil {
		if rai.IsNotFound(err) {
			logger.Info("database not found, nothing to delete")
			return nil
		}
		return fmt.Errorf("look up database: %w", err)
	}

	logger.Info("deleting database")
	if err := m.client.DeleteDatabase(ctx, name); err != nil {
		if rai.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("delete database: %w", err)
	}
	return nil
}

// EnsureConnected гарантирует существование базы.
//
// Отсутствующая база создаётся через engine с overwrite=true,
// существующая не трогается.
func (m *DatabaseManager) EnsureConnected(ctx context.Context, name, engine string) error {
	logger := telemetry.WithEngine(telemetry.WithDatabase(m.logger, name), engine)

	db, err := m.client.GetDatabase(ctx, name)
	if err == nil {
		logger.Info("database exists", "state", db.State)
		return nil
	}
	if !rai.IsNotFound(err) {
		return fmt.Errorf("look up database: %w", err)
	}

	logger.Info("creating database")
	if err := m.client.CreateDatabase(ctx, name, engine, true); err != nil {
		return fmt.Errorf("create database: %w", err)
	}
	return nil
}
