package database

import (
	"context"
	"fmt"
	"log"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"gorm.io/gorm"
)

// PluginModule provides the shared database as a mono plugin.
// Plugins start first and stop last, so every module sees an open connection.
type PluginModule struct {
	container types.ServiceContainer
	db        *gorm.DB
	dbPath    string
	debug     bool
}

// Compile-time interface checks.
var (
	_ mono.PluginModule          = (*PluginModule)(nil)
	_ mono.HealthCheckableModule = (*PluginModule)(nil)
)

// NewPluginModule creates a new database plugin for the SQLite file at dbPath.
func NewPluginModule(dbPath string, debug bool) *PluginModule {
	return &PluginModule{
		dbPath: dbPath,
		debug:  debug,
	}
}

// Name returns the module name.
func (m *PluginModule) Name() string {
	return "database"
}

// Start opens the connection and runs migrations.
func (m *PluginModule) Start(_ context.Context) error {
	log.Printf("[database] Connecting to SQLite database: %s", m.dbPath)

	db, err := Open(m.dbPath, m.debug)
	if err != nil {
		return err
	}
	if err := Migrate(db); err != nil {
		return err
	}
	m.db = db

	log.Println("[database] Plugin started")
	return nil
}

// Stop closes the connection.
func (m *PluginModule) Stop(_ context.Context) error {
	if m.db == nil {
		return nil
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	log.Println("[database] Plugin stopped")
	return nil
}

// SetContainer sets the service container for this plugin.
func (m *PluginModule) SetContainer(container types.ServiceContainer) {
	m.container = container
}

// Container returns the service container for this plugin.
func (m *PluginModule) Container() types.ServiceContainer {
	return m.container
}

// Port returns the shared connection. It is nil until the plugin has started.
func (m *PluginModule) Port() *gorm.DB {
	return m.db
}

// Health returns the current health status.
func (m *PluginModule) Health(ctx context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "database not initialized",
		}
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("failed to get sql.DB: %v", err),
		}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"driver": "sqlite",
			"path":   m.dbPath,
		},
	}
}
