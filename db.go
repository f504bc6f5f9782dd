package main

import (
	"context"
	"errors"
	"fmt"

	"equipapi/pkg/auth"
	"equipapi/pkg/config"
	"equipapi/pkg/database"
	"equipapi/pkg/equipment"
	"equipapi/pkg/logging"

	"gorm.io/gorm"
)

// stores bundles the repositories selected by STORAGE.
type stores struct {
	equipment equipment.Repository
	users     auth.UserRepository
	tokens    auth.TokenRepository
	db        *gorm.DB
}

func openStores(ctx context.Context, cfg *config.Config, log logging.Logger) (*stores, error) {
	if cfg.Database.Storage == config.StorageMemory {
		log.Warn(ctx, "using in-memory storage; data is lost on restart")
		return &stores{
			equipment: equipment.NewMemoryRepository(),
			users:     auth.NewMemoryUserRepository(),
			tokens:    auth.NewMemoryTokenRepository(),
		}, nil
	}

	gdb, err := database.Open(ctx, cfg.Database.DSN, cfg.Database.AutoMigrate)
	if err != nil {
		return nil, err
	}
	return &stores{
		equipment: equipment.NewGormRepository(gdb),
		users:     auth.NewGormUserRepository(gdb),
		tokens:    auth.NewGormTokenRepository(gdb),
		db:        gdb,
	}, nil
}

func (s *stores) Close() error {
	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// migrate runs the schema migrations and the admin seed, for the migrate command.
func migrate(ctx context.Context, cfg *config.Config, log logging.Logger) error {
	if cfg.Database.Storage != config.StoragePostgres {
		return fmt.Errorf("migrate requires STORAGE=%s", config.StoragePostgres)
	}
	cfg.Database.AutoMigrate = true
	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	return a.Close()
}

// seedAdmin creates the configured admin user once. Nothing happens when
// ADMIN_EMAIL or ADMIN_PASSWORD is unset.
func seedAdmin(ctx context.Context, svc *auth.Service, admin config.AdminConfig, log logging.Logger) error {
	if admin.Email == "" || admin.Password == "" {
		return nil
	}
	u, err := svc.CreateUser(ctx, admin.Name, admin.Email, admin.Password)
	if err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			return nil // already seeded
		}
		return fmt.Errorf("seed admin user: %w", err)
	}
	log.Info(ctx, "seeded admin user", "user_id", u.ID, "email", u.Email)
	return nil
}
