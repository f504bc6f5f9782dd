// Package cli holds the bootstrap shared by the operator commands.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"equipapi/pkg/auth"
	"equipapi/pkg/config"
	"equipapi/pkg/database"
	"equipapi/pkg/logging"

	"golang.org/x/term"
	"gorm.io/gorm"
)

// AuthService opens the configured database and returns an auth service on it.
// The returned func closes the connection.
func AuthService(ctx context.Context) (*auth.Service, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if cfg.Database.Storage != config.StoragePostgres {
		return nil, nil, fmt.Errorf("operator commands need STORAGE=%s", config.StoragePostgres)
	}
	gdb, err := database.Open(ctx, cfg.Database.DSN, false)
	if err != nil {
		return nil, nil, err
	}
	log := logging.New(os.Stderr, cfg.Log.Level, "text")
	svc := auth.NewService(auth.NewGormUserRepository(gdb), auth.NewGormTokenRepository(gdb), auth.Options{
		Secret:   []byte(cfg.Auth.JWTSecret),
		TokenTTL: cfg.Auth.TokenTTL,
	}, log)
	return svc, func() { closeDB(gdb) }, nil
}

func closeDB(gdb *gorm.DB) {
	if sqlDB, err := gdb.DB(); err == nil {
		sqlDB.Close()
	}
}

// ReadPassword prompts on the terminal without echo. When stdin is not a
// terminal the first line of stdin is used.
func ReadPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, prompt)
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	return readLine(os.Stdin)
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
