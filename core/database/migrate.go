package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/m3rciful/geobot/core/logger"
)

const previewFiles = 6

// RunMigrations waits for the database and applies every pending up migration.
func RunMigrations(ctx context.Context, cfg Config) error {
	if err := WaitReady(ctx, cfg, 30*time.Second); err != nil {
		logger.Error(ctx, "db.migrate", "migrate.wait", slog.String("status", "fail"), slog.String("err", err.Error()))
		return err
	}

	dir, err := migrationsDir(cfg)
	if err != nil {
		return fmt.Errorf("resolve migrations dir: %w", err)
	}
	set := loadMigrations(dir)
	logger.Debug(ctx, "db.migrate", "migrate.resolve",
		append([]slog.Attr{slog.String("path", dir)}, set.summary(set.names())...)...)

	m, err := migrate.New("file://"+dir, cfg.URL())
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	defer m.Close()

	from, _, _ := m.Version()
	start := time.Now()
	upErr := m.Up()
	took := logger.RoundMS(time.Since(start))
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		logger.Error(ctx, "db.migrate", "migrate.apply",
			slog.String("status", "fail"),
			slog.Duration("duration", took),
			slog.String("err", upErr.Error()),
		)
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	to, _, _ := m.Version()

	applied := set.between(uint64(from), uint64(to))
	logger.Info(ctx, "db.migrate", "migrate.summary", append([]slog.Attr{
		slog.String("status", "ok"),
		slog.Uint64("from_ver", uint64(from)),
		slog.Uint64("to_ver", uint64(to)),
		slog.Duration("duration", took),
	}, set.summary(applied)...)...)
	return nil
}

func migrationsDir(cfg Config) (string, error) {
	dir := cfg.MigrationsDir
	if dir == "" {
		dir = "migrations"
	}
	if filepath.IsAbs(dir) {
		return dir, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, dir), nil
}

// migrationSet maps up-migration file names to their versions.
type migrationSet map[string]uint64

func loadMigrations(dir string) migrationSet {
	set := migrationSet{}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return set
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".up.sql") {
			continue
		}
		prefix, _, _ := strings.Cut(name, "_")
		v, _ := strconv.ParseUint(prefix, 10, 64)
		set[name] = v
	}
	return set
}

func (s migrationSet) names() []string {
	out := make([]string, 0, len(s))
	for name := range s {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// between lists files with from < version <= to.
func (s migrationSet) between(from, to uint64) []string {
	var out []string
	for _, name := range s.names() {
		if v := s[name]; v > from && v <= to {
			out = append(out, name)
		}
	}
	return out
}

func (migrationSet) summary(files []string) []slog.Attr {
	preview, truncated := logger.SummarizeStrings(files, previewFiles)
	attrs := []slog.Attr{slog.Int("files", len(files))}
	if preview != "" {
		attrs = append(attrs, slog.String("files_preview", preview))
	}
	if truncated {
		attrs = append(attrs, slog.Bool("files_truncated", true))
	}
	return attrs
}
