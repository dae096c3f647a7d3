package airports

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/geobot/app/dialog"
	"github.com/m3rciful/geobot/core/bootstrap"
	"github.com/m3rciful/geobot/core/logger"
)

// Static is an in-memory directory used when no database is configured.
type Static struct {
	byCity map[string][]dialog.Airport
}

// NewStatic indexes entries by lower-cased city.
func NewStatic(entries []Entry) *Static {
	s := &Static{byCity: make(map[string][]dialog.Airport)}
	for _, e := range entries {
		key := strings.ToLower(e.City)
		s.byCity[key] = append(s.byCity[key], dialog.Airport{Name: e.Name, Code: e.Code})
	}
	for _, list := range s.byCity {
		sort.Slice(list, func(i, j int) bool {
			if list[i].Name != list[j].Name {
				return list[i].Name < list[j].Name
			}
			return list[i].Code < list[j].Code
		})
	}
	return s
}

// Lookup lists the airports of a city ordered by name.
func (s *Static) Lookup(_ context.Context, city string) ([]dialog.Airport, error) {
	list := s.byCity[strings.ToLower(strings.TrimSpace(city))]
	return append([]dialog.Airport(nil), list...), nil
}

// LoadFile reads and validates a YAML seed file.
func LoadFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open airports file: %w", err)
	}
	defer f.Close()
	return ReadEntries(f)
}

// SeedFile returns a seeder that upserts the entries of a YAML file.
func SeedFile(path string) bootstrap.Seeder {
	return bootstrap.SeederFunc(func(ctx context.Context, db *sqlx.DB) error {
		entries, err := LoadFile(path)
		if err != nil {
			return err
		}
		n, err := New(db).Upsert(ctx, entries)
		if err != nil {
			return err
		}
		logger.Info(ctx, "db.seed", "airports.seeded",
			slog.String("status", "ok"),
			slog.Int("count", n),
		)
		return nil
	})
}
