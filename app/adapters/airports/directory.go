// Package airports is the SQL-backed airport directory.
package airports

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jmoiron/sqlx"
	"gopkg.in/yaml.v3"

	"github.com/m3rciful/geobot/app/dialog"
)

const (
	lookupQuery = `SELECT name, code FROM airports WHERE lower(city) = lower(?) ORDER BY name, code`
	upsertQuery = `INSERT INTO airports (city, name, code) VALUES (:city, :name, :code)
ON CONFLICT (code) DO UPDATE SET city = excluded.city, name = excluded.name`
)

// Entry is one row of the directory.
type Entry struct {
	City string `db:"city" yaml:"city"`
	Name string `db:"name" yaml:"name"`
	Code string `db:"code" yaml:"code"`
}

// Directory implements dialog.AirportDirectory.
type Directory struct {
	db *sqlx.DB
}

// New wraps an open database handle.
func New(db *sqlx.DB) *Directory {
	return &Directory{db: db}
}

// Lookup lists the airports of a city ordered by name. An unknown city yields an empty slice.
func (d *Directory) Lookup(ctx context.Context, city string) ([]dialog.Airport, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return nil, nil
	}
	var rows []Entry
	if err := d.db.SelectContext(ctx, &rows, d.db.Rebind(lookupQuery), city); err != nil {
		return nil, fmt.Errorf("airports for %q: %w", city, err)
	}
	out := make([]dialog.Airport, 0, len(rows))
	for _, r := range rows {
		out = append(out, dialog.Airport{Name: r.Name, Code: r.Code})
	}
	return out, nil
}

// Upsert inserts or updates entries by code in a single transaction.
func (d *Directory) Upsert(ctx context.Context, entries []Entry) (int, error) {
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	n := 0
	for _, e := range entries {
		if _, err := tx.NamedExecContext(ctx, upsertQuery, e); err != nil {
			return 0, fmt.Errorf("upsert %s: %w", e.Code, err)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

// ReadEntries decodes a YAML list of entries and validates it.
func ReadEntries(r io.Reader) ([]Entry, error) {
	var doc struct {
		Airports []Entry `yaml:"airports"`
	}
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode airports: %w", err)
	}
	seen := make(map[string]struct{}, len(doc.Airports))
	for i, e := range doc.Airports {
		e.City = strings.TrimSpace(e.City)
		e.Name = strings.TrimSpace(e.Name)
		e.Code = strings.ToUpper(strings.TrimSpace(e.Code))
		if e.City == "" || e.Name == "" || e.Code == "" {
			return nil, fmt.Errorf("airports[%d]: city, name and code are required", i)
		}
		if strings.Contains(e.Name, ", ") {
			return nil, fmt.Errorf("airports[%d]: name %q must not contain \", \"", i, e.Name)
		}
		if _, dup := seen[e.Code]; dup {
			return nil, fmt.Errorf("airports[%d]: duplicate code %s", i, e.Code)
		}
		seen[e.Code] = struct{}{}
		doc.Airports[i] = e
	}
	return doc.Airports, nil
}
