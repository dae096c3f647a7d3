package airports

import (
	"context"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/geobot/app/dialog"
)

const schema = `CREATE TABLE airports (
	code TEXT PRIMARY KEY,
	city TEXT NOT NULL,
	name TEXT NOT NULL
)`

func openDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(schema)
	require.NoError(t, err)
	return db
}

const seed = `
airports:
  - city: Москва
    name: Шереметьево
    code: svo
  - city: Москва
    name: Внуково
    code: VKO
  - city: Казань
    name: Казань
    code: KZN
`

func TestDirectory_Lookup(t *testing.T) {
	ctx := context.Background()
	d := New(openDB(t))

	entries, err := ReadEntries(strings.NewReader(seed))
	require.NoError(t, err)
	n, err := d.Upsert(ctx, entries)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	got, err := d.Lookup(ctx, "Москва")
	require.NoError(t, err)
	assert.Equal(t, []dialog.Airport{
		{Name: "Внуково", Code: "VKO"},
		{Name: "Шереметьево", Code: "SVO"},
	}, got)

	got, err = d.Lookup(ctx, "Париж")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDirectory_UpsertUpdates(t *testing.T) {
	ctx := context.Background()
	d := New(openDB(t))

	_, err := d.Upsert(ctx, []Entry{{City: "Казань", Name: "Казань", Code: "KZN"}})
	require.NoError(t, err)
	_, err = d.Upsert(ctx, []Entry{{City: "Казань", Name: "Международный аэропорт Казань", Code: "KZN"}})
	require.NoError(t, err)

	got, err := d.Lookup(ctx, "Казань")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Международный аэропорт Казань", got[0].Name)
}

func TestReadEntries_Invalid(t *testing.T) {
	_, err := ReadEntries(strings.NewReader("airports:\n  - city: Москва\n    name: Шереметьево\n"))
	assert.Error(t, err)

	_, err = ReadEntries(strings.NewReader("airports:\n  - {city: A, name: 'B, C', code: X}\n"))
	assert.Error(t, err)

	_, err = ReadEntries(strings.NewReader("airports:\n  - {city: A, name: B, code: X}\n  - {city: A, name: C, code: x}\n"))
	assert.Error(t, err)
}
