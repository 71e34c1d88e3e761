// Package store caches generated height maps and their renders in SQLite.
package store

import (
	"bytes"
	"compress/gzip"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/MeKo-Tech/webworld/internal/perlin"
	_ "modernc.org/sqlite" // SQLite driver
)

// ErrNotFound is returned by Get when no map matches the key.
var ErrNotFound = errors.New("store: map not found")

// Key identifies a generated map by everything that determines its values.
type Key struct {
	Backend     string
	Height      int
	Width       int
	Octaves     int
	MinGridSize int
	Seed        int64
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%dx%d/o%d/g%d/s%d", k.Backend, k.Width, k.Height, k.Octaves, k.MinGridSize, k.Seed)
}

// Entry is a stored map.
type Entry struct {
	CreatedAt time.Time
	Field     *perlin.Field
	PNG       []byte
	Key       Key
}

// Store is a SQLite-backed map cache.
type Store struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// Open opens or creates the database at path and initializes the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS metadata (
			name TEXT NOT NULL PRIMARY KEY,
			value TEXT
		);

		CREATE TABLE IF NOT EXISTS maps (
			backend TEXT NOT NULL,
			height INTEGER NOT NULL,
			width INTEGER NOT NULL,
			octaves INTEGER NOT NULL,
			min_grid_size INTEGER NOT NULL,
			seed INTEGER NOT NULL,
			field BLOB NOT NULL,
			png BLOB,
			created_at INTEGER NOT NULL
		);

		CREATE UNIQUE INDEX IF NOT EXISTS map_index ON maps (backend, height, width, octaves, min_grid_size, seed);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// SetMetadata stores a name/value pair, replacing any previous value.
func (s *Store) SetMetadata(name, value string) error {
	if _, err := s.db.Exec("INSERT OR REPLACE INTO metadata (name, value) VALUES (?, ?)", name, value); err != nil {
		return fmt.Errorf("failed to set metadata %q: %w", name, err)
	}
	return nil
}

// Metadata returns all metadata pairs.
func (s *Store) Metadata() (map[string]string, error) {
	rows, err := s.db.Query("SELECT name, value FROM metadata")
	if err != nil {
		return nil, fmt.Errorf("failed to query metadata: %w", err)
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("failed to scan metadata row: %w", err)
		}
		meta[name] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating metadata: %w", err)
	}
	return meta, nil
}

// Put inserts or replaces a map. The field is stored gzip-compressed.
func (s *Store) Put(e Entry) error {
	if e.Field == nil {
		return fmt.Errorf("store: entry %s has no field", e.Key)
	}
	blob, err := encodeField(e.Field)
	if err != nil {
		return fmt.Errorf("failed to encode field %s: %w", e.Key, err)
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(`INSERT OR REPLACE INTO maps
		(backend, height, width, octaves, min_grid_size, seed, field, png, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Key.Backend, e.Key.Height, e.Key.Width, e.Key.Octaves, e.Key.MinGridSize, e.Key.Seed,
		blob, e.PNG, e.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert map %s: %w", e.Key, err)
	}
	return nil
}

// Get returns the map stored under k.
func (s *Store) Get(k Key) (*Entry, error) {
	var (
		blob    []byte
		pngData []byte
		created int64
	)
	err := s.db.QueryRow(`SELECT field, png, created_at FROM maps
		WHERE backend=? AND height=? AND width=? AND octaves=? AND min_grid_size=? AND seed=?`,
		k.Backend, k.Height, k.Width, k.Octaves, k.MinGridSize, k.Seed,
	).Scan(&blob, &pngData, &created)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, k)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query map: %w", err)
	}

	field, err := decodeField(blob, k.Width, k.Height)
	if err != nil {
		return nil, fmt.Errorf("failed to decode map %s: %w", k, err)
	}
	return &Entry{
		Key:       k,
		Field:     field,
		PNG:       pngData,
		CreatedAt: time.Unix(created, 0),
	}, nil
}

// List returns the keys of all stored maps, newest first.
func (s *Store) List() ([]Key, error) {
	rows, err := s.db.Query(`SELECT backend, height, width, octaves, min_grid_size, seed
		FROM maps ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list maps: %w", err)
	}
	defer rows.Close()

	var keys []Key
	for rows.Next() {
		var k Key
		if err := rows.Scan(&k.Backend, &k.Height, &k.Width, &k.Octaves, &k.MinGridSize, &k.Seed); err != nil {
			return nil, fmt.Errorf("failed to scan map row: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating maps: %w", err)
	}
	return keys, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// encodeField writes the values as little-endian float64s and gzips them.
func encodeField(f *perlin.Field) ([]byte, error) {
	raw := make([]byte, 8*len(f.Values))
	for i, v := range f.Values {
		binary.LittleEndian.PutUint64(raw[8*i:], math.Float64bits(v))
	}

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(raw); err != nil {
		gw.Close()
		return nil, err
	}
	if err := gw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeField(data []byte, width, height int) (*perlin.Field, error) {
	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer gr.Close()

	raw, err := io.ReadAll(gr)
	if err != nil {
		return nil, err
	}
	if len(raw) != 8*width*height {
		return nil, fmt.Errorf("field has %d bytes, want %d", len(raw), 8*width*height)
	}

	f := perlin.NewField(width, height)
	for i := range f.Values {
		f.Values[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[8*i:]))
	}
	return f, nil
}
