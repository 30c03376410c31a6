// Package persistence provides SQLite-based farm state storage.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/etherpets/internal/agents"
	"github.com/talgya/etherpets/internal/engine"
	"github.com/talgya/etherpets/internal/world"
)

// DB wraps a SQLite connection for farm state persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS pets (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		base_attack INTEGER NOT NULL,
		speed REAL NOT NULL,
		disposition TEXT NOT NULL,
		pos_x REAL NOT NULL,
		pos_y REAL NOT NULL,
		pos_z REAL NOT NULL,
		facing INTEGER NOT NULL,
		timers_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tick INTEGER NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL,
		meta_json TEXT
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_tick ON events(tick);
	CREATE INDEX IF NOT EXISTS idx_events_category ON events(category);
	`
	_, err := db.conn.Exec(schema)
	return err
}

type petRow struct {
	ID          string  `db:"id"`
	Name        string  `db:"name"`
	BaseAttack  int     `db:"base_attack"`
	Speed       float64 `db:"speed"`
	Disposition string  `db:"disposition"`
	X           float64 `db:"pos_x"`
	Y           float64 `db:"pos_y"`
	Z           float64 `db:"pos_z"`
	Facing      uint8   `db:"facing"`
	TimersJSON  string  `db:"timers_json"`
}

// SavePets writes all pets to the database (full replace).
func (db *DB) SavePets(pets []agents.Agent) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM pets"); err != nil {
		return err
	}

	for _, a := range pets {
		timersJSON, _ := json.Marshal(a.Timers)
		row := petRow{
			ID:          a.ID,
			Name:        a.Name,
			BaseAttack:  a.BaseAttack,
			Speed:       a.Speed,
			Disposition: a.Disposition.String(),
			X:           a.Position.X,
			Y:           a.Position.Y,
			Z:           a.Position.Z,
			Facing:      uint8(a.Facing),
			TimersJSON:  string(timersJSON),
		}
		_, err := tx.NamedExec(`INSERT INTO pets
			(id, name, base_attack, speed, disposition, pos_x, pos_y, pos_z, facing, timers_json)
			VALUES (:id, :name, :base_attack, :speed, :disposition, :pos_x, :pos_y, :pos_z, :facing, :timers_json)`,
			row)
		if err != nil {
			return fmt.Errorf("insert pet %s: %w", a.ID, err)
		}
	}

	return tx.Commit()
}

// LoadPets reads every saved pet.
func (db *DB) LoadPets() ([]agents.Agent, error) {
	var rows []petRow
	if err := db.conn.Select(&rows, "SELECT * FROM pets ORDER BY rowid"); err != nil {
		return nil, fmt.Errorf("load pets: %w", err)
	}

	out := make([]agents.Agent, 0, len(rows))
	for _, r := range rows {
		disp, _ := agents.ParseEmotion(r.Disposition)
		a := agents.Agent{
			ID:          r.ID,
			Name:        r.Name,
			BaseAttack:  r.BaseAttack,
			Speed:       r.Speed,
			Disposition: disp,
			Position:    world.Vec3{X: r.X, Y: r.Y, Z: r.Z},
			Facing:      agents.Direction(r.Facing),
		}
		if err := json.Unmarshal([]byte(r.TimersJSON), &a.Timers); err != nil {
			return nil, fmt.Errorf("pet %s timers: %w", r.ID, err)
		}
		out = append(out, a)
	}
	return out, nil
}

// SaveEvents appends events to the database.
func (db *DB) SaveEvents(events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		var meta sql.NullString
		if len(e.Meta) > 0 {
			b, _ := json.Marshal(e.Meta)
			meta = sql.NullString{String: string(b), Valid: true}
		}
		_, err := tx.Exec(
			"INSERT INTO events (tick, description, category, meta_json) VALUES (?, ?, ?, ?)",
			e.Tick, e.Description, e.Category, meta,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// SaveMeta stores a key-value pair in world metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	return value, err
}

// HasWorldState reports whether a farm has been saved before.
func (db *DB) HasWorldState() bool {
	_, err := db.GetMeta("last_tick")
	return err == nil
}

// Resume is the saved clock of a farm.
type Resume struct {
	Tick  uint64
	Clock float64
	Seed  int64
}

// LoadResume reads the saved tick, clock and seed.
func (db *DB) LoadResume() (Resume, error) {
	var r Resume
	tickStr, err := db.GetMeta("last_tick")
	if errors.Is(err, sql.ErrNoRows) {
		return r, nil
	}
	if err != nil {
		return r, err
	}
	if r.Tick, err = strconv.ParseUint(tickStr, 10, 64); err != nil {
		return r, fmt.Errorf("last_tick: %w", err)
	}
	if s, err := db.GetMeta("clock"); err == nil {
		r.Clock, _ = strconv.ParseFloat(s, 64)
	}
	if s, err := db.GetMeta("seed"); err == nil {
		r.Seed, _ = strconv.ParseInt(s, 10, 64)
	}
	return r, nil
}

// SaveWorldState performs a full save of all farm state. Only events emitted
// since the previous save are appended.
func (db *DB) SaveWorldState(sim *engine.Simulation, seed int64) error {
	pets := sim.PetStates()
	events := sim.TakeUnsavedEvents()
	snap := sim.Snapshot()
	slog.Info("saving world state", "pets", len(pets), "events", len(events))

	if err := db.SavePets(pets); err != nil {
		return fmt.Errorf("save pets: %w", err)
	}
	if err := db.SaveEvents(events); err != nil {
		return fmt.Errorf("save events: %w", err)
	}
	meta := map[string]string{
		"last_tick": strconv.FormatUint(snap.Tick, 10),
		"clock":     strconv.FormatFloat(snap.Clock, 'f', -1, 64),
		"seed":      strconv.FormatInt(seed, 10),
	}
	for k, v := range meta {
		if err := db.SaveMeta(k, v); err != nil {
			return fmt.Errorf("save meta: %w", err)
		}
	}

	slog.Info("world state saved")
	return nil
}

type eventRow struct {
	Tick        uint64         `db:"tick"`
	Description string         `db:"description"`
	Category    string         `db:"category"`
	Meta        sql.NullString `db:"meta_json"`
}

// RecentEvents returns the most recent N events, newest first.
func (db *DB) RecentEvents(limit int) ([]engine.Event, error) {
	var rows []eventRow
	err := db.conn.Select(&rows,
		"SELECT tick, description, category, meta_json FROM events ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}

	events := make([]engine.Event, 0, len(rows))
	for _, r := range rows {
		e := engine.Event{Tick: r.Tick, Description: r.Description, Category: r.Category}
		if r.Meta.Valid {
			_ = json.Unmarshal([]byte(r.Meta.String), &e.Meta)
		}
		events = append(events, e)
	}
	return events, nil
}
