package out

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"bark/internal/modules/history/domain"
	historyout "bark/internal/modules/history/port/out"
	providerdomain "bark/internal/modules/provider/domain"
)

const timeLayout = "2006-01-02T15:04:05Z07:00"

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (historyout.Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	store := &SQLiteStore{db: db}
	if err := store.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS connections (
  id TEXT PRIMARY KEY,
  plugin TEXT NOT NULL,
  name TEXT NOT NULL,
  config TEXT NOT NULL,
  last_used TEXT NOT NULL,
  UNIQUE(plugin, name)
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create connections table: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Save(ctx context.Context, conn domain.SavedConnection) error {
	id := conn.ID
	if id == "" {
		id = uuid.NewString()
	}
	lastUsed := conn.LastUsed
	if lastUsed.IsZero() {
		lastUsed = time.Now()
	}
	values, err := json.Marshal(conn.Config.Persistable().Values)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	const stmt = `
INSERT INTO connections (id, plugin, name, config, last_used)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(plugin, name) DO UPDATE SET
  config=excluded.config,
  last_used=excluded.last_used;
`
	if _, err := s.db.ExecContext(ctx, stmt,
		id,
		conn.Plugin,
		conn.Config.Name,
		string(values),
		lastUsed.UTC().Format(timeLayout),
	); err != nil {
		return fmt.Errorf("save connection: %w", err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]domain.SavedConnection, error) {
	const query = `SELECT id, plugin, name, config, last_used FROM connections ORDER BY last_used DESC, name ASC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	defer rows.Close()

	var conns []domain.SavedConnection
	for rows.Next() {
		var (
			conn     domain.SavedConnection
			name     string
			rawCfg   string
			rawStamp string
		)
		if err := rows.Scan(&conn.ID, &conn.Plugin, &name, &rawCfg, &rawStamp); err != nil {
			return nil, fmt.Errorf("scan connection: %w", err)
		}
		values := map[string]string{}
		if err := json.Unmarshal([]byte(rawCfg), &values); err != nil {
			return nil, fmt.Errorf("decode config for %s: %w", name, err)
		}
		conn.Config = providerdomain.Config{Name: name, Values: values}
		if stamp, err := time.Parse(timeLayout, rawStamp); err == nil {
			conn.LastUsed = stamp
		}
		conns = append(conns, conn)
	}
	return conns, rows.Err()
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM connections WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete connection: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
