// Package catalog persists tool definitions with their embeddings in sqlite and serves
// similarity search over them.
package catalog

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/rs/zerolog"
	"github.com/tmc/langchaingo/embeddings"
	"go-toolrouter/pkg/logger"
	"go-toolrouter/pkg/models"
	"math"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const DefaultName = "api_tools"

var ErrToolNotFound = errors.New("tool not found")

type Config struct {
	// Path of the sqlite database file. It is created when missing.
	Path string
	// Name labels the collection in Info.
	Name string
}

// Store is safe for concurrent readers. IndexTools is serialised and only populates an
// empty store.
type Store struct {
	db       *sql.DB
	embedder embeddings.Embedder
	name     string
	mu       sync.Mutex
	log      zerolog.Logger
}

type Info struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func Open(ctx context.Context, cfg Config, embedder embeddings.Embedder) (*Store, error) {
	if cfg.Path == "" {
		return nil, errors.New("database path is required")
	}
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if cfg.Name == "" {
		cfg.Name = DefaultName
	}

	db, err := sql.Open("sqlite", cfg.Path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect database: %w", err)
	}

	s := &Store{db: db, embedder: embedder, name: cfg.Name, log: logger.For("catalog")}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS tools (
			id TEXT PRIMARY KEY,
			seq INTEGER NOT NULL,
			domain TEXT NOT NULL,
			definition TEXT NOT NULL,
			document TEXT NOT NULL,
			embedding BLOB NOT NULL,
			indexed_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tools_domain ON tools(domain)`,
	}
	for _, m := range migrations {
		if _, err := s.db.ExecContext(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tools`).Scan(&n)
	return n, err
}

// IndexTools embeds and stores tools. It does nothing when the store already holds tools
// and reports how many were written.
func (s *Store) IndexTools(ctx context.Context, tools []models.ToolDefinition) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	if n > 0 {
		s.log.Info().Int("tools", n).Msg("tools already indexed, skipping")
		return 0, nil
	}
	if len(tools) == 0 {
		return 0, nil
	}

	docs := make([]string, len(tools))
	for i, t := range tools {
		docs[i] = Document(t)
	}
	vectors, err := s.embedder.EmbedDocuments(ctx, docs)
	if err != nil {
		return 0, fmt.Errorf("embed: %w", err)
	}
	if len(vectors) != len(tools) {
		return 0, fmt.Errorf("embed: got %d vectors for %d tools", len(vectors), len(tools))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO tools (id, seq, domain, definition, document, embedding) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for i, t := range tools {
		def, err := json.Marshal(t)
		if err != nil {
			return 0, fmt.Errorf("marshal %s: %w", t.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, t.ID, i, string(t.Domain), string(def), docs[i], encodeVector(vectors[i])); err != nil {
			return 0, fmt.Errorf("insert %s: %w", t.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	s.log.Info().Int("tools", len(tools)).Msg("indexed tools")
	return len(tools), nil
}

func (s *Store) ListTools(ctx context.Context) ([]models.ToolDefinition, error) {
	return s.query(ctx, `SELECT definition FROM tools ORDER BY seq`)
}

func (s *Store) ToolsByDomain(ctx context.Context, domain models.Domain) ([]models.ToolDefinition, error) {
	return s.query(ctx, `SELECT definition FROM tools WHERE domain = ? ORDER BY seq`, string(domain))
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]models.ToolDefinition, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query tools: %w", err)
	}
	defer rows.Close()

	var tools []models.ToolDefinition
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		var t models.ToolDefinition
		if err := json.Unmarshal([]byte(raw), &t); err != nil {
			return nil, fmt.Errorf("decode tool: %w", err)
		}
		tools = append(tools, t)
	}
	return tools, rows.Err()
}

func (s *Store) Get(ctx context.Context, id string) (models.ToolDefinition, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT definition FROM tools WHERE id = ?`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ToolDefinition{}, fmt.Errorf("%w: %s", ErrToolNotFound, id)
	}
	if err != nil {
		return models.ToolDefinition{}, fmt.Errorf("get tool: %w", err)
	}
	var t models.ToolDefinition
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		return models.ToolDefinition{}, fmt.Errorf("decode tool: %w", err)
	}
	return t, nil
}

func (s *Store) Info(ctx context.Context) (Info, error) {
	n, err := s.count(ctx)
	if err != nil {
		return Info{Name: s.name}, fmt.Errorf("count: %w", err)
	}
	return Info{Name: s.name, Count: n}, nil
}

// Reset removes every indexed tool so the next IndexTools repopulates the store.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM tools`); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	s.log.Info().Str("collection", s.name).Msg("catalog reset")
	return nil
}

type entry struct {
	tool   models.ToolDefinition
	vector []float32
}

func (s *Store) entries(ctx context.Context, domain models.Domain) ([]entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT definition, embedding FROM tools WHERE domain = ? ORDER BY seq`, string(domain))
	if err != nil {
		return nil, fmt.Errorf("query embeddings: %w", err)
	}
	defer rows.Close()

	var out []entry
	for rows.Next() {
		var raw string
		var blob []byte
		if err := rows.Scan(&raw, &blob); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		var e entry
		if err := json.Unmarshal([]byte(raw), &e.tool); err != nil {
			return nil, fmt.Errorf("decode tool: %w", err)
		}
		e.vector = decodeVector(blob)
		out = append(out, e)
	}
	return out, rows.Err()
}

func encodeVector(v []float32) []byte {
	b := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(b[4*i:], math.Float32bits(f))
	}
	return b
}

func decodeVector(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v
}
