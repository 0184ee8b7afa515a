// Package storage provides the SQLite block catalog and disk usage helpers.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/chishiki/internal/models"
)

// Catalog records extracted blocks in SQLite so the status command can report
// per-document and per-type counts without re-reading the block files.
type Catalog struct {
	db *sql.DB
}

// NewCatalog opens or creates the catalog database at dbPath and initializes
// the schema. Parent directories are created if they do not exist.
func NewCatalog(dbPath string) (*Catalog, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Catalog{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS blocks (
		doc_id TEXT NOT NULL,
		block_id INTEGER,
		page INTEGER NOT NULL,
		type TEXT NOT NULL,
		content TEXT,
		caption TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_blocks_doc_id ON blocks(doc_id);
	CREATE INDEX IF NOT EXISTS idx_blocks_type ON blocks(type);
	`
	_, err := db.Exec(schema)
	return err
}

// InsertBlocks replaces the catalog rows for docID with the given blocks.
// Parse-error blocks are stored with a NULL block_id.
func (c *Catalog) InsertBlocks(docID string, blocks []models.Block) error {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM blocks WHERE doc_id = ?`, docID); err != nil {
		return fmt.Errorf("failed to clear document blocks: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO blocks (doc_id, block_id, page, type, content, caption, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, b := range blocks {
		var blockID any
		if b.ID != nil {
			blockID = *b.ID
		}
		if _, err := stmt.Exec(docID, blockID, b.Page, b.Type, b.Content, b.Caption, now); err != nil {
			return fmt.Errorf("failed to insert block: %w", err)
		}
	}
	return tx.Commit()
}

// Counts holds the catalog totals reported by the status command.
type Counts struct {
	Documents   int `json:"documents"`
	Blocks      int `json:"blocks"`
	ParseErrors int `json:"parse_errors"`
}

// GetCounts returns document, block, and parse-error totals.
func (c *Catalog) GetCounts() (Counts, error) {
	var counts Counts
	row := c.db.QueryRow(`SELECT
		COUNT(DISTINCT doc_id),
		COUNT(*),
		COUNT(*) FILTER (WHERE type = ?)
		FROM blocks`, models.BlockTypeParseError)
	if err := row.Scan(&counts.Documents, &counts.Blocks, &counts.ParseErrors); err != nil {
		return counts, fmt.Errorf("failed to count blocks: %w", err)
	}
	return counts, nil
}

// CountsByType returns block counts grouped by block type.
func (c *Catalog) CountsByType() (map[string]int, error) {
	rows, err := c.db.Query(`SELECT type, COUNT(*) FROM blocks GROUP BY type`)
	if err != nil {
		return nil, fmt.Errorf("failed to count by type: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var t string
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, err
		}
		counts[t] = n
	}
	return counts, rows.Err()
}

// Close closes the database.
func (c *Catalog) Close() error {
	return c.db.Close()
}
