package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	applog "github.com/bryantchakote/rag-app-avct/internal/platform/log"

	"github.com/bryantchakote/rag-app-avct/internal/domain/rag"
)

// Store PostgreSQL-backed IndexStore. One row per index in rag_indexes, its
// chunks in rag_chunks with vectors serialized as JSONB. Put and Delete run
// in a transaction so readers never see a half-written index.
type Store struct {
	db *sql.DB
}

// NewStore creates a PostgreSQL store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureTables creates the schema if it does not exist.
func (s *Store) EnsureTables(ctx context.Context) error {
	ddl := `
	CREATE TABLE IF NOT EXISTS rag_indexes (
		position        BIGSERIAL,
		index_id        UUID PRIMARY KEY,
		document_path   VARCHAR(512) NOT NULL,
		document_name   VARCHAR(255) NOT NULL UNIQUE,
		language        VARCHAR(16) NOT NULL DEFAULT '',
		embedding_model VARCHAR(128) NOT NULL,
		chunk_count     INTEGER NOT NULL DEFAULT 0,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS rag_chunks (
		index_id     UUID NOT NULL REFERENCES rag_indexes(index_id) ON DELETE CASCADE,
		chunk_offset INTEGER NOT NULL,
		page         INTEGER NOT NULL,
		content      TEXT NOT NULL,
		vector       JSONB NOT NULL,
		PRIMARY KEY (index_id, chunk_offset)
	);
	CREATE INDEX IF NOT EXISTS idx_rag_chunks_index ON rag_chunks(index_id);
	`
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

func (s *Store) Put(ctx context.Context, cfg *rag.IndexConfig, chunks []rag.Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO rag_indexes (index_id, document_path, document_name, language, embedding_model, chunk_count, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		cfg.IndexID, cfg.DocumentPath, filepath.Base(cfg.DocumentPath), cfg.Language, cfg.EmbeddingModel, cfg.ChunkCount, cfg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert index: %w", err)
	}

	// batch-insert chunks, 200 rows per statement
	const batch = 200
	for start := 0; start < len(chunks); start += batch {
		end := start + batch
		if end > len(chunks) {
			end = len(chunks)
		}

		var sb strings.Builder
		sb.WriteString(`INSERT INTO rag_chunks (index_id, chunk_offset, page, content, vector) VALUES `)
		args := make([]interface{}, 0, (end-start)*5)
		for i, ch := range chunks[start:end] {
			if i > 0 {
				sb.WriteString(", ")
			}
			base := i * 5
			sb.WriteString(fmt.Sprintf("($%d,$%d,$%d,$%d,$%d)", base+1, base+2, base+3, base+4, base+5))

			vecJSON, err := json.Marshal(ch.Vector)
			if err != nil {
				return fmt.Errorf("marshal vector: %w", err)
			}
			args = append(args, cfg.IndexID, ch.Offset, ch.Page, ch.Text, vecJSON)
		}
		if _, err := tx.ExecContext(ctx, sb.String(), args...); err != nil {
			return fmt.Errorf("insert chunks: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	applog.Debug("[Storage] Index persisted", "index_id", cfg.IndexID, "chunks", len(chunks))
	return nil
}

func (s *Store) Get(ctx context.Context, indexID string) (*rag.IndexConfig, error) {
	cfg := &rag.IndexConfig{}
	err := s.db.QueryRowContext(ctx,
		`SELECT index_id, document_path, language, embedding_model, chunk_count, created_at
		 FROM rag_indexes WHERE index_id = $1`, indexID,
	).Scan(&cfg.IndexID, &cfg.DocumentPath, &cfg.Language, &cfg.EmbeddingModel, &cfg.ChunkCount, &cfg.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func (s *Store) List(ctx context.Context) ([]*rag.IndexConfig, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT index_id, document_path, language, embedding_model, chunk_count, created_at
		 FROM rag_indexes ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var configs []*rag.IndexConfig
	for rows.Next() {
		cfg := &rag.IndexConfig{}
		if err := rows.Scan(&cfg.IndexID, &cfg.DocumentPath, &cfg.Language, &cfg.EmbeddingModel, &cfg.ChunkCount, &cfg.CreatedAt); err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return configs, rows.Err()
}

func (s *Store) Delete(ctx context.Context, indexID string) (bool, error) {
	// rag_chunks rows go with the index via ON DELETE CASCADE
	res, err := s.db.ExecContext(ctx, `DELETE FROM rag_indexes WHERE index_id = $1`, indexID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) Chunks(ctx context.Context, indexID string) ([]rag.Chunk, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT chunk_offset, page, content, vector
		 FROM rag_chunks WHERE index_id = $1 ORDER BY chunk_offset`, indexID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []rag.Chunk
	for rows.Next() {
		var ch rag.Chunk
		var vecJSON []byte
		if err := rows.Scan(&ch.Offset, &ch.Page, &ch.Text, &vecJSON); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(vecJSON, &ch.Vector); err != nil {
			return nil, fmt.Errorf("unmarshal vector: %w", err)
		}
		chunks = append(chunks, ch)
	}
	return chunks, rows.Err()
}

func (s *Store) SetLanguage(ctx context.Context, indexID, language string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE rag_indexes SET language = $1 WHERE index_id = $2`, language, indexID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("index %q not found", indexID)
	}
	return nil
}

func (s *Store) ExistsByName(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM rag_indexes WHERE document_name = $1)`, name,
	).Scan(&exists)
	return exists, err
}
