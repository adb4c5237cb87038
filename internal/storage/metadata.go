package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"docshelf/internal/models"
)

const metadataColumns = "id, document_name, storage_path, tag, summary, summary_updated_at, note_taking, created_at, updated_at"

// MetadataStore is the relational overlay over blobs, keyed by storage
// path. It never decides cross-store sequencing; callers do.
type MetadataStore struct {
	db    *sql.DB
	table string
}

// NewMetadataStore binds the store to its table. The name is validated
// once here so queries can interpolate it safely.
func NewMetadataStore(db *sql.DB, table string) (*MetadataStore, error) {
	quoted, err := QuoteIdent(table)
	if err != nil {
		return nil, fmt.Errorf("metadata table: %w", err)
	}
	return &MetadataStore{db: db, table: quoted}, nil
}

// SelectByPath returns the row for one path, or nil when there is none.
func (s *MetadataStore) SelectByPath(ctx context.Context, path string) (*models.Metadata, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE storage_path = ?`, metadataColumns, s.table)
	m, err := scanMetadata(s.db.QueryRowContext(ctx, query, path))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select metadata by path: %w", err)
	}
	return m, nil
}

// SelectByPaths bulk-fetches rows for the given paths, keyed by path.
// Paths without a row are simply absent from the result.
func (s *MetadataStore) SelectByPaths(ctx context.Context, paths []string) (map[string]*models.Metadata, error) {
	out := make(map[string]*models.Metadata, len(paths))
	if len(paths) == 0 {
		return out, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(paths)), ",")
	args := make([]any, len(paths))
	for i, p := range paths {
		args[i] = p
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE storage_path IN (%s)`, metadataColumns, s.table, placeholders)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select metadata by paths: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		m, err := scanMetadata(rows)
		if err != nil {
			return nil, fmt.Errorf("scan metadata row: %w", err)
		}
		out[m.StoragePath] = m
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate metadata rows: %w", err)
	}
	return out, nil
}

// Insert creates a row and returns its id.
func (s *MetadataStore) Insert(ctx context.Context, m *models.Metadata) (int64, error) {
	tags, err := encodeTags(m.Tags)
	if err != nil {
		return 0, fmt.Errorf("encode tags: %w", err)
	}
	query := fmt.Sprintf(`INSERT INTO %s (document_name, storage_path, tag, summary, summary_updated_at, note_taking, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, s.table)
	res, err := s.db.ExecContext(ctx, query,
		m.DocumentName, m.StoragePath, tags, m.Summary, m.SummaryUpdatedAt, m.NoteTaking, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return 0, fmt.Errorf("insert metadata: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("metadata id: %w", err)
	}
	return id, nil
}

// UpdateName renames the document and reports affected rows.
func (s *MetadataStore) UpdateName(ctx context.Context, path, name string) (int64, error) {
	query := fmt.Sprintf(`UPDATE %s SET document_name = ?, updated_at = ? WHERE storage_path = ?`, s.table)
	res, err := s.db.ExecContext(ctx, query, name, time.Now().UTC(), path)
	if err != nil {
		return 0, fmt.Errorf("update metadata name: %w", err)
	}
	return res.RowsAffected()
}

// UpdateDocument renames and retags in one statement, reporting affected
// rows.
func (s *MetadataStore) UpdateDocument(ctx context.Context, path, name string, tags []string) (int64, error) {
	encoded, err := encodeTags(tags)
	if err != nil {
		return 0, fmt.Errorf("encode tags: %w", err)
	}
	query := fmt.Sprintf(`UPDATE %s SET document_name = ?, tag = ?, updated_at = ? WHERE storage_path = ?`, s.table)
	res, err := s.db.ExecContext(ctx, query, name, encoded, time.Now().UTC(), path)
	if err != nil {
		return 0, fmt.Errorf("update metadata document: %w", err)
	}
	return res.RowsAffected()
}

// UpdateSummary stores a summary and its timestamp, reporting affected
// rows. Zero rows means the caller must insert instead; that check is the
// upsert-by-path primitive.
func (s *MetadataStore) UpdateSummary(ctx context.Context, path, summary string, at time.Time) (int64, error) {
	query := fmt.Sprintf(`UPDATE %s SET summary = ?, summary_updated_at = ?, updated_at = ? WHERE storage_path = ?`, s.table)
	res, err := s.db.ExecContext(ctx, query, summary, at, at, path)
	if err != nil {
		return 0, fmt.Errorf("update metadata summary: %w", err)
	}
	return res.RowsAffected()
}

// UpdateNote stores the freeform note, reporting affected rows. A nil
// note clears the column.
func (s *MetadataStore) UpdateNote(ctx context.Context, path string, note *string) (int64, error) {
	query := fmt.Sprintf(`UPDATE %s SET note_taking = ?, updated_at = ? WHERE storage_path = ?`, s.table)
	res, err := s.db.ExecContext(ctx, query, note, time.Now().UTC(), path)
	if err != nil {
		return 0, fmt.Errorf("update metadata note: %w", err)
	}
	return res.RowsAffected()
}

// DeleteByPath removes the row. Deleting a path with no row is not an
// error; the join is blob-driven and rows are an overlay.
func (s *MetadataStore) DeleteByPath(ctx context.Context, path string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE storage_path = ?`, s.table)
	if _, err := s.db.ExecContext(ctx, query, path); err != nil {
		return fmt.Errorf("delete metadata: %w", err)
	}
	return nil
}

// ListPaths enumerates every storage path with a row. The orphan sweeper
// diffs this against the blob listing.
func (s *MetadataStore) ListPaths(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf(`SELECT storage_path FROM %s`, s.table)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list metadata paths: %w", err)
	}
	defer rows.Close()
	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan metadata path: %w", err)
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate metadata paths: %w", err)
	}
	return paths, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMetadata(row scanner) (*models.Metadata, error) {
	var (
		m       models.Metadata
		tagsRaw sql.NullString
		summary sql.NullString
		sumAt   sql.NullTime
		note    sql.NullString
	)
	if err := row.Scan(&m.ID, &m.DocumentName, &m.StoragePath, &tagsRaw, &summary, &sumAt, &note, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	m.Tags = decodeTags(tagsRaw.String)
	if summary.Valid {
		v := summary.String
		m.Summary = &v
	}
	if sumAt.Valid {
		v := sumAt.Time
		m.SummaryUpdatedAt = &v
	}
	if note.Valid {
		v := note.String
		m.NoteTaking = &v
	}
	return &m, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeTags(raw string) []string {
	if raw == "" {
		return []string{}
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil || tags == nil {
		return []string{}
	}
	return tags
}
