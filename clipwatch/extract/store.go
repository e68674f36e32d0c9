package extract

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/clipwatch/clipwatch/filesystem/common"

	"github.com/rs/zerolog"
	_ "github.com/tursodatabase/go-libsql"
)

// OpenStore opens the isolated store copy at path and checks that it reads as
// a database by touching its schema table.
func OpenStore(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("libsql", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrStoreOpen, err)
	}

	var tables int
	if err := db.QueryRowContext(ctx, "SELECT count(*) FROM sqlite_master").Scan(&tables); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %w", common.ErrStoreOpen, err)
	}
	return db, nil
}

// BlobSelector searches a store of unknown schema for the preview image.
type BlobSelector struct {
	// Tables are tried in order; absent tables are skipped
	Tables []string
	// MinSize is the length a binary value must exceed to count as an image
	MinSize int

	logger zerolog.Logger
}

// NewBlobSelector creates a selector over the given candidate tables
func NewBlobSelector(tables []string, minSize int, logger zerolog.Logger) *BlobSelector {
	return &BlobSelector{
		Tables:  append([]string(nil), tables...),
		MinSize: minSize,
		logger:  logger,
	}
}

// SelectPreviewBlob is a convenience wrapper around BlobSelector.Select
func SelectPreviewBlob(ctx context.Context, db *sql.DB, tables []string, minSize int) ([]byte, error) {
	return NewBlobSelector(tables, minSize, zerolog.Nop()).Select(ctx, db)
}

// Select returns the first binary column value longer than MinSize found in
// the first row of a candidate table, walking tables then columns in order.
func (s *BlobSelector) Select(ctx context.Context, db *sql.DB) ([]byte, error) {
	for _, table := range s.Tables {
		blob, err := s.firstRowBlob(ctx, db, table)
		if err != nil {
			// Schemas differ between producer versions
			s.logger.Debug().Str("table", table).Err(err).Msg("Skipping candidate table")
			continue
		}
		if blob != nil {
			s.logger.Debug().Str("table", table).Int("bytes", len(blob)).Msg("Found preview blob")
			return blob, nil
		}
	}

	return nil, fmt.Errorf("%w: checked tables %s", common.ErrNoPreviewFound, strings.Join(s.Tables, ", "))
}

func (s *BlobSelector) firstRowBlob(ctx context.Context, db *sql.DB, table string) ([]byte, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT 1", quoteIdent(table)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	if !rows.Next() {
		return nil, rows.Err()
	}

	values := make([]any, len(columns))
	dest := make([]any, len(columns))
	for i := range values {
		dest[i] = &values[i]
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, err
	}

	for _, v := range values {
		if b, ok := v.([]byte); ok && len(b) > s.MinSize {
			return append([]byte(nil), b...), nil
		}
	}
	return nil, nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
