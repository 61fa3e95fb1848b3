package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/garnizeh/capacity/internal/db"
	"github.com/garnizeh/capacity/pkg/repository"
)

// SQLiteRepo implements repository interfaces using the internal DB wrapper.
type SQLiteRepo struct {
	conn   *db.DB
	logger *slog.Logger
}

// Ensure SQLiteRepo implements the public interfaces.
var _ repository.EngineerRepo = (*SQLiteRepo)(nil)
var _ repository.ProjectRepo = (*SQLiteRepo)(nil)
var _ repository.AssignmentRepo = (*SQLiteRepo)(nil)

func New(conn *db.DB, logger *slog.Logger) *SQLiteRepo {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteRepo{conn: conn, logger: logger}
}

// Repository returns r wired into every collaborator slot.
func (r *SQLiteRepo) Repository() *repository.Repository {
	return &repository.Repository{Engineer: r, Project: r, Assignment: r}
}

func now() int64 {
	return time.Now().UTC().UnixMilli()
}

func millis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func tombstone(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := fromMillis(v.Int64)
	return &t
}

func encodeList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encode list: %w", err)
	}
	return string(b), nil
}

func decodeList(s string) ([]string, error) {
	out := []string{}
	if s == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// where accumulates AND-ed conditions for list queries.
type where struct {
	clauses []string
	args    []any
}

func (w *where) add(clause string, args ...any) {
	w.clauses = append(w.clauses, clause)
	w.args = append(w.args, args...)
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

// bumpVersion advances the engineer's allocation version inside tx if it still
// equals expected.
func bumpVersion(ctx context.Context, tx *sql.Tx, engineerID, expected int64) error {
	res, err := tx.ExecContext(ctx, `UPDATE engineers SET allocation_version = allocation_version + 1 WHERE id = ? AND allocation_version = ? AND deleted_at IS NULL`, engineerID, expected)
	if err != nil {
		return fmt.Errorf("bump allocation version: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("bump allocation version: %w", err)
	}
	if n == 0 {
		return repository.ErrVersionConflict
	}
	return nil
}
