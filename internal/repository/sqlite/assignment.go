package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/garnizeh/capacity/pkg/models"
	"github.com/garnizeh/capacity/pkg/repository"
)

const assignmentColumns = `id, engineer_id, project_id, allocation_percentage, start_date, end_date, status, role, created, updated, deleted_at`

func scanAssignment(s scanner) (*models.Assignment, error) {
	var (
		a          models.Assignment
		start, end int64
		deleted    sql.NullInt64
	)
	if err := s.Scan(&a.ID, &a.EngineerID, &a.ProjectID, &a.AllocationPercentage, &start, &end, &a.Status, &a.Role,
		&a.Created, &a.Updated, &deleted); err != nil {
		return nil, err
	}
	a.StartDate = fromMillis(start)
	a.EndDate = fromMillis(end)
	a.DeletedAt = tombstone(deleted)
	return &a, nil
}

// CreateAssignment inserts a and advances the engineer's allocation version in
// the same transaction.
func (r *SQLiteRepo) CreateAssignment(ctx context.Context, a *models.Assignment, expectedVersion int64) (int64, error) {
	if a == nil {
		return 0, fmt.Errorf("assignment is nil")
	}
	status := a.Status
	if status == "" {
		status = models.AssignmentActive
	}

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := bumpVersion(ctx, tx, a.EngineerID, expectedVersion); err != nil {
		return 0, err
	}

	ts := now()
	res, err := tx.ExecContext(ctx, `INSERT INTO assignments (engineer_id, project_id, allocation_percentage, start_date, end_date, status, role, created, updated) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.EngineerID, a.ProjectID, a.AllocationPercentage, millis(a.StartDate), millis(a.EndDate), status, a.Role, ts, ts)
	if err != nil {
		return 0, fmt.Errorf("insert assignment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepo) GetAssignment(ctx context.Context, id int64) (*models.Assignment, error) {
	a, err := scanAssignment(r.conn.QueryRow(ctx, `SELECT `+assignmentColumns+` FROM assignments WHERE id = ? AND deleted_at IS NULL`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

func assignmentWhere(f repository.AssignmentFilter) *where {
	w := &where{}
	if !f.IncludeDeleted {
		w.add(`deleted_at IS NULL`)
	}
	if f.EngineerID != 0 {
		w.add(`engineer_id = ?`, f.EngineerID)
	}
	if f.ProjectID != 0 {
		w.add(`project_id = ?`, f.ProjectID)
	}
	if f.Status != "" {
		w.add(`status = ?`, f.Status)
	}
	if f.ExcludeID != 0 {
		w.add(`id != ?`, f.ExcludeID)
	}
	if f.To != nil {
		w.add(`start_date <= ?`, millis(*f.To))
	}
	if f.From != nil {
		w.add(`end_date >= ?`, millis(*f.From))
	}
	if f.StartsAfter != nil {
		w.add(`start_date > ?`, millis(*f.StartsAfter))
	}
	return w
}

func (r *SQLiteRepo) ListAssignments(ctx context.Context, f repository.AssignmentFilter) ([]models.Assignment, error) {
	w := assignmentWhere(f)
	q := `SELECT ` + assignmentColumns + ` FROM assignments` + w.String()
	if f.OrderByStartDesc {
		q += ` ORDER BY start_date DESC, id`
	} else {
		q += ` ORDER BY id`
	}
	args := w.args
	switch {
	case f.Limit > 0:
		q += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	case f.Offset > 0:
		q += ` LIMIT -1 OFFSET ?`
		args = append(args, f.Offset)
	}

	rows, err := r.conn.QueryRows(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()

	var out []models.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		out = append(out, *a)
	}

	return out, rows.Err()
}

func (r *SQLiteRepo) CountAssignments(ctx context.Context, f repository.AssignmentFilter) (int64, error) {
	w := assignmentWhere(f)
	var n int64
	if err := r.conn.QueryRow(ctx, `SELECT COUNT(1) FROM assignments`+w.String(), w.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count assignments: %w", err)
	}
	return n, nil
}

// UpdateAssignment applies patch and advances the owning engineer's allocation
// version in one transaction.
func (r *SQLiteRepo) UpdateAssignment(ctx context.Context, id int64, patch models.AssignmentPatch, expectedVersion int64) (*models.Assignment, error) {
	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	cur, err := scanAssignment(tx.QueryRowContext(ctx, `SELECT `+assignmentColumns+` FROM assignments WHERE id = ? AND deleted_at IS NULL`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load assignment: %w", err)
	}

	if err := bumpVersion(ctx, tx, cur.EngineerID, expectedVersion); err != nil {
		return nil, err
	}

	next := patch.Apply(*cur)
	next.Updated = now()
	if _, err := tx.ExecContext(ctx, `UPDATE assignments SET allocation_percentage = ?, start_date = ?, end_date = ?, status = ?, role = ?, updated = ? WHERE id = ?`,
		next.AllocationPercentage, millis(next.StartDate), millis(next.EndDate), next.Status, next.Role, next.Updated, id); err != nil {
		return nil, fmt.Errorf("update assignment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &next, nil
}

// DeleteAssignment removes the row. It reports false when nothing was deleted.
func (r *SQLiteRepo) DeleteAssignment(ctx context.Context, id int64) (bool, error) {
	res, err := r.conn.Exec(ctx, `DELETE FROM assignments WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete assignment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
