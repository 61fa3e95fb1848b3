package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/garnizeh/capacity/pkg/models"
	"github.com/garnizeh/capacity/pkg/repository"
)

const projectColumns = `id, name, description, start_date, end_date, required_skills, team_size, status, manager_id, created, updated, deleted_at`

func scanProject(s scanner) (*models.Project, error) {
	var (
		p          models.Project
		start, end int64
		skills     string
		deleted    sql.NullInt64
	)
	if err := s.Scan(&p.ID, &p.Name, &p.Description, &start, &end, &skills, &p.TeamSize, &p.Status, &p.ManagerID,
		&p.Created, &p.Updated, &deleted); err != nil {
		return nil, err
	}
	list, err := decodeList(skills)
	if err != nil {
		return nil, err
	}
	p.StartDate = fromMillis(start)
	p.EndDate = fromMillis(end)
	p.RequiredSkills = list
	p.DeletedAt = tombstone(deleted)
	return &p, nil
}

func (r *SQLiteRepo) CreateProject(ctx context.Context, p *models.Project) (int64, error) {
	if p == nil {
		return 0, fmt.Errorf("project is nil")
	}
	skills, err := encodeList(p.RequiredSkills)
	if err != nil {
		return 0, err
	}
	status := p.Status
	if status == "" {
		status = models.ProjectPlanning
	}
	teamSize := p.TeamSize
	if teamSize <= 0 {
		teamSize = 1
	}

	ts := now()
	res, err := r.conn.Exec(ctx, `INSERT INTO projects (name, description, start_date, end_date, required_skills, team_size, status, manager_id, created, updated) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Name, p.Description, millis(p.StartDate), millis(p.EndDate), skills, teamSize, status, p.ManagerID, ts, ts)
	if err != nil {
		return 0, fmt.Errorf("insert project: %w", err)
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetProject(ctx context.Context, id int64) (*models.Project, error) {
	p, err := scanProject(r.conn.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

func (r *SQLiteRepo) ListProjects(ctx context.Context, f repository.ProjectFilter) ([]models.Project, error) {
	var w where
	if !f.IncludeDeleted {
		w.add(`deleted_at IS NULL`)
	}
	if f.Status != "" {
		w.add(`status = ?`, f.Status)
	}
	if f.ManagerID != 0 {
		w.add(`manager_id = ?`, f.ManagerID)
	}

	rows, err := r.conn.QueryRows(ctx, `SELECT `+projectColumns+` FROM projects`+w.String()+` ORDER BY id`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var out []models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, *p)
	}

	return out, rows.Err()
}

func (r *SQLiteRepo) UpdateProject(ctx context.Context, p *models.Project) error {
	if p == nil {
		return fmt.Errorf("project is nil")
	}
	skills, err := encodeList(p.RequiredSkills)
	if err != nil {
		return err
	}

	_, err = r.conn.Exec(ctx, `UPDATE projects SET name = ?, description = ?, start_date = ?, end_date = ?, required_skills = ?, team_size = ?, status = ?, manager_id = ?, updated = ? WHERE id = ?`,
		p.Name, p.Description, millis(p.StartDate), millis(p.EndDate), skills, p.TeamSize, p.Status, p.ManagerID, now(), p.ID)
	return err
}

// DeleteProject tombstones the project and removes its assignments in one
// transaction. It reports false when the project is absent or already deleted.
func (r *SQLiteRepo) DeleteProject(ctx context.Context, id int64) (bool, error) {
	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	ts := now()
	res, err := tx.ExecContext(ctx, `UPDATE projects SET deleted_at = ?, updated = ? WHERE id = ? AND deleted_at IS NULL`, ts, ts, id)
	if err != nil {
		return false, fmt.Errorf("tombstone project: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}

	res, err = tx.ExecContext(ctx, `DELETE FROM assignments WHERE project_id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete project assignments: %w", err)
	}
	removed, _ := res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}

	r.logger.Info("project deleted", "project_id", id, "assignments_removed", removed)
	return true, nil
}
