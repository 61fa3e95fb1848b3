package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/garnizeh/capacity/pkg/models"
	"github.com/garnizeh/capacity/pkg/repository"
)

const engineerColumns = `id, name, email, type, skills, seniority, department, max_capacity, employment_type, password_hash, allocation_version, created, updated, deleted_at`

func scanEngineer(s scanner) (*models.Engineer, error) {
	var (
		e       models.Engineer
		skills  string
		deleted sql.NullInt64
	)
	if err := s.Scan(&e.ID, &e.Name, &e.Email, &e.Type, &skills, &e.Seniority, &e.Department, &e.MaxCapacity,
		&e.EmploymentType, &e.PasswordHash, &e.AllocationVersion, &e.Created, &e.Updated, &deleted); err != nil {
		return nil, err
	}
	list, err := decodeList(skills)
	if err != nil {
		return nil, err
	}
	e.Skills = list
	e.DeletedAt = tombstone(deleted)
	return &e, nil
}

func (r *SQLiteRepo) CreateEngineer(ctx context.Context, e *models.Engineer) (int64, error) {
	if e == nil {
		return 0, fmt.Errorf("engineer is nil")
	}
	skills, err := encodeList(e.Skills)
	if err != nil {
		return 0, err
	}
	typ := e.Type
	if typ == "" {
		typ = models.UserTypeEngineer
	}
	maxCap := e.MaxCapacity
	if maxCap <= 0 {
		maxCap = models.DefaultMaxCapacity
	}
	emp := e.EmploymentType
	if emp == "" {
		emp = models.EmploymentFullTime
	}

	ts := now()
	res, err := r.conn.Exec(ctx, `INSERT INTO engineers (name, email, type, skills, seniority, department, max_capacity, employment_type, password_hash, created, updated) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Name, e.Email, typ, skills, e.Seniority, e.Department, maxCap, emp, e.PasswordHash, ts, ts)
	if err != nil {
		return 0, fmt.Errorf("insert engineer: %w", err)
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetEngineer(ctx context.Context, id int64) (*models.Engineer, error) {
	e, err := scanEngineer(r.conn.QueryRow(ctx, `SELECT `+engineerColumns+` FROM engineers WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return e, err
}

func (r *SQLiteRepo) GetByEmail(ctx context.Context, email string) (*models.Engineer, error) {
	e, err := scanEngineer(r.conn.QueryRow(ctx, `SELECT `+engineerColumns+` FROM engineers WHERE email = ?`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return e, err
}

func (r *SQLiteRepo) ListEngineers(ctx context.Context, f repository.EngineerFilter) ([]models.Engineer, error) {
	var w where
	if !f.IncludeDeleted {
		w.add(`deleted_at IS NULL`)
	}
	if f.Type != "" {
		w.add(`type = ?`, f.Type)
	}
	if f.Skill != "" {
		w.add(`EXISTS (SELECT 1 FROM json_each(engineers.skills) WHERE instr(lower(json_each.value), lower(?)) > 0)`, f.Skill)
	}

	rows, err := r.conn.QueryRows(ctx, `SELECT `+engineerColumns+` FROM engineers`+w.String()+` ORDER BY id`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list engineers: %w", err)
	}
	defer rows.Close()

	var out []models.Engineer
	for rows.Next() {
		e, err := scanEngineer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan engineer: %w", err)
		}
		out = append(out, *e)
	}

	return out, rows.Err()
}

// UpdateEngineer rewrites the profile fields and advances allocation_version,
// so a guard check that read the old max_capacity fails its commit.
func (r *SQLiteRepo) UpdateEngineer(ctx context.Context, e *models.Engineer) error {
	if e == nil {
		return fmt.Errorf("engineer is nil")
	}
	skills, err := encodeList(e.Skills)
	if err != nil {
		return err
	}

	_, err = r.conn.Exec(ctx, `UPDATE engineers SET name = ?, email = ?, skills = ?, seniority = ?, department = ?, max_capacity = ?, employment_type = ?, password_hash = ?, updated = ?, allocation_version = allocation_version + 1 WHERE id = ?`,
		e.Name, e.Email, skills, e.Seniority, e.Department, e.MaxCapacity, e.EmploymentType, e.PasswordHash, now(), e.ID)
	return err
}

func (r *SQLiteRepo) SoftDeleteEngineer(ctx context.Context, id int64) error {
	ts := now()
	_, err := r.conn.Exec(ctx, `UPDATE engineers SET deleted_at = ?, updated = ? WHERE id = ? AND deleted_at IS NULL`, ts, ts, id)
	return err
}
