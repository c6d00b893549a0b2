package mysql

import (
	"context"
	"database/sql"
	"errors"

	domain "github.com/bryanwahyu/compliance-copilot/internal/domain/rules"
)

type RuleRepository struct {
	db *sql.DB
}

func NewRuleRepository(db *sql.DB) *RuleRepository {
	return &RuleRepository{db: db}
}

const ruleColumns = `id, name, description, tags, active, version, created_at, updated_at`

func scanRule(s scanner) (*domain.Rule, error) {
	var r domain.Rule
	var tags string
	var active sql.NullBool
	if err := s.Scan(&r.ID, &r.Name, &r.Description, &tags, &active, &r.Version, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.Tags = decodeList(tags)
	r.Active = boolPtr(active)
	return &r, nil
}

func (r *RuleRepository) List(ctx context.Context) ([]domain.Rule, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+ruleColumns+` FROM rules ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Rule{}
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rule)
	}
	return out, rows.Err()
}

func (r *RuleRepository) Get(ctx context.Context, id string) (*domain.Rule, error) {
	rule, err := scanRule(r.db.QueryRowContext(ctx, `SELECT `+ruleColumns+` FROM rules WHERE id=?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return rule, err
}

func (r *RuleRepository) Create(ctx context.Context, rule *domain.Rule) error {
	if rule.Version == 0 {
		rule.Version = 1
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO rules (`+ruleColumns+`) VALUES (?,?,?,?,?,?,?,?)`,
		rule.ID, rule.Name, rule.Description, encodeList(rule.Tags), nullBool(rule.Active),
		rule.Version, rule.CreatedAt, rule.UpdatedAt)
	return err
}

// Update only matches the row when the stored version is the one the caller read.
func (r *RuleRepository) Update(ctx context.Context, rule *domain.Rule) error {
	const q = `
UPDATE rules SET name=?, description=?, tags=?, active=?, version=version+1, updated_at=?
WHERE id=? AND version=?;`
	res, err := r.db.ExecContext(ctx, q, rule.Name, rule.Description, encodeList(rule.Tags),
		nullBool(rule.Active), rule.UpdatedAt, rule.ID, rule.Version)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return r.missOrConflict(ctx, rule.ID)
	}
	rule.Version++
	return nil
}

func (r *RuleRepository) missOrConflict(ctx context.Context, id string) error {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM rules WHERE id=?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return err
	}
	return domain.ErrConflict
}

func (r *RuleRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rules WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *RuleRepository) RegisterFile(ctx context.Context, f *domain.RuleFile) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO rule_files (id, name, size, content_type, uploaded_at) VALUES (?,?,?,?,?)`,
		f.ID, f.Name, f.Size, f.ContentType, f.UploadedAt)
	return err
}

func (r *RuleRepository) ListFiles(ctx context.Context) ([]domain.RuleFile, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, size, content_type, uploaded_at FROM rule_files ORDER BY uploaded_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.RuleFile{}
	for rows.Next() {
		var f domain.RuleFile
		if err := rows.Scan(&f.ID, &f.Name, &f.Size, &f.ContentType, &f.UploadedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
