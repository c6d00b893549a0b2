package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	domain "github.com/bryanwahyu/compliance-copilot/internal/domain/analyst"
)

type AnalystRepository struct {
	db *sql.DB
}

func NewAnalystRepository(db *sql.DB) *AnalystRepository {
	return &AnalystRepository{db: db}
}

// Save inserts or replaces an analysis record
func (r *AnalystRepository) Save(ctx context.Context, a *domain.Analysis) error {
	result := a.Result
	if strings.TrimSpace(result) == "" {
		result = "{}"
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
INSERT OR REPLACE INTO compliance_analyses
  (id, file_name, standards, method, overall_score, result_json, document_url, created_at)
VALUES (?,?,?,?,?,?,?,?)`,
		a.ID, a.FileName, encodeList(a.Standards), a.Method, a.OverallScore, result, a.DocumentURL, a.CreatedAt)
	return err
}

// Paginate returns a page of analysis records ordered by created_at desc
func (r *AnalystRepository) Paginate(ctx context.Context, page, pageSize int) ([]*domain.Analysis, error) {
	limit, offset := domain.Page(page, pageSize)
	rows, err := r.db.QueryContext(ctx, `
SELECT id, file_name, standards, method, overall_score, result_json, document_url, created_at
FROM compliance_analyses
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*domain.Analysis{}
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AnalystRepository) Get(ctx context.Context, id domain.AnalysisID) (*domain.Analysis, error) {
	a, err := scanAnalysis(r.db.QueryRowContext(ctx, `
SELECT id, file_name, standards, method, overall_score, result_json, document_url, created_at
FROM compliance_analyses WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return a, err
}

func scanAnalysis(s scanner) (*domain.Analysis, error) {
	var a domain.Analysis
	var standards string
	if err := s.Scan(&a.ID, &a.FileName, &standards, &a.Method, &a.OverallScore, &a.Result, &a.DocumentURL, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.Standards = decodeList(standards)
	return &a, nil
}

func (r *AnalystRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM compliance_analyses`).Scan(&n)
	return n, err
}
