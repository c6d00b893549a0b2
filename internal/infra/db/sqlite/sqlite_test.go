package sqlite

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/compliance-copilot/internal/domain/analyst"
	"github.com/bryanwahyu/compliance-copilot/internal/domain/rules"
)

func openDB(t *testing.T) *RuleRepository {
	t.Helper()
	db, err := Open(t.Context(), filepath.Join(t.TempDir(), "copilot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRuleRepository(db)
}

func TestRuleRepository(t *testing.T) {
	repo := openDB(t)
	ctx := t.Context()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	rule := &rules.Rule{ID: "r1", Name: "Encrypt backups", Tags: []string{"storage"}, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, repo.Create(ctx, rule))

	got, err := repo.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, []string{"storage"}, got.Tags)
	assert.Nil(t, got.Active)
	assert.Equal(t, 1, got.Version)
	assert.True(t, now.Equal(got.CreatedAt))

	got.Active = rules.Bool(false)
	got.Description = "AES-256"
	require.NoError(t, repo.Update(ctx, got))
	assert.Equal(t, 2, got.Version)

	rule.Name = "stale write"
	assert.ErrorIs(t, repo.Update(ctx, rule), rules.ErrConflict)
	assert.ErrorIs(t, repo.Update(ctx, &rules.Rule{ID: "missing"}), rules.ErrNotFound)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Encrypt backups", all[0].Name)
	require.NotNil(t, all[0].Active)
	assert.False(t, *all[0].Active)

	require.NoError(t, repo.Delete(ctx, "r1"))
	assert.ErrorIs(t, repo.Delete(ctx, "r1"), rules.ErrNotFound)
}

func TestRuleFiles(t *testing.T) {
	repo := openDB(t)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.RegisterFile(t.Context(), &rules.RuleFile{ID: "f1", Name: "controls.xlsx", Size: 1024, UploadedAt: now}))

	files, err := repo.ListFiles(t.Context())
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, int64(1024), files[0].Size)
}

func TestAnalystRepository(t *testing.T) {
	db, err := Open(t.Context(), filepath.Join(t.TempDir(), "copilot.db"))
	require.NoError(t, err)
	defer db.Close()
	repo := NewAnalystRepository(db)

	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := range 3 {
		require.NoError(t, repo.Save(t.Context(), &analyst.Analysis{
			ID:           analyst.AnalysisID(fmt.Sprintf("a%d", i)),
			FileName:     "policy.txt",
			Standards:    []string{"GDPR"},
			Method:       "openai-primary",
			OverallScore: 70 + i,
			Result:       `{"overallScore":70}`,
			CreatedAt:    base.Add(time.Duration(i) * time.Hour),
		}))
	}

	page, err := repo.Paginate(t.Context(), 1, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, analyst.AnalysisID("a2"), page[0].ID)
	assert.Equal(t, []string{"GDPR"}, page[0].Standards)

	page, err = repo.Paginate(t.Context(), 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, analyst.AnalysisID("a0"), page[0].ID)

	n, err := repo.Count(t.Context())
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	_, err = repo.Get(t.Context(), "nope")
	assert.ErrorIs(t, err, analyst.ErrNotFound)
}
