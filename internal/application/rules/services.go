package rules

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/bryanwahyu/compliance-copilot/internal/application"
	domain "github.com/bryanwahyu/compliance-copilot/internal/domain/rules"
)

// patchAttempts bounds retries when a patch without an explicit version races
// another writer.
const patchAttempts = 3

// Service implements the rule registry use-cases.
type Service struct {
	Repo  domain.Repository
	Clock application.Clock
	Log   hclog.Logger
}

type CreateCommand struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Active      *bool    `json:"active"`
}

// PatchCommand changes only the fields that are set. When Version is set the
// patch fails with ErrConflict unless it matches the stored rule.
type PatchCommand struct {
	ID          string    `json:"id"`
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Tags        *[]string `json:"tags"`
	Active      *bool     `json:"active"`
	Version     *int      `json:"version"`
}

func (s *Service) List(ctx context.Context) ([]domain.Rule, error) {
	return s.Repo.List(ctx)
}

func (s *Service) ListActive(ctx context.Context) ([]domain.Rule, error) {
	all, err := s.Repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return domain.Active(all), nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Rule, error) {
	return s.Repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*domain.Rule, error) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalid)
	}
	now := s.now()
	r := &domain.Rule{
		ID:          uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(cmd.Description),
		Tags:        cleanTags(cmd.Tags),
		Active:      cmd.Active,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if r.Active == nil {
		r.Active = domain.Bool(true)
	}
	if err := s.Repo.Create(ctx, r); err != nil {
		return nil, err
	}
	s.logger().Info("rule created", "id", r.ID, "name", r.Name)
	return r, nil
}

func (s *Service) Patch(ctx context.Context, cmd PatchCommand) (*domain.Rule, error) {
	if strings.TrimSpace(cmd.ID) == "" {
		return nil, fmt.Errorf("%w: id is required", domain.ErrInvalid)
	}
	if cmd.Name != nil && strings.TrimSpace(*cmd.Name) == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", domain.ErrInvalid)
	}

	for attempt := 1; ; attempt++ {
		r, err := s.Repo.Get(ctx, cmd.ID)
		if err != nil {
			return nil, err
		}
		if cmd.Version != nil && *cmd.Version != r.Version {
			return nil, fmt.Errorf("%w: stored version %d, got %d", domain.ErrConflict, r.Version, *cmd.Version)
		}
		apply(r, cmd)
		r.UpdatedAt = s.now()

		err = s.Repo.Update(ctx, r)
		if err == nil {
			s.logger().Info("rule updated", "id", r.ID, "version", r.Version)
			return r, nil
		}
		if !errors.Is(err, domain.ErrConflict) || cmd.Version != nil || attempt == patchAttempts {
			return nil, err
		}
		s.logger().Debug("rule changed concurrently, retrying patch", "id", cmd.ID, "attempt", attempt)
	}
}

// Toggle flips the active flag.
func (s *Service) Toggle(ctx context.Context, id string) (*domain.Rule, error) {
	r, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	next := !r.IsActive()
	return s.Patch(ctx, PatchCommand{ID: id, Active: &next, Version: &r.Version})
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: id is required", domain.ErrInvalid)
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger().Info("rule deleted", "id", id)
	return nil
}

// RegisterFile records upload metadata. File contents are not stored.
func (s *Service) RegisterFile(ctx context.Context, name string, size int64, contentType string) (*domain.RuleFile, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: file name is required", domain.ErrInvalid)
	}
	f := &domain.RuleFile{
		ID:          uuid.NewString(),
		Name:        name,
		Size:        size,
		ContentType: contentType,
		UploadedAt:  s.now(),
	}
	if err := s.Repo.RegisterFile(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *Service) ListFiles(ctx context.Context) ([]domain.RuleFile, error) {
	return s.Repo.ListFiles(ctx)
}

func apply(r *domain.Rule, cmd PatchCommand) {
	if cmd.Name != nil {
		r.Name = strings.TrimSpace(*cmd.Name)
	}
	if cmd.Description != nil {
		r.Description = strings.TrimSpace(*cmd.Description)
	}
	if cmd.Tags != nil {
		r.Tags = cleanTags(*cmd.Tags)
	}
	if cmd.Active != nil {
		r.Active = domain.Bool(*cmd.Active)
	}
}

func cleanTags(in []string) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, t := range in {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

func (s *Service) logger() hclog.Logger {
	if s.Log == nil {
		return hclog.NewNullLogger()
	}
	return s.Log
}
