package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	domain "github.com/bryanwahyu/compliance-copilot/internal/domain/rules"
)

type ruleBase struct {
	Rules []domain.Rule     `json:"rules"`
	Files []domain.RuleFile `json:"files"`
}

// RuleRepository keeps the rule base in one JSON file. Every mutation is a
// locked read-modify-write that replaces the file with an atomic rename, so
// readers never see a partial file and concurrent requests never drop rules.
type RuleRepository struct {
	mu   sync.Mutex
	path string
}

// NewRuleRepository creates the file (and its directory) when missing.
func NewRuleRepository(path string) (*RuleRepository, error) {
	r := &RuleRepository{path: path}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create rulebase dir: %w", err)
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := r.write(ruleBase{}); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}
	return r, nil
}

func (r *RuleRepository) List(ctx context.Context) ([]domain.Rule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rb, err := r.read()
	if err != nil {
		return nil, err
	}
	return rb.Rules, nil
}

func (r *RuleRepository) Get(ctx context.Context, id string) (*domain.Rule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rb, err := r.read()
	if err != nil {
		return nil, err
	}
	i := indexOf(rb.Rules, id)
	if i < 0 {
		return nil, domain.ErrNotFound
	}
	rule := rb.Rules[i]
	return &rule, nil
}

func (r *RuleRepository) Create(ctx context.Context, rule *domain.Rule) error {
	return r.mutate(func(rb *ruleBase) error {
		if indexOf(rb.Rules, rule.ID) >= 0 {
			return fmt.Errorf("%w: id %s already exists", domain.ErrConflict, rule.ID)
		}
		if rule.Version == 0 {
			rule.Version = 1
		}
		rb.Rules = append(rb.Rules, *rule)
		return nil
	})
}

func (r *RuleRepository) Update(ctx context.Context, rule *domain.Rule) error {
	return r.mutate(func(rb *ruleBase) error {
		i := indexOf(rb.Rules, rule.ID)
		if i < 0 {
			return domain.ErrNotFound
		}
		if rb.Rules[i].Version != rule.Version {
			return domain.ErrConflict
		}
		next := *rule
		next.Version++
		rb.Rules[i] = next
		rule.Version = next.Version
		return nil
	})
}

func (r *RuleRepository) Delete(ctx context.Context, id string) error {
	return r.mutate(func(rb *ruleBase) error {
		i := indexOf(rb.Rules, id)
		if i < 0 {
			return domain.ErrNotFound
		}
		rb.Rules = append(rb.Rules[:i], rb.Rules[i+1:]...)
		return nil
	})
}

func (r *RuleRepository) RegisterFile(ctx context.Context, f *domain.RuleFile) error {
	return r.mutate(func(rb *ruleBase) error {
		rb.Files = append(rb.Files, *f)
		return nil
	})
}

func (r *RuleRepository) ListFiles(ctx context.Context) ([]domain.RuleFile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rb, err := r.read()
	if err != nil {
		return nil, err
	}
	return rb.Files, nil
}

func (r *RuleRepository) mutate(fn func(*ruleBase) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rb, err := r.read()
	if err != nil {
		return err
	}
	if err := fn(&rb); err != nil {
		return err
	}
	return r.write(rb)
}

func (r *RuleRepository) read() (ruleBase, error) {
	var rb ruleBase
	data, err := os.ReadFile(r.path)
	if err != nil {
		return rb, err
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &rb); err != nil {
			return rb, fmt.Errorf("parse %s: %w", r.path, err)
		}
	}
	if rb.Rules == nil {
		rb.Rules = []domain.Rule{}
	}
	if rb.Files == nil {
		rb.Files = []domain.RuleFile{}
	}
	return rb, nil
}

func (r *RuleRepository) write(rb ruleBase) error {
	if rb.Rules == nil {
		rb.Rules = []domain.Rule{}
	}
	if rb.Files == nil {
		rb.Files = []domain.RuleFile{}
	}
	data, err := json.MarshalIndent(rb, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".rulebase-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), r.path)
}

func indexOf(rules []domain.Rule, id string) int {
	for i := range rules {
		if rules[i].ID == id {
			return i
		}
	}
	return -1
}
