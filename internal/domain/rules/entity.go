package rules

import (
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("rule not found")
	// ErrConflict means the rule changed since it was read.
	ErrConflict = errors.New("rule was modified concurrently")
	ErrInvalid  = errors.New("invalid rule")
)

// Rule is a user-authored check merged into analysis output.
type Rule struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Tags        []string  `json:"tags"`
	Active      *bool     `json:"active,omitempty"`
	Version     int       `json:"version"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// IsActive treats an unset flag as active.
func (r Rule) IsActive() bool {
	return r.Active == nil || *r.Active
}

// RuleFile is metadata of an uploaded rule document. Content is not kept.
type RuleFile struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"contentType,omitempty"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

// Active filters rules to those that are not explicitly disabled.
func Active(all []Rule) []Rule {
	out := make([]Rule, 0, len(all))
	for _, r := range all {
		if r.IsActive() {
			out = append(out, r)
		}
	}
	return out
}

func Bool(v bool) *bool { return &v }
