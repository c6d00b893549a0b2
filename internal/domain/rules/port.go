package rules

import "context"

// Repository persists the rule registry. Update is optimistic: the stored
// version must equal r.Version, and the saved rule gets Version+1.
type Repository interface {
	List(ctx context.Context) ([]Rule, error)
	Get(ctx context.Context, id string) (*Rule, error)
	Create(ctx context.Context, r *Rule) error
	Update(ctx context.Context, r *Rule) error
	Delete(ctx context.Context, id string) error

	RegisterFile(ctx context.Context, f *RuleFile) error
	ListFiles(ctx context.Context) ([]RuleFile, error)
}
