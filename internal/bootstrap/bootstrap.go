package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/bryanwahyu/compliance-copilot/internal/config"
	"github.com/bryanwahyu/compliance-copilot/internal/domain/ai"
	"github.com/bryanwahyu/compliance-copilot/internal/domain/analyst"
	"github.com/bryanwahyu/compliance-copilot/internal/domain/rules"
	"github.com/bryanwahyu/compliance-copilot/internal/infra/ai/gemini"
	"github.com/bryanwahyu/compliance-copilot/internal/infra/ai/kroolo"
	"github.com/bryanwahyu/compliance-copilot/internal/infra/ai/openai"
	"github.com/bryanwahyu/compliance-copilot/internal/infra/db/filestore"
	mysqlp "github.com/bryanwahyu/compliance-copilot/internal/infra/db/mysql"
	"github.com/bryanwahyu/compliance-copilot/internal/infra/db/postgres"
	"github.com/bryanwahyu/compliance-copilot/internal/infra/db/sqlite"
)

// Providers registers every provider that has credentials. The typed
// nil from openai.NewClient must not reach the map.
func Providers(ctx context.Context, cfg *config.Config, log hclog.Logger) (map[string]ai.Provider, *openai.Client) {
	providers := map[string]ai.Provider{}

	oa := openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model)
	if oa != nil {
		providers["openai"] = oa
	}

	gc, err := gemini.NewClient(ctx, gemini.Options{APIKey: cfg.Gemini.APIKey, Model: cfg.Gemini.Model})
	switch {
	case err == nil:
		providers["gemini"] = gc
	case !errors.Is(err, ai.ErrNotConfigured):
		log.Warn("gemini client init failed", "error", err)
	}

	if cfg.Kroolo.BaseURL != "" {
		providers["kroolo"] = kroolo.New(cfg.Kroolo.BaseURL, cfg.Kroolo.APIKey)
	}
	return providers, oa
}

// Stores holds the repositories for the configured driver.
type Stores struct {
	DB       *sql.DB
	Rules    rules.Repository
	Analyses analyst.Repository
}

func (s *Stores) Close() {
	if s.DB != nil {
		_ = s.DB.Close()
	}
}

// OpenStores picks the rule and analysis repositories for the configured
// driver. The file driver keeps rules in JSON and analyses in SQLite.
func OpenStores(ctx context.Context, cfg *config.Config, log hclog.Logger) (*Stores, error) {
	switch cfg.Database.Driver {
	case "file":
		repo, err := filestore.NewRuleRepository(cfg.RuleBase.Path)
		if err != nil {
			return nil, fmt.Errorf("rule base: %w", err)
		}
		db, err := sqlite.Open(ctx, cfg.Database.Path)
		if err != nil {
			return nil, fmt.Errorf("sqlite open: %w", err)
		}
		log.Info("using file rule base", "path", cfg.RuleBase.Path, "analyses", cfg.Database.Path)
		return &Stores{DB: db, Rules: repo, Analyses: sqlite.NewAnalystRepository(db)}, nil

	case "sqlite":
		db, err := sqlite.Open(ctx, cfg.Database.Path)
		if err != nil {
			return nil, fmt.Errorf("sqlite open: %w", err)
		}
		log.Info("using sqlite", "path", cfg.Database.Path)
		return &Stores{DB: db, Rules: sqlite.NewRuleRepository(db), Analyses: sqlite.NewAnalystRepository(db)}, nil

	case "mysql":
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, fmt.Errorf("mysql connect: %w", err)
		}
		if err := mysqlp.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("mysql migrate: %w", err)
		}
		log.Info("using mysql", "host", cfg.Database.Host, "name", cfg.Database.Name)
		return &Stores{DB: db, Rules: mysqlp.NewRuleRepository(db), Analyses: mysqlp.NewAnalystRepository(db)}, nil

	case "postgres", "postgresql":
		db, err := postgres.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, fmt.Errorf("postgres connect: %w", err)
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("postgres migrate: %w", err)
		}
		log.Info("using postgres", "host", cfg.Database.Host, "name", cfg.Database.Name)
		return &Stores{DB: db, Rules: postgres.NewRuleRepository(db), Analyses: postgres.NewAnalystRepository(db)}, nil
	}
	return nil, fmt.Errorf("unsupported database driver %q (file, sqlite, mysql, postgres)", cfg.Database.Driver)
}
