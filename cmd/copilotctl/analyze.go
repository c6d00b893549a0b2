package main

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/compliance-copilot/internal/application"
	appai "github.com/bryanwahyu/compliance-copilot/internal/application/ai"
	appcompliance "github.com/bryanwahyu/compliance-copilot/internal/application/compliance"
	apprules "github.com/bryanwahyu/compliance-copilot/internal/application/rules"
	"github.com/bryanwahyu/compliance-copilot/internal/bootstrap"
	"github.com/bryanwahyu/compliance-copilot/internal/middleware"
)

type analyzeOptions struct {
	standards []string
	ruleBase  bool
	timeout   time.Duration
}

func newAnalyzeCmd() *cobra.Command {
	var opts analyzeOptions
	cmd := &cobra.Command{
		Use:   "analyze FILE",
		Short: "Analyze a document against one or more compliance standards",
		Example: `  copilotctl analyze policy.pdf -s GDPR -s "ISO 27001" --rulebase`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args[0], opts)
		},
	}
	cmd.Flags().StringSliceVarP(&opts.standards, "standard", "s", nil, "standard to check against (repeatable)")
	cmd.Flags().BoolVar(&opts.ruleBase, "rulebase", false, "merge active rule base entries into the result")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 3*time.Minute, "overall deadline for provider calls")
	_ = cmd.MarkFlagRequired("standard")
	return cmd
}

func runAnalyze(cmd *cobra.Command, path string, opts analyzeOptions) error {
	name, mimeType, data, err := readDocument(path)
	if err != nil {
		return err
	}
	if err := middleware.ValidateStandards(opts.standards); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
	defer cancel()

	st, err := bootstrap.OpenStores(ctx, cfg, log.Named("db"))
	if err != nil {
		return err
	}
	defer st.Close()

	providers, _ := bootstrap.Providers(ctx, cfg, log.Named("ai"))
	svc := &appcompliance.Service{
		Analyzer: appai.NewService(log.Named("chain"), cfg.Analysis.Providers, providers),
		Rules:    &apprules.Service{Repo: st.Rules, Log: log.Named("rules")},
		Repo:     st.Analyses,
		Clock:    application.SystemClock{},
		Log:      log.Named("compliance"),
	}
	res, err := svc.Analyze(ctx, appcompliance.AnalyzeCommand{
		FileName:      name,
		MIMEType:      mimeType,
		Data:          data,
		Standards:     opts.standards,
		ApplyRuleBase: opts.ruleBase,
	})
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), res)
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect FILE",
		Short: "Show extracted text statistics and whether the readability gate passes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, mimeType, data, err := readDocument(args[0])
			if err != nil {
				return err
			}
			res, err := (&appcompliance.Service{Log: log}).Inspect(name, mimeType, data)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
}

// readDocument loads a local file and applies the same checks as uploads.
func readDocument(path string) (name, mimeType string, data []byte, err error) {
	name = filepath.Base(path)
	if err := middleware.ValidateUploadFile(name); err != nil {
		return "", "", nil, err
	}
	data, err = os.ReadFile(path)
	if err != nil {
		return "", "", nil, err
	}
	if len(data) == 0 {
		return "", "", nil, fmt.Errorf("%s is empty", path)
	}
	return name, mime.TypeByExtension(filepath.Ext(name)), data, nil
}
