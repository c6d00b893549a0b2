package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/compliance-copilot/internal/application"
	apprules "github.com/bryanwahyu/compliance-copilot/internal/application/rules"
	"github.com/bryanwahyu/compliance-copilot/internal/bootstrap"
	"github.com/bryanwahyu/compliance-copilot/internal/domain/rules"
)

// withRules opens the configured stores for the duration of fn.
func withRules(cmd *cobra.Command, fn func(svc *apprules.Service) error) error {
	st, err := bootstrap.OpenStores(cmd.Context(), cfg, log.Named("db"))
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(&apprules.Service{Repo: st.Rules, Clock: application.SystemClock{}, Log: log.Named("rules")})
}

func newRulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage the rule base",
	}
	cmd.AddCommand(newRulesListCmd(), newRulesAddCmd(), newRulesToggleCmd(), newRulesDeleteCmd())
	return cmd
}

func newRulesListCmd() *cobra.Command {
	var asJSON, activeOnly bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRules(cmd, func(svc *apprules.Service) error {
				var (
					list []rules.Rule
					err  error
				)
				if activeOnly {
					list, err = svc.ListActive(cmd.Context())
				} else {
					list, err = svc.List(cmd.Context())
				}
				if err != nil {
					return err
				}
				if asJSON {
					return printJSON(cmd.OutOrStdout(), list)
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tACTIVE\tVERSION")
				for _, r := range list {
					fmt.Fprintf(tw, "%s\t%s\t%t\t%d\n", r.ID, r.Name, r.IsActive(), r.Version)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	cmd.Flags().BoolVar(&activeOnly, "active", false, "only active rules")
	return cmd
}

func newRulesAddCmd() *cobra.Command {
	var c apprules.CreateCommand
	var inactive bool
	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Add a rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.Name = args[0]
			if inactive {
				active := false
				c.Active = &active
			}
			return withRules(cmd, func(svc *apprules.Service) error {
				r, err := svc.Create(cmd.Context(), c)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), r)
			})
		},
	}
	cmd.Flags().StringVarP(&c.Description, "description", "d", "", "rule description")
	cmd.Flags().StringSliceVarP(&c.Tags, "tag", "t", nil, "tag (repeatable)")
	cmd.Flags().BoolVar(&inactive, "inactive", false, "create the rule disabled")
	return cmd
}

func newRulesToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle ID",
		Short: "Enable or disable a rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRules(cmd, func(svc *apprules.Service) error {
				r, err := svc.Toggle(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s active=%t version=%d\n", r.ID, r.IsActive(), r.Version)
				return nil
			})
		},
	}
}

func newRulesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRules(cmd, func(svc *apprules.Service) error {
				if err := svc.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
				return nil
			})
		},
	}
}
