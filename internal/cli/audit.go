package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"clientcore/pkg/domain"
)

func newAuditCmd(g *globalOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Check stored clients against the account policy",
		Long: "audit evaluates every invariant of the selected policy against the stored snapshot without changing it. " +
			"Run it with --policy before switching policies to list the clients that would block.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if output != "table" && output != "json" {
				return fmt.Errorf("unsupported output format %q: use 'table' or 'json'", output)
			}
			cfg, err := g.load(cmd)
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			res, err := a.service.Audit(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			violations := res.Violations
			if violations == nil {
				violations = []domain.Violation{}
			}
			if output == "json" {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(map[string]any{"policy": a.service.Policy(), "violations": violations}); err != nil {
					return err
				}
			} else if len(violations) == 0 {
				_, _ = fmt.Fprintf(out, "no violations under policy %s\n", a.service.Policy())
			} else {
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				_, _ = fmt.Fprintln(tw, "RULE\tSEVERITY\tENTITY\tID\tMESSAGE")
				for _, v := range violations {
					_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", v.Rule, v.Severity, v.Entity, v.EntityID, v.Message)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
			}
			if res.HasBlocking() {
				return silentError{fmt.Errorf("%d violations under policy %s", len(res.Violations), a.service.Policy())}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format (table, json)")
	return cmd
}
