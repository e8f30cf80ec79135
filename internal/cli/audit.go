package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/txn2/realty-crm/pkg/audit"
)

// AuditListOptions holds flags for audit list.
type AuditListOptions struct {
	*RootOptions
	Principal string
	Mutation  string
	Failed    bool
	Since     time.Duration
	Limit     int
}

// AuditBreakdownOptions holds flags for audit breakdown.
type AuditBreakdownOptions struct {
	*RootOptions
	By    string
	Limit int
}

// breakdownSource is implemented by audit stores that can aggregate.
type breakdownSource interface {
	Breakdown(ctx context.Context, filter audit.BreakdownFilter) ([]audit.BreakdownEntry, error)
}

var errAuditDisabled = NewExitError(ExitCommandError, "auditing is disabled, set audit.enabled in the configuration")

// NewAuditCommand creates the audit command group.
func NewAuditCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the mutation audit trail",
	}
	cmd.AddCommand(newAuditListCommand(rootOpts))
	cmd.AddCommand(newAuditBreakdownCommand(rootOpts))
	return cmd
}

func newAuditListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AuditListOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded mutations, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := opts.App().Audit()
			if log == nil {
				return errAuditDisabled
			}
			filter := audit.QueryFilter{
				Principal: opts.Principal,
				Mutation:  opts.Mutation,
				Limit:     opts.Limit,
			}
			if opts.Failed {
				failed := false
				filter.Success = &failed
			}
			if opts.Since > 0 {
				start := time.Now().Add(-opts.Since)
				filter.StartTime = &start
			}
			events, err := log.Query(cmd.Context(), filter)
			if err != nil {
				return err
			}
			out := opts.Out()
			if out.Format == "json" || len(events) == 0 {
				return out.Success(events, "No audit events")
			}
			tw := tabwriter.NewWriter(out.Writer, 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "TIME\tPRINCIPAL\tMUTATION\tRESULT\tMS")
			for _, e := range events {
				result := "ok"
				if !e.Success {
					result = e.ErrorKind
				}
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n",
					e.Timestamp.Local().Format(time.DateTime), e.Principal, e.Mutation, result, e.DurationMS)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&opts.Principal, "principal", "", "only mutations by this principal")
	cmd.Flags().StringVar(&opts.Mutation, "mutation", "", "only this mutation")
	cmd.Flags().BoolVar(&opts.Failed, "failed", false, "only failed mutations")
	cmd.Flags().DurationVar(&opts.Since, "since", 0, "only mutations newer than this")
	cmd.Flags().IntVar(&opts.Limit, "limit", 50, "maximum number of events")
	return cmd
}

func newAuditBreakdownCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AuditBreakdownOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:   "breakdown",
		Short: "Count mutations grouped by mutation or principal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := opts.App().Audit()
			if log == nil {
				return errAuditDisabled
			}
			src, ok := log.(breakdownSource)
			if !ok {
				return NewExitError(ExitCommandError, "breakdown needs the postgres audit store, set database.dsn")
			}
			dim := audit.BreakdownDimension(opts.By)
			if !audit.ValidBreakdownDimensions[dim] {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid --by %q: must be mutation or principal", opts.By))
			}
			entries, err := src.Breakdown(cmd.Context(), audit.BreakdownFilter{GroupBy: dim, Limit: opts.Limit})
			if err != nil {
				return err
			}
			out := opts.Out()
			if out.Format == "json" || len(entries) == 0 {
				return out.Success(entries, "No audit events")
			}
			tw := tabwriter.NewWriter(out.Writer, 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintf(tw, "%s\tCOUNT\tSUCCESS\tAVG MS\n", opts.By)
			for _, e := range entries {
				_, _ = fmt.Fprintf(tw, "%s\t%d\t%.0f%%\t%.1f\n", e.Dimension, e.Count, e.SuccessRate*100, e.AvgDurationMS)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&opts.By, "by", string(audit.BreakdownByMutation), "group by mutation or principal")
	cmd.Flags().IntVar(&opts.Limit, "limit", 10, "maximum number of groups")
	return cmd
}
