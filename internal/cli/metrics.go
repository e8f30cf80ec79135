package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewMetricsCommand creates the metrics command.
func NewMetricsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "Show the dashboard overview metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := opts.App().CRM().OverviewMetrics(cmd.Context())
			if err != nil {
				return err
			}
			return opts.Out().Success(m,
				fmt.Sprintf("Leads:              %d", m.TotalLeads),
				fmt.Sprintf("Customers:          %d", m.TotalCustomers),
				fmt.Sprintf("Pending follow-ups: %d", m.PendingFollowUps),
				fmt.Sprintf("Conversion rate:    %.1f%%", m.ConversionRate),
				fmt.Sprintf("Check-ins today:    %d (%d valid)", m.TodayCheckIns, m.ValidCheckIns),
			)
		},
	}
}
