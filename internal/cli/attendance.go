package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/txn2/realty-crm/internal/app"
	"github.com/txn2/realty-crm/pkg/actor"
)

// CheckInOptions holds flags for attendance check-in.
type CheckInOptions struct {
	*RootOptions
	Photo     string
	Latitude  float64
	Longitude float64
	Accuracy  float64
}

// NewAttendanceCommand creates the attendance command group.
func NewAttendanceCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attendance",
		Short: "Check in, check out and list attendance",
	}
	cmd.AddCommand(newCheckInCommand(rootOpts))
	cmd.AddCommand(newCheckOutCommand(rootOpts))
	cmd.AddCommand(newRecordsCommand(rootOpts))
	return cmd
}

func newCheckInCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckInOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:   "check-in",
		Short: "Check in with a photo and position",
		Long: `Check in with a photo and position. The photo file stands in for the
camera; the coordinates stand in for the device location.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a := opts.App()

			locator := app.FixedLocator{
				Latitude:  opts.Latitude,
				Longitude: opts.Longitude,
				Now:       func() actor.Time { return actor.FromTime(time.Now()) },
			}
			if cmd.Flags().Changed("accuracy") {
				locator.Accuracy = &opts.Accuracy
			}

			flow := a.NewAttendanceFlow(app.FileCamera{Path: opts.Photo}, locator)
			defer func() { _ = flow.Close(ctx) }()

			if _, err := flow.Start(ctx); err != nil {
				return err
			}
			id, err := flow.Capture(ctx)
			if err != nil {
				return err
			}
			return opts.Out().Success(map[string]actor.ID{"id": id}, fmt.Sprintf("Checked in (record %d)", id))
		},
	}
	cmd.Flags().StringVar(&opts.Photo, "photo", "", "path of the check-in photo")
	cmd.Flags().Float64Var(&opts.Latitude, "lat", 0, "latitude")
	cmd.Flags().Float64Var(&opts.Longitude, "lng", 0, "longitude")
	cmd.Flags().Float64Var(&opts.Accuracy, "accuracy", 0, "position accuracy in meters")
	_ = cmd.MarkFlagRequired("photo")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lng")
	return cmd
}

func newCheckOutCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check-out",
		Short: "Check out of the open attendance record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := opts.App().CRM().MarkCheckOut(cmd.Context())
			if err != nil {
				return err
			}
			return opts.Out().Success(map[string]actor.ID{"id": id}, fmt.Sprintf("Checked out (record %d)", id))
		},
	}
}

func newRecordsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "records",
		Short: "List the caller's attendance records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			records, err := opts.App().CRM().CallerAttendanceRecords(cmd.Context())
			if err != nil {
				return err
			}
			out := opts.Out()
			if out.Format == "json" {
				return out.Success(records)
			}
			if len(records) == 0 {
				return out.Success(nil, "No attendance records")
			}
			tw := tabwriter.NewWriter(out.Writer, 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "ID\tCHECK-IN\tCHECK-OUT\tVALID")
			for _, r := range records {
				checkOut := "open"
				if r.CheckOutTime != nil {
					checkOut = formatTime(*r.CheckOutTime)
				}
				_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%t\n", r.ID, formatTime(r.CheckInTime), checkOut, r.IsValid)
			}
			return tw.Flush()
		},
	}
}

func formatTime(t actor.Time) string {
	return t.Time().Local().Format(time.DateTime)
}
