// Package cli implements the realty-crm command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/txn2/realty-crm/internal/app"
	"github.com/txn2/realty-crm/pkg/config"
)

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// RootOptions holds global flags and the session shared by every command.
type RootOptions struct {
	ConfigPath string
	Format     string
	Verbose    bool

	appOptions []app.Option
	app        *app.App
	out        *OutputFormatter
}

// App returns the session opened for the running command.
func (o *RootOptions) App() *app.App { return o.app }

// Out returns the output formatter.
func (o *RootOptions) Out() *OutputFormatter { return o.out }

// Close releases the session, if one was opened.
func (o *RootOptions) Close() error {
	if o.app == nil {
		return nil
	}
	return o.app.Close()
}

// NewRootCommand creates the root command. Extra app options are applied to
// the session every command opens.
func NewRootCommand(appOpts ...app.Option) (*cobra.Command, *RootOptions) {
	opts := &RootOptions{appOptions: appOpts}

	cmd := &cobra.Command{
		Use:           "realty-crm",
		Short:         "Real-estate CRM client",
		Long:          "Work with leads, customers, attendance and the customer portal of a real-estate CRM.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return opts.open(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to configuration file")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewLoginCommand(opts))
	cmd.AddCommand(NewLogoutCommand(opts))
	cmd.AddCommand(NewWhoamiCommand(opts))
	cmd.AddCommand(NewProfileCommand(opts))
	cmd.AddCommand(NewLeadsCommand(opts))
	cmd.AddCommand(NewMetricsCommand(opts))
	cmd.AddCommand(NewAttendanceCommand(opts))
	cmd.AddCommand(NewCustomerCommand(opts))
	cmd.AddCommand(NewAuditCommand(opts))

	return cmd, opts
}

func (o *RootOptions) open(ctx context.Context, stdout, stderr io.Writer) error {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "loading configuration", err)
	}
	if o.Verbose {
		cfg.Logging.Level = "debug"
	}

	o.out = &OutputFormatter{Format: o.Format, Writer: stdout, ErrWriter: stderr, Verbose: o.Verbose}

	appOpts := append([]app.Option{
		app.WithLogger(app.NewLogger(cfg.Logging, stderr)),
		app.WithNotifier(&toastWriter{w: stderr}),
	}, o.appOptions...)

	a, err := app.New(ctx, cfg, appOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "starting session", err)
	}
	o.app = a
	return nil
}

// Run executes the command line in args and closes the session afterwards.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer, appOpts ...app.Option) error {
	cmd, opts := NewRootCommand(appOpts...)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if closeErr := opts.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil && opts.out != nil {
		_ = opts.out.Error(errorCode(err), err.Error())
	} else if err != nil {
		_, _ = fmt.Fprintln(stderr, "Error: "+err.Error())
	}
	return err
}
