package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/txn2/realty-crm/pkg/actor"
)

// RegisterOptions holds flags for customer register.
type RegisterOptions struct {
	*RootOptions
	Name  string
	Phone string
	Email string
}

// AskOptions holds flags for customer ask.
type AskOptions struct {
	*RootOptions
	Type string
}

// errNoCustomer is returned by portal commands run without a customer login.
var errNoCustomer = NewExitError(ExitFailure, "no customer logged in, run customer login first")

// NewCustomerCommand creates the customer portal command group.
func NewCustomerCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "customer",
		Short: "Customer portal session",
	}
	cmd.AddCommand(newCustomerLoginCommand(rootOpts))
	cmd.AddCommand(newCustomerLogoutCommand(rootOpts))
	cmd.AddCommand(newCustomerStatusCommand(rootOpts))
	cmd.AddCommand(newCustomerRegisterCommand(rootOpts))
	cmd.AddCommand(newCustomerAskCommand(rootOpts))
	return cmd
}

func newCustomerLoginCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "login <phone>",
		Short: "Sign in with a registered phone number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := opts.App().Customers().SignIn(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return opts.Out().Success(profile, "Signed in as "+profile.Name)
		},
	}
}

func newCustomerLogoutCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out of the customer portal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.App().Customers().Logout(cmd.Context()); err != nil {
				return err
			}
			return opts.Out().Success(nil, "Signed out")
		},
	}
}

type customerStatus struct {
	LoggedIn bool   `json:"loggedIn"`
	Phone    string `json:"phone,omitempty"`
	Error    string `json:"error,omitempty"`
}

func newCustomerStatusCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the customer portal session",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			state := opts.App().Customers().State()
			status := customerStatus{LoggedIn: state.IsLoggedIn(), Phone: state.Phone}
			if state.Err != nil {
				status.Error = state.Err.Error()
			}
			if !status.LoggedIn {
				return opts.Out().Success(status, "Not signed in")
			}
			return opts.Out().Success(status, "Signed in as "+status.Phone)
		},
	}
}

func newCustomerRegisterCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RegisterOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a customer profile and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			profile := actor.CustomerProfile{
				Name:        opts.Name,
				PhoneNumber: opts.Phone,
				Email:       optional(opts.Email),
			}
			if _, err := opts.App().Customers().Register(cmd.Context(), profile); err != nil {
				return err
			}
			return opts.Out().Success(profile, "Registered and signed in as "+profile.Name)
		},
	}
	cmd.Flags().StringVar(&opts.Name, "name", "", "full name")
	cmd.Flags().StringVar(&opts.Phone, "phone", "", "10-digit phone number")
	cmd.Flags().StringVar(&opts.Email, "email", "", "email address")
	return cmd
}

func newCustomerAskCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AskOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:   "ask <message>",
		Short: "Submit a query as the signed-in customer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a := opts.App()
			state := a.Customers().State()
			if !state.IsLoggedIn() {
				return errNoCustomer
			}
			profile, err := a.CRM().CustomerProfileByPhone(ctx, state.Phone)
			if err != nil {
				return err
			}
			if profile == nil {
				return errors.New("customer profile not found")
			}
			if _, err := a.CRM().SubmitCustomerQuery(ctx, actor.CustomerQueryResponse{
				Name:        profile.Name,
				PhoneNumber: profile.PhoneNumber,
				Email:       profile.Email,
				QueryType:   opts.Type,
				Message:     args[0],
			}); err != nil {
				return err
			}
			confirmation, err := a.CRM().ConfirmationMessage(ctx)
			if err != nil {
				return err
			}
			return opts.Out().Success(map[string]string{"confirmation": confirmation}, confirmation)
		},
	}
	cmd.Flags().StringVar(&opts.Type, "type", "rent", "query type (rent, sale or interior)")
	return cmd
}
