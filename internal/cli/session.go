package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

type sessionInfo struct {
	Principal string `json:"principal"`
	State     string `json:"state"`
	Role      string `json:"role,omitempty"`
}

// NewLoginCommand creates the login command.
func NewLoginCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "login <token>",
		Short: "Log in with an identity token",
		Long: `Log in with an identity token. The token is saved in local storage
and restored by later commands until logout. Logging in while another
principal is logged in replaces that session.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := opts.App()
			if a.Identity().IsLoggedIn() {
				a.Logout(cmd.Context())
			}
			principal, err := a.Login(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			info := sessionInfo{Principal: string(principal), State: a.Identity().State().String()}
			return opts.Out().Success(info, "Logged in as "+info.Principal)
		},
	}
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved identity token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.App().Logout(cmd.Context())
			return opts.Out().Success(sessionInfo{State: opts.App().Identity().State().String()}, "Logged out")
		},
	}
}

// NewWhoamiCommand creates the whoami command.
func NewWhoamiCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in principal and role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := opts.App()
			info := sessionInfo{
				Principal: string(a.Identity().Principal()),
				State:     a.Identity().State().String(),
			}
			if !a.Identity().IsLoggedIn() {
				return opts.Out().Success(info, "Not logged in")
			}
			role, err := a.CRM().CallerUserRole(cmd.Context())
			if err != nil {
				return err
			}
			info.Role = string(role)
			return opts.Out().Success(info, fmt.Sprintf("%s (%s)", info.Principal, info.Role))
		},
	}
}
