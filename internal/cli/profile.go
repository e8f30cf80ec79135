package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/txn2/realty-crm/pkg/actor"
)

// ProfileOptions holds flags for profile save.
type ProfileOptions struct {
	*RootOptions
	Name    string
	Role    string
	Email   string
	Contact string
}

// NewProfileCommand creates the profile command group.
func NewProfileCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or save the caller's profile",
	}
	cmd.AddCommand(newProfileShowCommand(rootOpts))
	cmd.AddCommand(newProfileSaveCommand(rootOpts))
	return cmd
}

func newProfileShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the caller's profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			profile, err := opts.App().CRM().CallerUserProfile(cmd.Context())
			if err != nil {
				return err
			}
			if profile == nil {
				return opts.Out().Success(nil, "No profile saved")
			}
			lines := []string{"Name:    " + profile.Name, "Role:    " + profile.Role}
			if profile.Email != nil {
				lines = append(lines, "Email:   "+*profile.Email)
			}
			if profile.ContactNumber != nil {
				lines = append(lines, "Contact: "+*profile.ContactNumber)
			}
			return opts.Out().Success(profile, lines...)
		},
	}
}

func newProfileSaveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ProfileOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Save the caller's profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			profile := actor.UserProfile{
				Name:          opts.Name,
				Role:          opts.Role,
				Email:         optional(opts.Email),
				ContactNumber: optional(opts.Contact),
			}
			if err := opts.App().CRM().SaveCallerUserProfile(cmd.Context(), profile); err != nil {
				return err
			}
			return opts.Out().Success(profile, fmt.Sprintf("Saved profile for %s", profile.Name))
		},
	}
	cmd.Flags().StringVar(&opts.Name, "name", "", "display name")
	cmd.Flags().StringVar(&opts.Role, "role", "agent", "role label")
	cmd.Flags().StringVar(&opts.Email, "email", "", "email address")
	cmd.Flags().StringVar(&opts.Contact, "contact", "", "contact number")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
