package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/txn2/realty-crm/pkg/actor"
)

// LeadsListOptions holds flags for leads list.
type LeadsListOptions struct {
	*RootOptions
	Status string
	Page   uint64
	Size   uint64
}

// LeadsCreateOptions holds flags for leads create.
type LeadsCreateOptions struct {
	*RootOptions
	Name   string
	Email  string
	Phone  string
	Status string
}

// NewLeadsCommand creates the leads command group.
func NewLeadsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leads",
		Short: "List and create leads",
	}
	cmd.AddCommand(newLeadsListCommand(rootOpts))
	cmd.AddCommand(newLeadsCreateCommand(rootOpts))
	return cmd
}

func newLeadsListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LeadsListOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List leads",
		Long: `List leads. With --page the list is fetched one page at a time
(pages start at 1); with --status only leads in that status are shown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				leads []actor.Lead
				err   error
			)
			crm := opts.App().CRM()
			switch {
			case opts.Page > 0:
				var page actor.Page[actor.Lead]
				page, err = crm.LeadsPage(cmd.Context(), opts.Page, opts.Size)
				leads = page.Items
			case opts.Status != "":
				leads, err = crm.LeadsByStatus(cmd.Context(), actor.LeadStatus(opts.Status))
			default:
				leads, err = crm.AllLeads(cmd.Context())
			}
			if err != nil {
				return err
			}
			return writeLeads(opts.Out(), leads)
		},
	}
	cmd.Flags().StringVar(&opts.Status, "status", "", "only leads in this status")
	cmd.Flags().Uint64Var(&opts.Page, "page", 0, "page number, starting at 1")
	cmd.Flags().Uint64Var(&opts.Size, "size", 20, "page size")
	return cmd
}

func writeLeads(out *OutputFormatter, leads []actor.Lead) error {
	if out.Format == "json" {
		return out.Success(leads)
	}
	if len(leads) == 0 {
		return out.Success(nil, "No leads")
	}
	tw := tabwriter.NewWriter(out.Writer, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tAGENT")
	for _, l := range leads {
		agent := "-"
		if l.AssignedAgent != nil {
			agent = string(*l.AssignedAgent)
		}
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", l.ID, l.Name, l.Status, agent)
	}
	return tw.Flush()
}

func newLeadsCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LeadsCreateOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a lead",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lead := actor.Lead{
				Name:   opts.Name,
				Status: actor.LeadStatus(opts.Status),
				Email:  optional(opts.Email),
				Phone:  optional(opts.Phone),
			}
			id, err := opts.App().CRM().AddLead(cmd.Context(), lead)
			if err != nil {
				return err
			}
			lead.ID = id
			return opts.Out().Success(lead, fmt.Sprintf("Created lead %d", id))
		},
	}
	cmd.Flags().StringVar(&opts.Name, "name", "", "lead name")
	cmd.Flags().StringVar(&opts.Email, "email", "", "email address")
	cmd.Flags().StringVar(&opts.Phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&opts.Status, "status", string(actor.LeadNew), "initial status")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}
