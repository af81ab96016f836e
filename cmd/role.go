package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	awsiam "tasnim.dev/iamsync/internal/aws/iam"
	"tasnim.dev/iamsync/internal/theme"
	"tasnim.dev/iamsync/internal/utils"
)

func NewRoleCmd(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "role",
		Short: "Manage IAM roles",
	}
	cmd.AddCommand(newRoleEnsureCmd(opts))
	cmd.AddCommand(newRoleShowCmd(opts))
	return cmd
}

func newRoleEnsureCmd(opts *Options) *cobra.Command {
	var (
		create      bool
		description string
		trust       string
		trustFile   string
	)

	cmd := &cobra.Command{
		Use:   "ensure NAME",
		Short: "Make sure a role exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			name := opts.name(args[0])
			assume, err := trustPolicy(trust, trustFile, cmd.InOrStdin())
			if err != nil {
				return err
			}

			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer func() { err = s.close(err) }()

			role, err := s.reconciler.EnsureRole(cmd.Context(), name, create, description, assume)
			if err != nil {
				return err
			}
			theme.Done(s.out, "role %s (%s)", role.Name, role.ARN)
			return nil
		},
	}

	cmd.Flags().BoolVar(&create, "create", false, "create the role if it does not exist")
	cmd.Flags().StringVar(&description, "description", "", "description for a newly created role")
	cmd.Flags().StringVar(&trust, "trust", "", "trust policy preset for a new role: lambda or states")
	cmd.Flags().StringVar(&trustFile, "trust-policy", "", "trust policy document file (JSON or YAML, - for stdin)")

	return cmd
}

func newRoleShowCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "show NAME",
		Short: "Show a role and its attached policies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			name := opts.name(args[0])

			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer func() { err = s.close(err) }()

			ctx := cmd.Context()
			client, err := s.newClient(ctx)
			if err != nil {
				return fmt.Errorf("initializing AWS client: %w", err)
			}

			role, err := client.GetRole(ctx, name)
			if err != nil {
				return err
			}
			attached, err := client.ListAttachedRolePolicies(ctx, name)
			if err != nil {
				return err
			}

			return renderRole(role, attached).Flush(s.out)
		},
	}
}

func renderRole(role *awsiam.IAMRole, attached []awsiam.IAMAttachedPolicy) *utils.DetailBuilder {
	d := utils.NewDetailBuilder(14, theme.SectionStyle)
	d.Section("Role")
	d.Row("Name", role.Name)
	d.Row("ARN", role.ARN)
	d.Row("Role ID", role.RoleID)
	d.Row("Path", role.Path)
	d.Row("Description", role.Description)
	d.Row("Created", utils.TimeOrDash(role.CreatedAt, utils.DateTime))
	d.Blank()

	d.Section("Trust policy")
	d.Item(role.AssumeRolePolicyDocument)
	d.Blank()

	d.Section(fmt.Sprintf("Attached policies (%d)", len(attached)))
	if len(attached) == 0 {
		d.Item(theme.MutedStyle.Render("none"))
	}
	for _, p := range attached {
		d.Item(fmt.Sprintf("%s  %s", p.Name, theme.MutedStyle.Render(p.ARN)))
	}
	return d
}
