package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	awsiam "tasnim.dev/iamsync/internal/aws/iam"
	"tasnim.dev/iamsync/internal/theme"
	"tasnim.dev/iamsync/internal/utils"
)

func NewPolicyCmd(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Manage IAM managed policies",
	}
	cmd.AddCommand(newPolicyEnsureCmd(opts))
	cmd.AddCommand(newPolicyAttachCmd(opts))
	cmd.AddCommand(newPolicyShowCmd(opts))
	return cmd
}

func newPolicyEnsureCmd(opts *Options) *cobra.Command {
	var document string

	cmd := &cobra.Command{
		Use:   "ensure NAME",
		Short: "Create or update a Custom policy from a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			name := opts.name(args[0])
			doc, err := readDocument(document, cmd.InOrStdin())
			if err != nil {
				return err
			}

			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer func() { err = s.close(err) }()

			if err := s.reconciler.EnsurePolicy(cmd.Context(), name, doc); err != nil {
				return err
			}
			theme.Done(s.out, "policy %s is up to date", name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&document, "document", "d", "", "policy document file (JSON or YAML, - for stdin)")
	_ = cmd.MarkFlagRequired("document")

	return cmd
}

func newPolicyAttachCmd(opts *Options) *cobra.Command {
	var (
		role       string
		policyType string
	)

	cmd := &cobra.Command{
		Use:   "attach POLICY",
		Short: "Attach a policy to a role unless already attached",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			t, err := awsiam.ParsePolicyType(policyType)
			if err != nil {
				return err
			}
			name := opts.name(args[0])
			roleName := opts.name(role)

			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer func() { err = s.close(err) }()

			if err := s.reconciler.EnsureAttached(cmd.Context(), name, roleName, t); err != nil {
				return err
			}
			theme.Done(s.out, "%s policy %s attached to role %s", t, name, roleName)
			return nil
		},
	}

	cmd.Flags().StringVar(&role, "role", "", "role to attach the policy to")
	cmd.Flags().StringVar(&policyType, "type", string(awsiam.PolicyTypeSystem), "policy type: System or Custom")
	_ = cmd.MarkFlagRequired("role")

	return cmd
}

func newPolicyShowCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "show NAME",
		Short: "Show a Custom policy, its versions and attachments",
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

			policy, err := client.GetPolicy(ctx, name, awsiam.PolicyTypeCustom)
			if err != nil {
				return err
			}
			versions, err := client.ListPolicyVersions(ctx, name)
			if err != nil {
				return err
			}
			entities, err := client.ListEntitiesForPolicy(ctx, name)
			if err != nil {
				return err
			}

			return renderPolicy(policy, versions, entities).Flush(s.out)
		},
	}
}

func renderPolicy(p *awsiam.IAMPolicy, versions []awsiam.IAMPolicyVersion, entities []awsiam.IAMPolicyEntity) *utils.DetailBuilder {
	d := utils.NewDetailBuilder(16, theme.SectionStyle)
	d.Section("Policy")
	d.Row("Name", p.Name)
	d.Row("ARN", p.ARN)
	d.Row("Policy ID", p.PolicyID)
	d.Row("Default version", p.DefaultVersionID)
	d.Row("Attachments", fmt.Sprintf("%d", p.AttachmentCount))
	d.Row("In use", utils.YesNo(p.AttachmentCount > 0))
	d.Row("Created", utils.TimeOrDash(p.CreatedAt, utils.DateTime))
	d.Row("Updated", utils.TimeOrDash(p.UpdatedAt, utils.DateTime))
	d.Blank()

	d.Section(fmt.Sprintf("Versions (%d)", len(versions)))
	for _, v := range versions {
		status := "stored"
		if v.IsDefaultVersion {
			status = "default"
		}
		d.Item(fmt.Sprintf("%-4s %s  %s", v.VersionID, utils.TimeOrDash(v.CreatedAt, utils.DateOnly), theme.RenderStatus(status)))
	}
	d.Blank()

	d.Section(fmt.Sprintf("Attached to (%d)", len(entities)))
	if len(entities) == 0 {
		d.Item(theme.MutedStyle.Render("none"))
	}
	for _, e := range entities {
		d.Item(fmt.Sprintf("%-6s %s", e.Type, e.Name))
	}
	return d
}
