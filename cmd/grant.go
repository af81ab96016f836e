package cmd

import (
	"github.com/spf13/cobra"

	"tasnim.dev/iamsync/internal/theme"
)

func NewGrantCmd(opts *Options) *cobra.Command {
	var (
		document string
		role     string
	)

	cmd := &cobra.Command{
		Use:   "grant POLICY",
		Short: "Ensure a Custom policy from a document and attach it to a role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			name := opts.name(args[0])
			roleName := opts.name(role)
			doc, err := readDocument(document, cmd.InOrStdin())
			if err != nil {
				return err
			}

			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer func() { err = s.close(err) }()

			if err := s.reconciler.Grant(cmd.Context(), name, doc, roleName); err != nil {
				return err
			}
			theme.Done(s.out, "policy %s granted to role %s", name, roleName)
			return nil
		},
	}

	cmd.Flags().StringVarP(&document, "document", "d", "", "policy document file (JSON or YAML, - for stdin)")
	cmd.Flags().StringVar(&role, "role", "", "role to attach the policy to")
	_ = cmd.MarkFlagRequired("document")
	_ = cmd.MarkFlagRequired("role")

	return cmd
}
