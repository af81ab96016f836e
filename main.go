package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"tasnim.dev/iamsync/cmd"
	"tasnim.dev/iamsync/internal/theme"
)

func main() {
	var opts cmd.Options

	rootCmd := &cobra.Command{
		Use:           "iamsync",
		Short:         "Reconcile IAM roles, policies and attachments",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	opts.AddFlags(rootCmd)

	rootCmd.AddCommand(cmd.NewRoleCmd(&opts))
	rootCmd.AddCommand(cmd.NewPolicyCmd(&opts))
	rootCmd.AddCommand(cmd.NewGrantCmd(&opts))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		theme.Failed(os.Stderr, err)
		os.Exit(1)
	}
}
