package cmd

import (
	"flag"

	"github.com/spf13/cobra"
)

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "vs",
		Short:         "viewsync (vs): edit shared customer records with live presence",
		Long:          "vs (viewsync) edits customer records with change tracking and confirmations, and shows which other sessions are viewing or editing the same record through the presence hub.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	// glog registers -v, -logtostderr and friends on the standard flag set.
	rootCmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newCustomerCmd(app),
		newPresenceCmd(app),
		newLoginCmd(app),
		newLogoutCmd(app),
		newWhoamiCmd(app),
	)

	return rootCmd
}
