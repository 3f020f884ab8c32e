package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for offlinify.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "offlinify",
		Short: "Make saved article pages work offline",
		Long: `offlinify rewrites saved HTML articles into self-contained offline copies.

Each input document becomes <output>/<stem>/index.html with its images
stored in <output>/<stem>/image/. Images that cannot be downloaded are
replaced by a transparent placeholder, and every remaining reference to
the network is removed from the page.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewCleanCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
