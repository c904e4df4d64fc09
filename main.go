package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rzproperty",
		Short: "RZ Property listing site backend",
		Long: `Backend of a single-agent property listing site: the public catalog,
lead capture, the admin back office and the background workers.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newMigrateImagesCommand())
	cmd.AddCommand(newSeedCommand())
	cmd.AddCommand(newHashPasswordCommand())

	return cmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
