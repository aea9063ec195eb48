package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ostafen/unjffs2/internal/extract"
	"github.com/ostafen/unjffs2/internal/scan"
)

func DefineVerifyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <report>",
		Short: "Check an extracted tree against its DFXML report",
		Long: `The 'verify' command reads a report written by 'extract --report' and checks that every
object it lists exists in the output directory with the expected type and content digest.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         RunVerify,
	}

	cmd.Flags().StringP("output-dir", "d", extract.DefaultOutputDir, "directory holding the extracted tree")
	cmd.Flags().String("log-file", "", "write per-object messages to this file")

	return cmd
}

func RunVerify(cmd *cobra.Command, args []string) error {
	silent, _ := cmd.Flags().GetBool("silent")
	opts := scan.Options{
		Silent:   silent,
		LogLevel: logLevel(cmd),
		Out:      cmd.OutOrStdout(),
	}
	opts.OutputDir, _ = cmd.Flags().GetString("output-dir")
	opts.LogFile, _ = cmd.Flags().GetString("log-file")

	_, err := scan.Verify(args[0], opts)
	return err
}
