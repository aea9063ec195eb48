package cmd

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ostafen/unjffs2/internal/env"
	"github.com/ostafen/unjffs2/internal/logger"
)

func Execute() error {
	return NewRootCommand().Execute()
}

func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   env.AppName,
		Short: env.AppName + " - JFFS2 image extraction tool",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if silent, _ := cmd.Flags().GetBool("silent"); !silent {
				PrintLogo(cmd.OutOrStdout())
			}
		},
	}

	rootCmd.PersistentFlags().BoolP("silent", "s", false, "only report warnings and errors")
	rootCmd.PersistentFlags().String("log-level", "INFO", "minimum log level (DEBUG, INFO, WARN, ERROR)")

	rootCmd.AddCommand(DefineExtractCommand())
	rootCmd.AddCommand(DefineScanCommand())
	rootCmd.AddCommand(DefineVerifyCommand())
	rootCmd.AddCommand(DefineCodecsCommand())

	return rootCmd
}

func PrintLogo(w io.Writer) {
	fmt.Fprintln(w, "                _  __  __     ____  ")
	fmt.Fprintln(w, " _   _ _ __    (_)/ _|/ _|___|___ \\ ")
	fmt.Fprintln(w, "| | | | '_ \\   | | |_| |_/ __| __) |")
	fmt.Fprintln(w, "| |_| | | | |  | |  _|  _\\__ \\/ __/ ")
	fmt.Fprintln(w, " \\__,_|_| |_| _/ |_| |_| |___/_____|")
	fmt.Fprintln(w, "             |__/                   ")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "JFFS2 image extraction tool")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Version:   %s\n", env.Version)
	fmt.Fprintf(w, "Commit:    %s\n", env.CommitHash)
	fmt.Fprintf(w, "Build Time: %s\n", env.BuildTime)
	fmt.Fprintln(w, " ")
}

func logLevel(cmd *cobra.Command) slog.Level {
	level, _ := cmd.Flags().GetString("log-level")
	return logger.ParseLevel(level)
}
