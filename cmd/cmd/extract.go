package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ostafen/unjffs2/internal/extract"
	"github.com/ostafen/unjffs2/internal/scan"
	"github.com/ostafen/unjffs2/pkg/util/format"
)

func DefineExtractCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <image>",
		Short: "Extract the filesystem stored in a JFFS2 image",
		Long: `The 'extract' command scans a raw JFFS2 image, rebuilds the directory tree from the
nodes that pass validation and writes it to the output directory. Any existing content of the
output directory is removed first.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         RunExtract,
	}

	cmd.Flags().StringP("output-dir", "d", extract.DefaultOutputDir, "directory the filesystem is extracted to")
	cmd.Flags().String("log-file", "", "write the log to the specified file instead of the console")
	cmd.Flags().String("report", "", "write a DFXML report of the extracted objects to the specified file")
	cmd.Flags().String("endian", "auto", "byte order of the image (auto, little, big)")
	cmd.Flags().String("max-scan-size", "", "max number of bytes to scan")
	cmd.Flags().IntP("jobs", "j", 1, "number of files extracted in parallel")
	cmd.Flags().Bool("seek-writes", false, "write file fragments at their offset instead of appending them")
	cmd.Flags().Bool("preserve-owner", false, "restore uid and gid of the extracted objects")
	cmd.Flags().Bool("no-times", false, "do not restore access and modification times")
	cmd.Flags().Bool("progress", false, "show a progress bar while scanning")

	return cmd
}

func RunExtract(cmd *cobra.Command, args []string) error {
	opts, err := parseOptions(cmd)
	if err != nil {
		return err
	}
	return scan.Extract(args[0], opts)
}

func parseOptions(cmd *cobra.Command) (scan.Options, error) {
	maxScanSize, err := getBytes(cmd, "max-scan-size")
	if err != nil {
		return scan.Options{}, err
	}

	endian, _ := cmd.Flags().GetString("endian")
	if _, err := scan.ParseByteOrder(endian); err != nil {
		return scan.Options{}, err
	}

	silent, _ := cmd.Flags().GetBool("silent")

	opts := scan.Options{
		ByteOrder:   endian,
		MaxScanSize: maxScanSize,
		Silent:      silent,
		LogLevel:    logLevel(cmd),
		Out:         cmd.OutOrStdout(),
	}

	// Flags below only exist on the extract command.
	if cmd.Flags().Lookup("output-dir") == nil {
		return opts, nil
	}

	opts.OutputDir, _ = cmd.Flags().GetString("output-dir")
	opts.LogFile, _ = cmd.Flags().GetString("log-file")
	opts.ReportFile, _ = cmd.Flags().GetString("report")
	opts.Jobs, _ = cmd.Flags().GetInt("jobs")
	opts.SeekWrites, _ = cmd.Flags().GetBool("seek-writes")
	opts.PreserveOwner, _ = cmd.Flags().GetBool("preserve-owner")
	opts.Progress, _ = cmd.Flags().GetBool("progress")

	noTimes, _ := cmd.Flags().GetBool("no-times")
	opts.PreserveTimes = !noTimes

	if opts.Jobs < 1 {
		return scan.Options{}, fmt.Errorf("invalid number of jobs: %d", opts.Jobs)
	}
	return opts, nil
}

func getBytes(cmd *cobra.Command, name string) (uint64, error) {
	s, _ := cmd.Flags().GetString(name)

	v, err := format.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid value for --%s: %w", name, err)
	}
	return v, nil
}
