// Copyright (c) 2025 Stefano Scafiti
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.
package scan

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ostafen/unjffs2/internal/catalog"
	"github.com/ostafen/unjffs2/internal/extract"
	"github.com/ostafen/unjffs2/internal/jffs2"
	"github.com/ostafen/unjffs2/internal/logger"
	"github.com/ostafen/unjffs2/internal/mmap"
	"github.com/ostafen/unjffs2/pkg/pbar"
	fmtutil "github.com/ostafen/unjffs2/pkg/util/format"
)

type Options struct {
	OutputDir     string
	ReportFile    string
	MaxScanSize   uint64
	ByteOrder     string // "auto", "little" or "big"
	Jobs          int
	SeekWrites    bool
	PreserveOwner bool
	PreserveTimes bool
	Progress      bool
	Silent        bool
	LogLevel      slog.Level
	LogFile       string
	Out           io.Writer // Console output, os.Stdout when nil
}

func (opts *Options) console() io.Writer {
	if opts.Out == nil {
		return os.Stdout
	}
	return opts.Out
}

// info is where run summaries go; nothing is printed in silent mode.
func (opts *Options) info() io.Writer {
	if opts.Silent {
		return io.Discard
	}
	return opts.console()
}

func (opts *Options) logger() (*slog.Logger, *os.File, error) {
	level := opts.LogLevel
	if opts.Silent {
		level = max(level, slog.LevelWarn)
	}
	return logger.Setup(opts.console(), opts.LogFile, level)
}

// ParseByteOrder maps a byte order name to its binary.ByteOrder. "auto"
// maps to nil, meaning the order is detected from the image.
func ParseByteOrder(name string) (binary.ByteOrder, error) {
	switch strings.ToLower(name) {
	case "", "auto":
		return nil, nil
	case "little", "le":
		return binary.LittleEndian, nil
	case "big", "be":
		return binary.BigEndian, nil
	}
	return nil, fmt.Errorf("invalid byte order %q", name)
}

// Image is a mapped JFFS2 image ready to be scanned.
type Image struct {
	*mmap.Image

	ByteOrder binary.ByteOrder
	Detected  bool // ByteOrder was detected rather than requested
}

// Scanned returns the part of the image covered by the scan.
func (img *Image) Scanned(maxSize uint64) []byte {
	if maxSize > 0 && maxSize < uint64(len(img.Data)) {
		return img.Data[:maxSize]
	}
	return img.Data
}

// OpenImage maps the image at path and settles its byte order.
func OpenImage(path string, opts Options) (*Image, error) {
	order, err := ParseByteOrder(opts.ByteOrder)
	if err != nil {
		return nil, err
	}

	m, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}

	img := &Image{Image: m, ByteOrder: order}
	if order == nil {
		img.ByteOrder, img.Detected = jffs2.DetectByteOrder(img.Scanned(opts.MaxScanSize))
	}
	return img, nil
}

// BuildCatalog scans data and folds every valid node into a new catalog.
// bar may be nil.
func BuildCatalog(logger *slog.Logger, data []byte, order binary.ByteOrder, bar *pbar.ProgressBarState) (*catalog.Catalog, jffs2.Stats) {
	sc := jffs2.NewScanner(logger, order)
	cat := catalog.New(logger)

	found := 0
	for node := range sc.Scan(data) {
		cat.Fold(node)

		found++
		if bar != nil {
			bar.Update(int64(node.Offset+node.Len), found)
		}
	}
	if bar != nil {
		bar.ProcessedBytes = int64(len(data))
		bar.Finish()
	}
	return cat, sc.Stats()
}

// Extract recovers the filesystem stored in the image at path into
// opts.OutputDir.
func Extract(path string, opts Options) error {
	logger, logFile, err := opts.logger()
	if err != nil {
		return err
	}
	if logFile != nil {
		defer logFile.Close()
	}

	img, err := OpenImage(path, opts)
	if err != nil {
		return err
	}
	defer img.Close()

	outDir := opts.OutputDir
	if outDir == "" {
		outDir = extract.DefaultOutputDir
	}

	w := opts.info()

	fmt.Fprintln(w, "[INFO] Starting extraction...")
	fmt.Fprintf(w, "[INFO] Source: \t%s\n", absPath(path))
	fmt.Fprintf(w, "[INFO] Image Size: \t%s\n", fmtutil.FormatBytes(int64(img.Len())))
	fmt.Fprintf(w, "[INFO] Byte Order: \t%s\n", describeOrder(img))
	fmt.Fprintf(w, "[INFO] Destination: \t%s\n", absPath(outDir))

	outLog := "console"
	if opts.LogFile != "" {
		outLog = absPath(opts.LogFile)
	}
	fmt.Fprintf(w, "[INFO] Output Log: \t%s\n", outLog)

	start := time.Now()
	data := img.Scanned(opts.MaxScanSize)

	var bar *pbar.ProgressBarState
	if opts.Progress && !opts.Silent {
		bar = pbar.NewProgressBarState(w, int64(len(data)))
	}

	cat, stats := BuildCatalog(logger, data, img.ByteOrder, bar)
	logger.Info("scan completed", "nodes", stats.Nodes(), "dirs", len(cat.Dirs()), "files", len(cat.Files()))

	ext := extract.New(logger, extract.Options{
		OutputDir:     outDir,
		ByteOrder:     img.ByteOrder,
		Jobs:          opts.Jobs,
		SeekWrites:    opts.SeekWrites,
		PreserveOwner: opts.PreserveOwner,
		PreserveTimes: opts.PreserveTimes,
	})

	res, err := ext.Extract(context.Background(), cat)
	if err != nil {
		return err
	}

	if opts.ReportFile != "" {
		err := WriteReport(opts.ReportFile, path, img, res)
		if err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}

	fmt.Fprintf(w, "[INFO] Extraction completed!\n")
	PrintStats(w, stats)
	fmt.Fprintf(w, "[INFO] Directories: \t%d\n", res.Dirs)
	fmt.Fprintf(w, "[INFO] Files: \t%d (%s)\n", res.Files, fmtutil.FormatBytes(int64(res.Bytes)))
	fmt.Fprintf(w, "[INFO] Symlinks: \t%d\n", res.Symlinks)
	fmt.Fprintf(w, "[INFO] Special files: \t%d\n", res.Fifos+res.Devices)
	fmt.Fprintf(w, "[INFO] Skipped: \t%d\n", res.Skipped)
	fmt.Fprintf(w, "[INFO] Failed: \t%d\n", res.Failed)
	fmt.Fprintf(w, "[INFO] Duration: \t%s\n", FormatDurationHMS(time.Since(start)))

	if opts.ReportFile != "" {
		fmt.Fprintf(w, "[INFO] Report saved to: \t%s\n", absPath(opts.ReportFile))
	}
	if opts.LogFile != "" {
		fmt.Fprintf(w, "[INFO] Detailed log: \t%s\n", absPath(opts.LogFile))
	}
	return nil
}

// Inspect scans the image at path and hands the resulting catalog to fn.
// Fragment data borrows from the image, which is unmapped when fn returns.
func Inspect(path string, opts Options, fn func(img *Image, cat *catalog.Catalog, stats jffs2.Stats) error) error {
	logger, logFile, err := opts.logger()
	if err != nil {
		return err
	}
	if logFile != nil {
		defer logFile.Close()
	}

	img, err := OpenImage(path, opts)
	if err != nil {
		return err
	}
	defer img.Close()

	cat, stats := BuildCatalog(logger, img.Scanned(opts.MaxScanSize), img.ByteOrder, nil)
	cat.ResolvePaths()

	return fn(img, cat, stats)
}

// PrintStats writes the node counters of a scan.
func PrintStats(w io.Writer, stats jffs2.Stats) {
	fmt.Fprintf(w, "[INFO] Scanned: \t%s (%s skipped)\n",
		fmtutil.FormatBytes(int64(stats.ScannedBytes)),
		fmtutil.FormatBytes(int64(stats.SkippedBytes)))
	fmt.Fprintf(w, "[INFO] Nodes: \t%d (dirent %d, inode %d, xref %d, xattr %d, cleanmarker %d)\n",
		stats.Nodes(), stats.Dirents, stats.Inodes, stats.Xrefs, stats.Xattrs, stats.Cleanmarkers)
	fmt.Fprintf(w, "[INFO] Rejected: \t%d (%d unknown)\n", stats.Rejected, stats.Unknown)
}

func describeOrder(img *Image) string {
	name := jffs2.ByteOrderName(img.ByteOrder)
	if img.Detected {
		return name + " (detected)"
	}
	return name
}

func absPath(path string) string {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}

// FormatDurationHMS formats a time.Duration into HH:MM:SS string.
// It handles durations that might be less than an hour or greater than 24 hours.
func FormatDurationHMS(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
	totalSeconds := int64(d.Seconds())

	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60

	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}
