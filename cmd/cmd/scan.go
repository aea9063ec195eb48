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
package cmd

import (
	"fmt"
	"io/fs"
	"path"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ostafen/unjffs2/internal/catalog"
	"github.com/ostafen/unjffs2/internal/jffs2"
	"github.com/ostafen/unjffs2/internal/scan"
)

func DefineScanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <image>",
		Short: "List the contents of a JFFS2 image without extracting it",
		Long: `The 'scan' command rebuilds the catalog of a JFFS2 image and prints one row per object,
followed by node statistics. Nothing is written to disk.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         RunScan,
	}

	cmd.Flags().String("endian", "auto", "byte order of the image (auto, little, big)")
	cmd.Flags().String("max-scan-size", "", "max number of bytes to scan")

	return cmd
}

func RunScan(cmd *cobra.Command, args []string) error {
	opts, err := parseOptions(cmd)
	if err != nil {
		return err
	}

	return scan.Inspect(args[0], opts, func(img *scan.Image, cat *catalog.Catalog, stats jffs2.Stats) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "INO\tMODE\tUID\tGID\tSIZE\tFRAGS\tPATH")

		for _, d := range cat.Dirs() {
			p := d.Path
			if p == "" {
				p = "<unresolved>/" + d.Name
			}
			fmt.Fprintf(w, "%d\t%s\t%d\t%d\t-\t-\t%s\n", d.Ino, fileMode(jffs2.SIFDIR|d.Mode), d.UID, d.GID, p)
		}

		for _, f := range cat.Files() {
			latest := f.Latest()
			if latest == nil {
				latest = &catalog.Fragment{}
			}
			fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%d\t%d\t%s\n",
				f.Ino,
				fileMode(f.Mode()),
				latest.UID,
				latest.GID,
				latest.ISize,
				len(f.Fragments),
				filePath(cat, f),
			)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout())
		fmt.Fprintf(cmd.OutOrStdout(), "[INFO] Byte Order: \t%s\n", jffs2.ByteOrderName(img.ByteOrder))
		scan.PrintStats(cmd.OutOrStdout(), stats)
		return nil
	})
}

func filePath(cat *catalog.Catalog, f *catalog.File) string {
	if !f.Named() {
		return fmt.Sprintf("<orphan #%d>", f.Ino)
	}
	parent, ok := cat.DirPath(f.Pino)
	if !ok {
		parent = fmt.Sprintf("<unresolved #%d>", f.Pino)
	}
	return path.Join("/", parent, f.Name)
}

// fileMode converts an on-flash mode to its fs.FileMode, for display.
func fileMode(mode uint32) fs.FileMode {
	m := fs.FileMode(mode & 0o777)
	switch mode & jffs2.SIFMT {
	case jffs2.SIFDIR:
		m |= fs.ModeDir
	case jffs2.SIFLNK:
		m |= fs.ModeSymlink
	case jffs2.SIFIFO:
		m |= fs.ModeNamedPipe
	case jffs2.SIFSOCK:
		m |= fs.ModeSocket
	case jffs2.SIFCHR:
		m |= fs.ModeDevice | fs.ModeCharDevice
	case jffs2.SIFBLK:
		m |= fs.ModeDevice
	case jffs2.SIFREG:
	default:
		m |= fs.ModeIrregular
	}
	if mode&0o4000 != 0 {
		m |= fs.ModeSetuid
	}
	if mode&0o2000 != 0 {
		m |= fs.ModeSetgid
	}
	if mode&0o1000 != 0 {
		m |= fs.ModeSticky
	}
	return m
}
