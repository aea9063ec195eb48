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
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ostafen/unjffs2/internal/compr"
)

func DefineCodecsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "codecs",
		Short: "List the compression methods and whether they can be decoded",
		Long: `The 'codecs' command displays every compression method an inode node may declare,
its numeric tag, and whether this build is able to decode it.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         RunCodecs,
	}
}

func RunCodecs(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTAG\tAVAILABLE\tDESC")

	registered := make(map[compr.Method]compr.Codec)
	for _, c := range compr.Codecs() {
		registered[c.Method] = c
	}

	for _, m := range compr.KnownMethods() {
		available, desc := "no", "-"
		if c, ok := registered[m]; ok {
			available, desc = "yes", c.Description
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", m, m, available, desc)
	}
	return w.Flush()
}
