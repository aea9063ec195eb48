package scan

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/require"

	"github.com/ostafen/unjffs2/internal/catalog"
	"github.com/ostafen/unjffs2/internal/jffs2"
	"github.com/ostafen/unjffs2/pkg/dfxml"
)

func fileNodes(order binary.ByteOrder, pino, ino uint32, name, content string) []byte {
	var buf []byte
	buf = append(buf, jffs2.Pad4(jffs2.EncodeDirent(order, &jffs2.Dirent{
		Pino:    pino,
		Version: 1,
		Ino:     ino,
		Type:    jffs2.DTReg,
		Name:    name,
	}))...)
	buf = append(buf, jffs2.Pad4(jffs2.EncodeInode(order, &jffs2.Inode{
		Ino:     ino,
		Version: 2,
		Mode:    jffs2.SIFREG | 0o644,
		ISize:   uint32(len(content)),
		Mtime:   1700000000,
		DSize:   uint32(len(content)),
		Data:    []byte(content),
	}))...)
	return buf
}

func testImage(order binary.ByteOrder) []byte {
	buf := jffs2.EncodeCleanmarker(order)
	buf = append(buf, jffs2.Pad4(jffs2.EncodeDirent(order, &jffs2.Dirent{
		Pino:    jffs2.RootIno,
		Version: 1,
		Ino:     2,
		Type:    jffs2.DTDir,
		Name:    "bin",
	}))...)
	buf = append(buf, bytes.Repeat([]byte{0xff}, 64)...)
	buf = append(buf, fileNodes(order, 2, 3, "hello", "hi\n")...)
	return buf
}

func writeImage(t *testing.T, data []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "rootfs.jffs2")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestExtract(t *testing.T) {
	image := writeImage(t, testImage(binary.LittleEndian))
	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	report := filepath.Join(dir, "report.xml")

	var console bytes.Buffer
	err := Extract(image, Options{
		OutputDir:  out,
		ReportFile: report,
		Out:        &console,
	})
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(out, "bin", "hello"))
	require.NoError(t, err)
	require.Equal(t, "hi\n", string(content))

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	require.Contains(t, console.String(), "[INFO] Extraction completed!")
	require.Contains(t, console.String(), "[INFO] created file path=bin/hello")
	require.Contains(t, console.String(), "little (detected)")

	f, err := os.Open(report)
	require.NoError(t, err)
	defer f.Close()

	objs, err := dfxml.ReadFileObjects(f)
	require.NoError(t, err)
	require.Len(t, objs, 2)

	require.Equal(t, "bin", objs[0].Filename)
	require.Equal(t, "d", objs[0].NameType)

	hello := objs[1]
	require.Equal(t, "bin/hello", hello.Filename)
	require.Equal(t, "r", hello.NameType)
	require.Equal(t, uint64(3), hello.FileSize)
	require.Equal(t, "2023-11-14T22:13:20Z", hello.MTime)
	require.Equal(t, "sha256", hello.HashDigest.Type)
	require.Equal(t, digest.FromBytes(content).Encoded(), hello.HashDigest.Value)
	require.Len(t, hello.ByteRuns.Runs, 1)
	require.Equal(t, uint64(3), hello.ByteRuns.Runs[0].Length)
}

func TestExtractBigEndian(t *testing.T) {
	image := writeImage(t, testImage(binary.BigEndian))
	out := filepath.Join(t.TempDir(), "out")

	var console bytes.Buffer
	require.NoError(t, Extract(image, Options{OutputDir: out, Out: &console}))

	content, err := os.ReadFile(filepath.Join(out, "bin", "hello"))
	require.NoError(t, err)
	require.Equal(t, "hi\n", string(content))
	require.Contains(t, console.String(), "big (detected)")
}

func TestExtractForcedByteOrderMismatch(t *testing.T) {
	image := writeImage(t, testImage(binary.BigEndian))
	out := filepath.Join(t.TempDir(), "out")

	require.NoError(t, Extract(image, Options{OutputDir: out, ByteOrder: "little", Silent: true}))

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestExtractSilent(t *testing.T) {
	image := writeImage(t, testImage(binary.LittleEndian))

	var console bytes.Buffer
	err := Extract(image, Options{
		OutputDir: filepath.Join(t.TempDir(), "out"),
		Silent:    true,
		Progress:  true,
		Out:       &console,
	})
	require.NoError(t, err)
	require.Zero(t, console.Len())
}

func TestExtractProgress(t *testing.T) {
	image := writeImage(t, testImage(binary.LittleEndian))

	var console bytes.Buffer
	err := Extract(image, Options{
		OutputDir: filepath.Join(t.TempDir(), "out"),
		Progress:  true,
		Out:       &console,
	})
	require.NoError(t, err)
	require.Contains(t, console.String(), "Nodes Found: 4")
}

func TestExtractLogFile(t *testing.T) {
	image := writeImage(t, testImage(binary.LittleEndian))
	dir := t.TempDir()
	logFile := filepath.Join(dir, "logs", "run.log")

	var console bytes.Buffer
	err := Extract(image, Options{
		OutputDir: filepath.Join(dir, "out"),
		LogFile:   logFile,
		Out:       &console,
	})
	require.NoError(t, err)
	require.NotContains(t, console.String(), "created file")

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	require.Contains(t, string(data), "msg=\"created file\"")
	require.Contains(t, string(data), "path=bin/hello")
}

func TestExtractMaxScanSize(t *testing.T) {
	first := fileNodes(binary.LittleEndian, jffs2.RootIno, 2, "kept", "kept")
	second := fileNodes(binary.LittleEndian, jffs2.RootIno, 3, "dropped", "dropped")
	image := writeImage(t, append(first, second...))
	out := filepath.Join(t.TempDir(), "out")

	require.NoError(t, Extract(image, Options{
		OutputDir:   out,
		MaxScanSize: uint64(len(first)),
		Silent:      true,
	}))

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "kept", entries[0].Name())
}

func TestExtractMissingImage(t *testing.T) {
	err := Extract(filepath.Join(t.TempDir(), "missing"), Options{Silent: true})
	require.Error(t, err)
}

func TestInspect(t *testing.T) {
	image := writeImage(t, testImage(binary.BigEndian))

	called := false
	err := Inspect(image, Options{Silent: true}, func(img *Image, cat *catalog.Catalog, stats jffs2.Stats) error {
		called = true

		require.Equal(t, binary.BigEndian, img.ByteOrder)
		require.True(t, img.Detected)
		require.Equal(t, 1, stats.Cleanmarkers)
		require.Equal(t, 2, stats.Dirents)
		require.Equal(t, 1, stats.Inodes)
		require.GreaterOrEqual(t, stats.SkippedBytes, uint64(64))

		path, ok := cat.DirPath(2)
		require.True(t, ok)
		require.Equal(t, "/bin", path)
		require.Len(t, cat.Files(), 1)
		return nil
	})
	require.NoError(t, err)
	require.True(t, called)
}

func TestParseByteOrder(t *testing.T) {
	order, err := ParseByteOrder("auto")
	require.NoError(t, err)
	require.Nil(t, order)

	order, err = ParseByteOrder("BIG")
	require.NoError(t, err)
	require.Equal(t, binary.BigEndian, order)

	order, err = ParseByteOrder("le")
	require.NoError(t, err)
	require.Equal(t, binary.LittleEndian, order)

	_, err = ParseByteOrder("middle")
	require.Error(t, err)
}

func TestFormatDurationHMS(t *testing.T) {
	require.Equal(t, "0.50s", FormatDurationHMS(500*time.Millisecond))
	require.Equal(t, "00:01:05", FormatDurationHMS(65*time.Second))
	require.Equal(t, "26:00:00", FormatDurationHMS(26*time.Hour))
}
