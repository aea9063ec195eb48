package scan

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func extractWithReport(t *testing.T) (out, report string) {
	t.Helper()

	image := writeImage(t, testImage(binary.LittleEndian))
	dir := t.TempDir()
	out = filepath.Join(dir, "out")
	report = filepath.Join(dir, "report.xml")

	require.NoError(t, Extract(image, Options{OutputDir: out, ReportFile: report, Silent: true}))
	return out, report
}

func TestVerify(t *testing.T) {
	out, report := extractWithReport(t)

	var console bytes.Buffer
	res, err := Verify(report, Options{OutputDir: out, Out: &console})
	require.NoError(t, err)

	require.Equal(t, 2, res.Checked)
	require.Empty(t, res.Missing)
	require.Empty(t, res.Mismatched)
	require.Equal(t, "little", res.Source.ByteOrder)
	require.Contains(t, res.Source.ImageFilename, "rootfs.jffs2")
	require.Contains(t, console.String(), "[INFO] Checked: \t2")
}

func TestVerifyDetectsChanges(t *testing.T) {
	out, report := extractWithReport(t)
	hello := filepath.Join(out, "bin", "hello")

	require.NoError(t, os.WriteFile(hello, []byte("HI\n"), 0o644))
	res, err := Verify(report, Options{OutputDir: out, Silent: true})
	require.ErrorIs(t, err, ErrVerifyFailed)
	require.Equal(t, []string{"bin/hello"}, res.Mismatched)

	require.NoError(t, os.Remove(hello))
	require.NoError(t, os.Mkdir(hello, 0o755))
	res, err = Verify(report, Options{OutputDir: out, Silent: true})
	require.ErrorIs(t, err, ErrVerifyFailed)
	require.Equal(t, []string{"bin/hello"}, res.Mismatched)

	require.NoError(t, os.Remove(hello))
	res, err = Verify(report, Options{OutputDir: out, Silent: true})
	require.ErrorIs(t, err, ErrVerifyFailed)
	require.Equal(t, []string{"bin/hello"}, res.Missing)
	require.Empty(t, res.Mismatched)
}

func TestVerifyMissingReport(t *testing.T) {
	_, err := Verify(filepath.Join(t.TempDir(), "absent.xml"), Options{Silent: true})
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestMatchesNameType(t *testing.T) {
	require.True(t, matchesNameType("d", os.ModeDir))
	require.True(t, matchesNameType("r", 0))
	require.True(t, matchesNameType("l", os.ModeSymlink))
	require.True(t, matchesNameType("p", os.ModeNamedPipe))
	require.True(t, matchesNameType("c", os.ModeDevice|os.ModeCharDevice))
	require.True(t, matchesNameType("b", os.ModeDevice))
	require.False(t, matchesNameType("b", os.ModeDevice|os.ModeCharDevice))
	require.False(t, matchesNameType("r", os.ModeDir))
	require.False(t, matchesNameType("x", 0))
}
