package dfxml

import (
	"bytes"
	"encoding/xml"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWriteAndReadBack(t *testing.T) {
	var buf bytes.Buffer

	w := NewDFXMLWriter(&buf)
	require.NoError(t, w.WriteHeader(DFXMLHeader{
		XmlOutput: XmlOutputVersion,
		Metadata:  DefaultMetadata,
		Creator: Creator{
			Package:              "unjffs2",
			Version:              "test",
			ExecutionEnvironment: GetExecEnv(),
		},
		Source: Source{
			ImageFilename: "rootfs.jffs2",
			ImageSize:     4096,
			ByteOrder:     "little",
		},
	}))

	objs := []FileObject{
		{
			Filename: "bin",
			Inode:    2,
			NameType: "d",
			Mode:     0o40755,
		},
		{
			Filename: "bin/hello",
			Inode:    3,
			NameType: "r",
			FileSize: 3,
			Mode:     0o100644,
			MTime:    FormatTime(time.Unix(1700000000, 0)),
			HashDigest: &HashDigest{
				Type:  "sha256",
				Value: "8a3b2f1e",
			},
			ByteRuns: ByteRuns{Runs: []ByteRun{{Offset: 0, ImgOffset: 112, Length: 3}}},
		},
	}
	for _, obj := range objs {
		require.NoError(t, w.WriteFileObject(obj))
	}
	require.NoError(t, w.Close())

	out := buf.String()
	require.True(t, strings.HasPrefix(out, xml.Header))
	require.Equal(t, 1, strings.Count(out, "<dfxml "))
	require.Contains(t, out, `<hashdigest type="sha256">8a3b2f1e</hashdigest>`)
	require.Contains(t, out, "<mtime>2023-11-14T22:13:20Z</mtime>")

	var hdr DFXMLHeader
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &hdr))
	require.Equal(t, XmlOutputVersion, hdr.XmlOutput)
	require.Equal(t, "rootfs.jffs2", hdr.Source.ImageFilename)
	require.Equal(t, uint64(4096), hdr.Source.ImageSize)
	require.Equal(t, "unjffs2", hdr.Creator.Package)

	src, err := ReadSource(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, "little", src.ByteOrder)

	read, err := ReadFileObjects(&buf)
	require.NoError(t, err)
	require.Len(t, read, 2)

	require.Equal(t, "bin", read[0].Filename)
	require.Nil(t, read[0].HashDigest)
	require.Empty(t, read[0].ByteRuns.Runs)

	require.Equal(t, "bin/hello", read[1].Filename)
	require.Equal(t, uint32(3), read[1].Inode)
	require.Equal(t, uint32(0o100644), read[1].Mode)
	require.Equal(t, "sha256", read[1].HashDigest.Type)
	require.Equal(t, "8a3b2f1e", read[1].HashDigest.Value)
	require.Equal(t, []ByteRun{{Offset: 0, ImgOffset: 112, Length: 3}}, read[1].ByteRuns.Runs)
}

func TestGetExecEnv(t *testing.T) {
	env := GetExecEnv()
	require.NotEmpty(t, env.OS)
	require.NotEmpty(t, env.Arch)
	require.NotEmpty(t, env.Start)
}
