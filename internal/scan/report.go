package scan

import (
	"fmt"
	"os"
	"time"

	"github.com/ostafen/unjffs2/internal/env"
	"github.com/ostafen/unjffs2/internal/extract"
	"github.com/ostafen/unjffs2/internal/jffs2"
	"github.com/ostafen/unjffs2/pkg/dfxml"
)

// WriteReport writes a DFXML document listing every object of res.
func WriteReport(reportFile, imagePath string, img *Image, res *extract.Result) (err error) {
	f, err := os.Create(reportFile)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w := dfxml.NewDFXMLWriter(f)

	err = w.WriteHeader(dfxml.DFXMLHeader{
		XmlOutput: dfxml.XmlOutputVersion,
		Metadata:  dfxml.DefaultMetadata,
		Creator: dfxml.Creator{
			Package:              env.AppName,
			Version:              env.Version,
			ExecutionEnvironment: dfxml.GetExecEnv(),
		},
		Source: dfxml.Source{
			ImageFilename: absPath(imagePath),
			ImageSize:     uint64(img.Len()),
			ByteOrder:     jffs2.ByteOrderName(img.ByteOrder),
		},
	})
	if err != nil {
		return err
	}

	for _, obj := range res.Objects {
		if err := w.WriteFileObject(fileObject(obj)); err != nil {
			return fmt.Errorf("unable to write entry for %q: %w", obj.Path, err)
		}
	}
	return w.Close()
}

func fileObject(obj extract.Object) dfxml.FileObject {
	fo := dfxml.FileObject{
		Filename: obj.Path,
		Inode:    obj.Ino,
		NameType: obj.Kind.NameType(),
		FileSize: obj.Size,
		Mode:     obj.Mode,
		UID:      uint32(obj.UID),
		GID:      uint32(obj.GID),
	}
	if obj.Mtime != 0 {
		fo.MTime = dfxml.FormatTime(time.Unix(int64(obj.Mtime), 0))
	}
	if obj.Digest != "" {
		fo.HashDigest = &dfxml.HashDigest{
			Type:  obj.Digest.Algorithm().String(),
			Value: obj.Digest.Encoded(),
		}
	}
	if obj.Err != nil {
		fo.Error = obj.Err.Error()
	}
	for _, run := range obj.Runs {
		fo.ByteRuns.Runs = append(fo.ByteRuns.Runs, dfxml.ByteRun{
			Offset:    uint64(run.Offset),
			ImgOffset: uint64(run.ImgOffset),
			Length:    uint64(run.Length),
		})
	}
	return fo
}
