package scan

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/opencontainers/go-digest"

	"github.com/ostafen/unjffs2/internal/extract"
	"github.com/ostafen/unjffs2/pkg/dfxml"
)

var ErrVerifyFailed = errors.New("extracted tree does not match the report")

type VerifyResult struct {
	Source     dfxml.Source
	Checked    int
	Missing    []string
	Mismatched []string
}

// Verify checks the tree under opts.OutputDir against a report written by
// a previous extraction. When several entries share a path, the last one
// is the object left on disk.
func Verify(reportFile string, opts Options) (*VerifyResult, error) {
	logger, logFile, err := opts.logger()
	if err != nil {
		return nil, err
	}
	if logFile != nil {
		defer logFile.Close()
	}

	f, err := os.Open(reportFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	src, err := dfxml.ReadSource(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	objs, err := dfxml.ReadFileObjects(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}

	outDir := opts.OutputDir
	if outDir == "" {
		outDir = extract.DefaultOutputDir
	}

	var (
		paths  []string
		byPath = make(map[string]dfxml.FileObject)
	)
	for _, obj := range objs {
		if _, ok := byPath[obj.Filename]; !ok {
			paths = append(paths, obj.Filename)
		}
		byPath[obj.Filename] = obj
	}

	res := &VerifyResult{Source: src}
	for _, name := range paths {
		obj := byPath[name]
		p := filepath.Join(outDir, filepath.FromSlash(name))

		res.Checked++
		fi, err := os.Lstat(p)
		if err != nil {
			logger.Warn("missing object", "path", name, "err", err)
			res.Missing = append(res.Missing, name)
			continue
		}

		if err := checkObject(p, fi, obj); err != nil {
			logger.Warn("object does not match report", "path", name, "err", err)
			res.Mismatched = append(res.Mismatched, name)
			continue
		}
		logger.Debug("verified", "path", name)
	}

	w := opts.info()
	fmt.Fprintf(w, "[INFO] Report: \t%s\n", absPath(reportFile))
	fmt.Fprintf(w, "[INFO] Source: \t%s\n", src.ImageFilename)
	fmt.Fprintf(w, "[INFO] Byte Order: \t%s\n", src.ByteOrder)
	fmt.Fprintf(w, "[INFO] Destination: \t%s\n", absPath(outDir))
	fmt.Fprintf(w, "[INFO] Checked: \t%d\n", res.Checked)
	fmt.Fprintf(w, "[INFO] Missing: \t%d\n", len(res.Missing))
	fmt.Fprintf(w, "[INFO] Mismatched: \t%d\n", len(res.Mismatched))

	if len(res.Missing) > 0 || len(res.Mismatched) > 0 {
		return res, ErrVerifyFailed
	}
	return res, nil
}

func checkObject(p string, fi fs.FileInfo, obj dfxml.FileObject) error {
	if !matchesNameType(obj.NameType, fi.Mode()) {
		return fmt.Errorf("expected name type %q, found %s", obj.NameType, fi.Mode().Type())
	}
	if obj.HashDigest == nil || obj.Error != "" {
		return nil
	}

	d := digest.NewDigestFromEncoded(digest.Algorithm(obj.HashDigest.Type), obj.HashDigest.Value)
	if err := d.Validate(); err != nil {
		return err
	}

	f, err := os.Open(p)
	if err != nil {
		return err
	}
	defer f.Close()

	v := d.Verifier()
	if _, err := io.Copy(v, f); err != nil {
		return err
	}
	if !v.Verified() {
		return fmt.Errorf("content does not match %s", d)
	}
	return nil
}

func matchesNameType(nameType string, mode fs.FileMode) bool {
	switch nameType {
	case "d":
		return mode.IsDir()
	case "r":
		return mode.IsRegular()
	case "l":
		return mode&fs.ModeSymlink != 0
	case "p":
		return mode&fs.ModeNamedPipe != 0
	case "c":
		return mode&fs.ModeCharDevice != 0
	case "b":
		return mode&fs.ModeDevice != 0 && mode&fs.ModeCharDevice == 0
	}
	return false
}
