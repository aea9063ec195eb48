package dfxml

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
)

// ReadFileObjects parses and returns all <fileobject> elements from the reader.
func ReadFileObjects(r io.Reader) ([]FileObject, error) {
	return readElements[FileObject](r, "fileobject")
}

// ReadSource returns the <source> section of a report.
func ReadSource(r io.Reader) (Source, error) {
	sources, err := readElements[Source](r, "source")
	if err != nil {
		return Source{}, err
	}
	if len(sources) == 0 {
		return Source{}, fmt.Errorf("report has no source element")
	}
	return sources[0], nil
}

func readElements[T any](r io.Reader, local string) ([]T, error) {
	dec := xml.NewDecoder(r)

	var elems []T
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return elems, nil
		}
		if err != nil {
			return nil, err
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != local {
			continue
		}

		var v T
		if err := dec.DecodeElement(&v, &start); err != nil {
			return nil, err
		}
		elems = append(elems, v)
	}
}
