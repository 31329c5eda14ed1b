package docs

import (
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadAgenda reads and strictly decodes an agenda document from path.
func LoadAgenda(path string) (*Agenda, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &DocError{Path: path, Err: err}
	}
	defer f.Close()

	var a Agenda
	if err := decodeStrict(f, &a); err != nil {
		return nil, &DocError{Path: path, Err: err}
	}
	return &a, nil
}

// LoadDepend reads and strictly decodes a depend document from path. A
// missing file is not an error: it yields an empty Depend, per spec.md §6
// ("may be missing; treated as empty").
func LoadDepend(path string) (Depend, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return Depend{}, nil
	}
	if err != nil {
		return nil, &DocError{Path: path, Err: err}
	}
	defer f.Close()

	d := Depend{}
	if err := decodeStrict(f, &d); err != nil {
		return nil, &DocError{Path: path, Err: err}
	}
	return d, nil
}

// decodeStrict decodes a single YAML document, rejecting unknown keys at
// any level.
func decodeStrict(r io.Reader, out interface{}) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	return dec.Decode(out)
}
