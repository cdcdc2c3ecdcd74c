package depscan

import (
	"encoding/json"
	"io"
	"slices"

	"github.com/buildbuddy-io/nixscan/util/status"
)

const (
	RecursiveKind = "recursive"
	DirectKind    = "direct"
)

// DepSet is one named collection of dependencies.
type DepSet struct {
	Kind  string   `json:"kind"`
	Files []string `json:"files"`
}

// DepSets is the document nixscan prints.
type DepSets struct {
	DepSets []DepSet `json:"depsets"`
}

// Assemble builds the output document: the recursive depset (labels) first,
// then the direct depset (paths relative to the unit). Both are sorted and
// deduplicated so that output is stable across runs.
func Assemble(recursive, direct []string) *DepSets {
	return &DepSets{DepSets: []DepSet{
		{Kind: RecursiveKind, Files: sortedUnique(recursive)},
		{Kind: DirectKind, Files: sortedUnique(direct)},
	}}
}

func sortedUnique(s []string) []string {
	out := append(make([]string, 0, len(s)), s...)
	slices.Sort(out)
	return slices.Compact(out)
}

// Files returns the files of the depset with the given kind.
func (d *DepSets) Files(kind string) []string {
	for _, ds := range d.DepSets {
		if ds.Kind == kind {
			return ds.Files
		}
	}
	return nil
}

// JSON encodes the document on a single line, followed by a newline.
func (d *DepSets) JSON() ([]byte, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return nil, status.InternalErrorf("encode depsets: %s", err)
	}
	return append(b, '\n'), nil
}

// WriteJSON writes the encoded document to w.
func (d *DepSets) WriteJSON(w io.Writer) error {
	b, err := d.JSON()
	if err != nil {
		return err
	}
	if _, err := w.Write(b); err != nil {
		return status.InternalErrorf("write depsets: %s", err)
	}
	return nil
}
