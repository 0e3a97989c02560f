// Package snapshot streams a Supertag export file without materializing
// the whole document.
//
// A snapshot is a JSON object `{formatVersion, docs, editors, workspaces}`
// where docs is a (potentially huge) array of records. Reader decodes the
// top-level shape incrementally with encoding/json's token stream so
// memory stays proportional to one record, not the whole file.
package snapshot

import (
	"bufio"
	"encoding/json"
	"io"
	"os"

	superr "github.com/nbbaier/supertag/internal/errors"
)

// Record is one entry of the snapshot's docs array.
type Record struct {
	ID       string                 `json:"id"`
	Props    map[string]interface{} `json:"props"`
	Children []string               `json:"children"`
}

// Reader yields Records lazily from an open snapshot file.
type Reader struct {
	file *os.File
	dec  *json.Decoder
	done bool
}

// Open begins streaming path. It validates the top-level object shape up
// to (and not including) the docs array, then leaves the decoder
// positioned to stream docs elements one at a time via Next.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, superr.Wrap(superr.CorruptSnapshot, err, "opening snapshot "+path)
	}

	dec := json.NewDecoder(bufio.NewReaderSize(f, 1<<20))

	tok, err := dec.Token()
	if err != nil {
		f.Close()
		return nil, superr.Wrap(superr.CorruptSnapshot, err, "reading snapshot root token")
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		f.Close()
		return nil, superr.New(superr.CorruptSnapshot, "snapshot root is not a JSON object")
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			f.Close()
			return nil, superr.Wrap(superr.CorruptSnapshot, err, "reading snapshot key")
		}
		key, ok := keyTok.(string)
		if !ok {
			f.Close()
			return nil, superr.New(superr.CorruptSnapshot, "snapshot key is not a string")
		}

		if key == "docs" {
			arrTok, err := dec.Token()
			if err != nil {
				f.Close()
				return nil, superr.Wrap(superr.CorruptSnapshot, err, "reading docs array start")
			}
			if d, ok := arrTok.(json.Delim); !ok || d != '[' {
				f.Close()
				return nil, superr.New(superr.CorruptSnapshot, "snapshot docs is not an array")
			}
			// Leave the decoder mid-array; Next() drives the rest.
			return &Reader{file: f, dec: dec}, nil
		}

		// formatVersion, editors, workspaces, or unknown top-level keys: skip.
		var discard json.RawMessage
		if err := dec.Decode(&discard); err != nil {
			f.Close()
			return nil, superr.Wrap(superr.CorruptSnapshot, err, "skipping snapshot key "+key)
		}
	}

	f.Close()
	return nil, superr.New(superr.CorruptSnapshot, "snapshot has no docs array")
}

// Next decodes the next Record from the docs array. It returns io.EOF
// once the array is exhausted.
func (r *Reader) Next() (Record, error) {
	if r.done {
		return Record{}, io.EOF
	}
	if !r.dec.More() {
		r.done = true
		return Record{}, io.EOF
	}
	var rec Record
	if err := r.dec.Decode(&rec); err != nil {
		return Record{}, superr.Wrap(superr.CorruptSnapshot, err, "decoding snapshot record")
	}
	return rec, nil
}

// Close releases the underlying file handle.
func (r *Reader) Close() error {
	if r.file == nil {
		return nil
	}
	return r.file.Close()
}

// Each streams every record in the snapshot at path, calling fn for each.
// fn's error is not fatal to the whole transaction
// ("malformed records: log and skip"); Each simply forwards it so the
// caller (the indexer) can decide. A nil return from fn continues
// iteration; any other error stops iteration and is returned by Each.
func Each(path string, fn func(Record) error) error {
	r, err := Open(path)
	if err != nil {
		return err
	}
	defer r.Close()

	for {
		rec, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
}
