// Package blocksrc provides the minimal block source the coordinator
// needs to be runnable end to end. Real block acquisition and parsing
// are out of scope; this is a fixture reader, not a node client.
package blocksrc

import (
	"bufio"
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/brk-indexer/brkidx/internal/chainmodel"
)

// JSONLReader decodes one chainmodel.Block per line of a newline
// -delimited-JSON file, in file order.
type JSONLReader struct {
	f   *os.File
	sc  *bufio.Scanner
	err error
}

// OpenJSONL opens path for sequential block reads.
func OpenJSONL(path string) (*JSONLReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "blocksrc: open %s", path)
	}
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	return &JSONLReader{f: f, sc: sc}, nil
}

// Next decodes the next block, returning io.EOF once the file is
// exhausted.
func (r *JSONLReader) Next() (chainmodel.Block, error) {
	if !r.sc.Scan() {
		if err := r.sc.Err(); err != nil {
			return chainmodel.Block{}, errors.Wrap(err, "blocksrc: scan")
		}
		return chainmodel.Block{}, io.EOF
	}
	var b chainmodel.Block
	if err := json.Unmarshal(r.sc.Bytes(), &b); err != nil {
		return chainmodel.Block{}, errors.Wrap(err, "blocksrc: decode block")
	}
	return b, nil
}

// Close releases the underlying file.
func (r *JSONLReader) Close() error { return r.f.Close() }
