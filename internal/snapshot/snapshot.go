// Package snapshot compresses a pre-patch backup of a store's source
// bytes before a batch patch run, per spec.md §9's design note that "a
// target implementation should consider snapshotting the store and
// committing on full success": given -snapshot-dir, batch (cmd/savtool's
// batch verb) writes one of these into that directory for each file it is
// about to patch, so a failed run can be diagnosed against the exact bytes
// it started from.
package snapshot

import (
	"bytes"
	"io/ioutil"
	"runtime"

	"github.com/klauspost/pgzip"
)

// Write compresses src using a parallel gzip writer and returns the
// compressed bytes. Parallel compression is the point: a batch run
// snapshotting many save files at once would otherwise serialize on a
// single core's gzip throughput.
func Write(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := pgzip.NewWriterLevel(&buf, pgzip.BestSpeed)
	if err != nil {
		return nil, err
	}
	if err := w.SetConcurrency(1<<20, runtime.GOMAXPROCS(0)); err != nil {
		return nil, err
	}
	if _, err := w.Write(src); err != nil {
		_ = w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Read decompresses a snapshot produced by Write.
func Read(compressed []byte) ([]byte, error) {
	r, err := pgzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return ioutil.ReadAll(r)
}
