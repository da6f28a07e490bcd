package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"os"

	"github.com/google/renameio"

	"github.com/dt-12345/savegdl/internal/hashdict"
	"github.com/dt-12345/savegdl/internal/sav"
)

const encodeHelp = `savtool encode [-flags] <input.json>

Encode a JSON document produced by 'savtool decode' back into a SAV file.

Example:
  % savtool encode -out save1.sav save1.json
`

func encode(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("encode", flag.ExitOnError)
	var (
		dictPath = fset.String("dict", "", "path to a hash dictionary JSON (or .zst) file, updated with any newly observed flag names")
		outPath  = fset.String("out", "", "output .sav path (default: stdout)")
	)
	fset.Usage = usage(fset, encodeHelp)
	fset.Parse(args)

	if fset.NArg() != 1 {
		fset.Usage()
		os.Exit(2)
	}

	dict, err := openDict(*dictPath)
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(fset.Arg(0))
	if err != nil {
		return err
	}

	var doc fileDoc
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return err
	}

	store, err := loadStoreDoc(doc.Flags, dict)
	if err != nil {
		return err
	}

	hdr := &sav.Header{
		FormatVersion: doc.FormatVersion,
		DataOffset:    doc.DataOffset,
		Size:          doc.Size,
	}
	out, err := sav.Encode(hdr, store)
	if err != nil {
		return err
	}

	if *dictPath != "" {
		if err := dict.Save(*dictPath); err != nil {
			return err
		}
	}

	return writeBinaryOutput(*outPath, out)
}

// writeBinaryOutput writes data to path atomically via renameio (a
// half-written .sav file left behind by a crashed encode is worse than a
// missing one), or to stdout when path is empty.
func writeBinaryOutput(path string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return renameio.WriteFile(path, data, 0o644)
}
