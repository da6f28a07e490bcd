package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"

	"github.com/dt-12345/savegdl/internal/hashdict"
	"github.com/dt-12345/savegdl/internal/sav"
)

const decodeHelp = `savtool decode [-flags] <input.sav>

Decode a SAV file into a JSON document of type name -> flag name -> value,
with flag names resolved through -dict where possible.

Example:
  % savtool decode -dict names.json save1.sav > save1.json
`

// fileDoc is the JSON shape decode/encode round-trip: the SAV header
// fields alongside the flag table, so encode can reconstruct an
// identical-length buffer without the caller re-specifying them.
type fileDoc struct {
	FormatVersion uint32   `json:"FormatVersion"`
	DataOffset    uint32   `json:"DataOffset"`
	Size          int64    `json:"Size"`
	Flags         storeDoc `json:"Flags"`
}

func decode(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("decode", flag.ExitOnError)
	var (
		dictPath = fset.String("dict", "", "path to a hash dictionary JSON (or .zst) file used to resolve flag names")
		outPath  = fset.String("out", "", "output path (default: stdout)")
	)
	fset.Usage = usage(fset, decodeHelp)
	fset.Parse(args)

	if fset.NArg() != 1 {
		fset.Usage()
		os.Exit(2)
	}

	dict, err := openDict(*dictPath)
	if err != nil {
		return err
	}

	buf, err := os.ReadFile(fset.Arg(0))
	if err != nil {
		return err
	}
	hdr, store, err := sav.Decode(buf)
	if err != nil {
		return err
	}

	doc := fileDoc{
		FormatVersion: hdr.FormatVersion,
		DataOffset:    hdr.DataOffset,
		Size:          hdr.Size,
		Flags:         dumpStore(store, dict),
	}

	out, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return err
	}
	return writeOutput(*outPath, out)
}

// openDict loads a hash dictionary from path, or returns a fresh empty one
// if path is empty.
func openDict(path string) (*hashdict.Dict, error) {
	if path == "" {
		return hashdict.New(), nil
	}
	return hashdict.Load(path)
}

func writeOutput(path string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(append(data, '\n'))
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
