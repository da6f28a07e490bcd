package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"

	"github.com/dt-12345/savegdl/internal/diffbundle"
	"github.com/dt-12345/savegdl/internal/sav"
	"github.com/dt-12345/savegdl/internal/savdiff"
)

const diffHelp = `savtool diff [-flags] <old.sav> <new.sav>

Structurally diff two SAV files, producing a delta document keyed by
resolved flag name (spec.md's diff engine). With -bundle, the document is
wrapped in a diffbundle container suitable for 'savtool patch -bundle' and
'savtool batch'; otherwise plain JSON is written.

Example:
  % savtool diff -dict names.json before.sav after.sav > delta.json
`

func diffCmd(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("diff", flag.ExitOnError)
	var (
		dictPath = fset.String("dict", "", "path to a hash dictionary JSON (or .zst) file used to resolve flag names")
		outPath  = fset.String("out", "", "output path (default: stdout)")
		bundle   = fset.Bool("bundle", false, "wrap the diff document in a diffbundle container")
	)
	fset.Usage = usage(fset, diffHelp)
	fset.Parse(args)

	if fset.NArg() != 2 {
		fset.Usage()
		os.Exit(2)
	}

	dict, err := openDict(*dictPath)
	if err != nil {
		return err
	}

	aBuf, err := os.ReadFile(fset.Arg(0))
	if err != nil {
		return err
	}
	bBuf, err := os.ReadFile(fset.Arg(1))
	if err != nil {
		return err
	}

	_, aStore, err := sav.Decode(aBuf)
	if err != nil {
		return err
	}
	_, bStore, err := sav.Decode(bBuf)
	if err != nil {
		return err
	}

	delta := savdiff.Diff(aStore, bStore, dict)
	body, err := json.MarshalIndent(delta, "", "    ")
	if err != nil {
		return err
	}

	if *bundle {
		body, err = diffbundle.Write(body, diffbundle.FormatJSON)
		if err != nil {
			return err
		}
		return writeBinaryOutput(*outPath, body)
	}
	return writeOutput(*outPath, body)
}
