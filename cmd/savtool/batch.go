package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"golang.org/x/sync/errgroup"

	"github.com/dt-12345/savegdl/internal/sav"
	"github.com/dt-12345/savegdl/internal/savdiff"
	"github.com/dt-12345/savegdl/internal/snapshot"
)

const batchHelp = `savtool batch [-flags] <delta.json|delta.bundle> <target.sav>...

Apply one diff document to many SAV files concurrently (spec.md §5's
"per-file independence" requirement for a batch patch run). With
-snapshot-dir, each target is first snapshotted (compressed with
internal/snapshot) into that directory before being patched, so a mid-run
failure on one file never touches a snapshot already written for another.

Example:
  % savtool batch -snapshot-dir backups delta.json save1.sav save2.sav save3.sav
`

func batchCmd(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("batch", flag.ExitOnError)
	snapshotDir := fset.String("snapshot-dir", "", "directory to write per-file compressed pre-patch snapshots into")
	fset.Usage = usage(fset, batchHelp)
	fset.Parse(args)

	rest := fset.Args()
	if len(rest) < 2 {
		fset.Usage()
		os.Exit(2)
	}
	deltaRaw, err := os.ReadFile(rest[0])
	if err != nil {
		return err
	}
	doc, err := parseDeltaDocument(deltaRaw)
	if err != nil {
		return err
	}
	targets := rest[1:]

	if *snapshotDir != "" {
		if err := os.MkdirAll(*snapshotDir, 0o755); err != nil {
			return err
		}
	}

	eg, _ := errgroup.WithContext(ctx)
	results := make([]error, len(targets))
	for i, target := range targets {
		i, target := i, target
		eg.Go(func() error {
			err := batchOne(target, doc, *snapshotDir)
			results[i] = err
			return nil
		})
	}
	_ = eg.Wait()

	colorize := isatty.IsTerminal(os.Stdout.Fd())
	failed := 0
	for i, target := range targets {
		if results[i] != nil {
			failed++
			printResult(colorize, false, target, results[i])
		} else {
			printResult(colorize, true, target, nil)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d/%d target(s) failed", failed, len(targets))
	}
	return nil
}

func batchOne(target string, doc map[string]any, snapshotDir string) error {
	buf, err := os.ReadFile(target)
	if err != nil {
		return err
	}
	if snapshotDir != "" {
		compressed, err := snapshot.Write(buf)
		if err != nil {
			return err
		}
		snapPath := filepath.Join(snapshotDir, filepath.Base(target)+".gz")
		if err := os.WriteFile(snapPath, compressed, 0o644); err != nil {
			return err
		}
	}
	hdr, store, err := sav.Decode(buf)
	if err != nil {
		return err
	}
	if err := savdiff.Patch(store, doc); err != nil {
		return err
	}
	out, err := sav.Encode(hdr, store)
	if err != nil {
		return err
	}
	return writeBinaryOutput(target, out)
}

func printResult(colorize bool, ok bool, target string, err error) {
	const green = "\x1b[32m"
	const red = "\x1b[31m"
	const reset = "\x1b[0m"
	switch {
	case ok && colorize:
		fmt.Printf("%sok%s    %s\n", green, reset, target)
	case ok:
		fmt.Printf("ok      %s\n", target)
	case colorize:
		fmt.Printf("%sFAIL%s  %s: %v\n", red, reset, target, err)
	default:
		fmt.Printf("FAIL    %s: %v\n", target, err)
	}
}
