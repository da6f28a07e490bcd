// Command savtool decodes, diffs, patches and GDL-edits the SAV files of
// spec.md's save-data format: a small verb-dispatch CLI in the same shape
// as distri(1), wrapping internal/sav, internal/savdiff and internal/gdl.
package main

import (
	"context"
	"flag"
	"fmt"
	"io/ioutil"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

var debug = flag.Bool("debug", false, "enable debug mode: format error messages with additional detail")

// bumpRlimitNOFILE raises the open-file-descriptor limit to the kernel
// maximum before a batch run, which opens and patches many targets
// concurrently via errgroup. The smaller of file-max and nr_open is the
// highest Linux will let us set:
// https://github.com/torvalds/linux/blob/2be7d348fe924f0c5583c6a805bd42cecda93104/kernel/sys.c#L1526-L1541
func bumpRlimitNOFILE() error {
	var fileMax, nrOpen uint64
	{
		b, err := ioutil.ReadFile("/proc/sys/fs/file-max")
		if err != nil {
			return err
		}
		fileMax, err = strconv.ParseUint(strings.TrimSpace(string(b)), 0, 64)
		if err != nil {
			return err
		}
	}
	{
		b, err := ioutil.ReadFile("/proc/sys/fs/nr_open")
		if err != nil {
			return err
		}
		nrOpen, err = strconv.ParseUint(strings.TrimSpace(string(b)), 0, 64)
		if err != nil {
			return err
		}
	}
	max := fileMax
	if nrOpen < max {
		max = nrOpen
	}
	set := unix.Rlimit{Max: max, Cur: max}
	return unix.Setrlimit(unix.RLIMIT_NOFILE, &set)
}

type cmd struct {
	fn func(ctx context.Context, args []string) error
}

func funcmain() error {
	flag.Parse()

	verbs := map[string]cmd{
		"decode": {decode},
		"encode": {encode},
		"diff":   {diffCmd},
		"patch":  {patchCmd},
		"gdl":    {gdlCmd},
		"batch":  {batchCmd},
	}

	args := flag.Args()
	verb := "decode"
	if len(args) > 0 {
		verb, args = args[0], args[1:]
	}

	if verb == "help" {
		if len(args) != 1 {
			fmt.Fprintf(os.Stderr, "savtool [-flags] <command> [-flags] <args>\n")
			fmt.Fprintln(os.Stderr)
			fmt.Fprintf(os.Stderr, "To get help on any command, use savtool <command> -help or savtool help <command>.\n")
			fmt.Fprintln(os.Stderr)
			fmt.Fprintf(os.Stderr, "Single-file commands:\n")
			fmt.Fprintf(os.Stderr, "\tdecode   - render a .sav file as JSON\n")
			fmt.Fprintf(os.Stderr, "\tencode   - render JSON back into a .sav file\n")
			fmt.Fprintf(os.Stderr, "\tdiff     - structurally diff two .sav files\n")
			fmt.Fprintf(os.Stderr, "\tpatch    - apply a diff document to a .sav file\n")
			fmt.Fprintln(os.Stderr)
			fmt.Fprintf(os.Stderr, "GDL layout commands:\n")
			fmt.Fprintf(os.Stderr, "\tgdl      - inspect or edit a GameDataList document\n")
			fmt.Fprintln(os.Stderr)
			fmt.Fprintf(os.Stderr, "Batch commands:\n")
			fmt.Fprintf(os.Stderr, "\tbatch    - apply one diff document to many .sav files concurrently\n")
			os.Exit(2)
		}
		verb = args[0]
		args = []string{"-help"}
	}

	v, ok := verbs[verb]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n", verb)
		fmt.Fprintf(os.Stderr, "syntax: savtool <command> [options]\n")
		os.Exit(2)
	}

	if verb == "batch" {
		if err := bumpRlimitNOFILE(); err != nil && *debug {
			fmt.Fprintf(os.Stderr, "batch: bumpRlimitNOFILE: %v\n", err)
		}
	}

	ctx := context.Background()
	if err := v.fn(ctx, args); err != nil {
		if *debug {
			return fmt.Errorf("%s: %+v", verb, err)
		}
		return fmt.Errorf("%s: %v", verb, err)
	}
	return nil
}

func main() {
	if err := funcmain(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
