package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/google/renameio"
	"golang.org/x/xerrors"

	"github.com/dt-12345/savegdl/internal/gdl"
	"github.com/dt-12345/savegdl/internal/namehash"
)

const gdlHelp = `savtool gdl [-flags] <action> <doc.json> [args...]

Inspect or edit a GameDataList document (spec.md §4.6-4.8). doc.json is the
JSON serialization of a gdl.Document: {"Data": {...}, "MetaData": {...}}.

Actions:
  list <doc.json> <type>                 list flag hashes present for type
  get  <doc.json> <type> <name-or-hash>   print one flag record
  set  <doc.json> <type> <record.json>    upsert a flag record (validated)
  del  <doc.json> <type> <name-or-hash>   delete one flag record
  recompute <doc.json>                    recompute MetaData after edits

Every action except list/get rewrites doc.json in place, or writes to the
-out path instead when one is given. Flags go before the action.

Example:
  % savtool gdl -out doc.json set doc.json Int flag.json
`

// gdlDoc mirrors internal/gdl.Document's exported shape for JSON
// round-tripping (gdl.Document keeps insertion order in an unexported
// field this CLI does not need to reconstruct: it only ever lists a
// single type's flags, never relies on Document.Kinds' overall order).
type gdlDoc struct {
	Data map[string][]gdl.FlagRecord `json:"Data"`
	Meta gdl.MetaData                `json:"MetaData"`
}

func loadGdlDoc(path string) (*gdl.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var gd gdlDoc
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &gd); err != nil {
			return nil, err
		}
	}
	doc := gdl.NewDocument()
	for typeName, flags := range gd.Data {
		for _, f := range flags {
			if err := doc.AddFlag(typeName, f, false); err != nil {
				return nil, err
			}
		}
	}
	doc.Meta = gd.Meta
	return doc, nil
}

func saveGdlDoc(path string, doc *gdl.Document) error {
	gd := gdlDoc{Data: doc.Data, Meta: doc.Meta}
	out, err := json.MarshalIndent(gd, "", "    ")
	if err != nil {
		return err
	}
	return renameio.WriteFile(path, out, 0o644)
}

// resolveFlagHash accepts either a hex ("0x...") literal hash or a bare
// flag name, the same "hex-or-name" convention savdiff's diff documents use
// (internal/namehash.ParseHexOrName); any other string, decimal digits
// included, is hashed as a name. For Bool64bitKey, a key that parses as
// 64-bit hex, with or without the "0x" prefix, is used as the hash itself.
func resolveFlagHash(typeName, key string) uint64 {
	if typeName == "Bool64bitKey" {
		if v, err := namehash.ParseKeyHex64(key); err == nil {
			return v
		}
	}
	return uint64(namehash.ParseHexOrName(key))
}

func gdlCmd(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("gdl", flag.ExitOnError)
	outPath := fset.String("out", "", "output path for mutating actions (default: overwrite the input doc)")
	fset.Usage = usage(fset, gdlHelp)
	fset.Parse(args)

	rest := fset.Args()
	if len(rest) < 1 {
		fset.Usage()
		os.Exit(2)
	}
	action, rest := rest[0], rest[1:]

	switch action {
	case "list":
		return gdlList(rest)
	case "get":
		return gdlGet(rest)
	case "set":
		return gdlSet(rest, *outPath)
	case "del":
		return gdlDel(rest, *outPath)
	case "recompute":
		return gdlRecompute(rest, *outPath)
	default:
		return xerrors.Errorf("gdl: unknown action %q", action)
	}
}

func gdlList(args []string) error {
	if len(args) != 2 {
		return xerrors.Errorf("gdl list: want <doc.json> <type>")
	}
	doc, err := loadGdlDoc(args[0])
	if err != nil {
		return err
	}
	for _, f := range doc.Data[args[1]] {
		fmt.Printf("0x%x\n", f.Hash())
	}
	return nil
}

func gdlGet(args []string) error {
	if len(args) != 3 {
		return xerrors.Errorf("gdl get: want <doc.json> <type> <name-or-hash>")
	}
	doc, err := loadGdlDoc(args[0])
	if err != nil {
		return err
	}
	hash := resolveFlagHash(args[1], args[2])
	f, ok := doc.GetFlagByHash(args[1], hash)
	if !ok {
		return xerrors.Errorf("gdl get: no %s flag with hash 0x%x", args[1], hash)
	}
	out, err := json.MarshalIndent(f, "", "    ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func gdlSet(args []string, outPath string) error {
	if len(args) != 3 {
		return xerrors.Errorf("gdl set: want <doc.json> <type> <record.json>")
	}
	doc, err := loadGdlDoc(args[0])
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(args[2])
	if err != nil {
		return err
	}
	var rec gdl.FlagRecord
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&rec); err != nil {
		return err
	}
	rec, err = normalizeJSONNumbers(rec)
	if err != nil {
		return err
	}
	if err := doc.AddFlag(args[1], rec, true); err != nil {
		return err
	}
	if err := gdl.UpdateMetaData(doc); err != nil {
		return err
	}
	if outPath == "" {
		outPath = args[0]
	}
	return saveGdlDoc(outPath, doc)
}

func gdlDel(args []string, outPath string) error {
	if len(args) != 3 {
		return xerrors.Errorf("gdl del: want <doc.json> <type> <name-or-hash>")
	}
	doc, err := loadGdlDoc(args[0])
	if err != nil {
		return err
	}
	hash := resolveFlagHash(args[1], args[2])
	if !doc.DeleteFlagByHash(args[1], hash) {
		return xerrors.Errorf("gdl del: no %s flag with hash 0x%x", args[1], hash)
	}
	if err := gdl.UpdateMetaData(doc); err != nil {
		return err
	}
	if outPath == "" {
		outPath = args[0]
	}
	return saveGdlDoc(outPath, doc)
}

func gdlRecompute(args []string, outPath string) error {
	if len(args) != 1 {
		return xerrors.Errorf("gdl recompute: want <doc.json>")
	}
	doc, err := loadGdlDoc(args[0])
	if err != nil {
		return err
	}
	if err := gdl.UpdateMetaData(doc); err != nil {
		return err
	}
	if outPath == "" {
		outPath = args[0]
	}
	return saveGdlDoc(outPath, doc)
}

// normalizeJSONNumbers walks a freshly json.Number-decoded FlagRecord and
// converts each json.Number leaf to an int64/float64 the way gdl.ValidateFlag's
// coerce* helpers expect, since json.Number itself is not one of the types
// they switch on.
func normalizeJSONNumbers(rec gdl.FlagRecord) (gdl.FlagRecord, error) {
	out := make(gdl.FlagRecord, len(rec))
	for k, v := range rec {
		nv, err := normalizeJSONValue(v)
		if err != nil {
			return nil, err
		}
		out[k] = nv
	}
	return out, nil
}

func normalizeJSONValue(v any) (any, error) {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i, nil
		}
		return x.Float64()
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			nv, err := normalizeJSONValue(e)
			if err != nil {
				return nil, err
			}
			out[i] = nv
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			nv, err := normalizeJSONValue(e)
			if err != nil {
				return nil, err
			}
			out[k] = nv
		}
		return out, nil
	default:
		return v, nil
	}
}
