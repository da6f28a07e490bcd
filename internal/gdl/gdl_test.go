package gdl

import (
	"reflect"
	"testing"

	"github.com/dt-12345/savegdl/internal/namehash"
)

// TestCalcResetTypeValueScenarioS3 matches spec.md §8 scenario S3.
func TestCalcResetTypeValueScenarioS3(t *testing.T) {
	got := CalcResetTypeValue("cOnSceneChange", "cOnStartNewData", "cOnSceneInitialize")
	if got != 81 {
		t.Fatalf("CalcResetTypeValue = %d, want 81", got)
	}
	names := ResetTypesFromMask(got)
	want := []string{"cOnSceneChange", "cOnStartNewData", "cOnSceneInitialize"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("ResetTypesFromMask(%d) = %v, want %v", got, names, want)
	}
}

// TestMapUnitScenarioS4 matches spec.md §8 scenario S4.
func TestMapUnitScenarioS4(t *testing.T) {
	tt := []struct {
		unit string
		byte int32
	}{
		{"A1", 1},
		{"J8", 80},
	}
	for _, tc := range tt {
		got, err := CalcExtraByte(tc.unit)
		if err != nil {
			t.Fatalf("CalcExtraByte(%q): %v", tc.unit, err)
		}
		if got != tc.byte {
			t.Fatalf("CalcExtraByte(%q) = %d, want %d", tc.unit, got, tc.byte)
		}
		unit, err := CalcMapUnit(tc.byte)
		if err != nil {
			t.Fatalf("CalcMapUnit(%d): %v", tc.byte, err)
		}
		if unit != tc.unit {
			t.Fatalf("CalcMapUnit(%d) = %q, want %q", tc.byte, unit, tc.unit)
		}
	}
}

// TestMapUnitRoundTripProperty exercises spec.md §8 property 7 over the
// full grid.
func TestMapUnitRoundTripProperty(t *testing.T) {
	for _, letter := range letters {
		for row := 1; row <= 8; row++ {
			unit := string(letter) + string(rune('0'+row))
			eb, err := CalcExtraByte(unit)
			if err != nil {
				t.Fatalf("CalcExtraByte(%q): %v", unit, err)
			}
			back, err := CalcMapUnit(eb)
			if err != nil {
				t.Fatalf("CalcMapUnit(%d): %v", eb, err)
			}
			if back != unit {
				t.Fatalf("round trip %q -> %d -> %q", unit, eb, back)
			}
		}
	}
	for n := int32(1); n <= 80; n++ {
		unit, err := CalcMapUnit(n)
		if err != nil {
			t.Fatalf("CalcMapUnit(%d): %v", n, err)
		}
		back, err := CalcExtraByte(unit)
		if err != nil {
			t.Fatalf("CalcExtraByte(%q): %v", unit, err)
		}
		if back != n {
			t.Fatalf("round trip %d -> %q -> %d", n, unit, back)
		}
	}
}

func newSingleDirDoc() *Document {
	d := NewDocument()
	d.Meta.SaveDirectory = []string{"SaveData0"}
	return d
}

func intFlag(hash uint32, value int32) FlagRecord {
	return FlagRecord{
		"Hash":           hash,
		"ResetTypeValue": int32(0),
		"SaveFileIndex":  int32(0),
		"DefaultValue":   value,
	}
}

func TestFlagCRUD(t *testing.T) {
	d := newSingleDirDoc()
	if err := d.AddFlag("Int", intFlag(0x1, 5), true); err != nil {
		t.Fatal(err)
	}
	got, ok := d.GetFlagByHash("Int", 0x1)
	if !ok {
		t.Fatal("expected flag to be present")
	}
	if got["DefaultValue"].(int32) != 5 {
		t.Fatalf("DefaultValue = %v, want 5", got["DefaultValue"])
	}

	// Upsert by hash: same hash replaces, does not append.
	if err := d.AddFlag("Int", intFlag(0x1, 9), true); err != nil {
		t.Fatal(err)
	}
	if len(d.Data["Int"]) != 1 {
		t.Fatalf("len(Data[Int]) = %d, want 1", len(d.Data["Int"]))
	}
	got, _ = d.GetFlagByHash("Int", 0x1)
	if got["DefaultValue"].(int32) != 9 {
		t.Fatalf("DefaultValue after upsert = %v, want 9", got["DefaultValue"])
	}

	if !d.DeleteFlagByHash("Int", 0x1) {
		t.Fatal("expected delete to report found")
	}
	if _, ok := d.GetFlagByHash("Int", 0x1); ok {
		t.Fatal("expected flag to be gone after delete")
	}
}

func TestGetSizeInlineScalar(t *testing.T) {
	sz, err := GetSize("Int", intFlag(0x1, 1))
	if err != nil {
		t.Fatal(err)
	}
	if sz != 8 {
		t.Fatalf("GetSize(Int) = %d, want 8", sz)
	}
}

func TestGetSizeIntArray(t *testing.T) {
	flag := FlagRecord{
		"Hash":           uint32(0x1),
		"ResetTypeValue": int32(0),
		"SaveFileIndex":  int32(0),
		"OriginalSize":   uint32(3),
		"DefaultValue":   []any{int32(1), int32(2), int32(3)},
	}
	sz, err := GetSize("IntArray", flag)
	if err != nil {
		t.Fatal(err)
	}
	// 8 base + 4 count prefix + 3*4 elements = 24
	if sz != 24 {
		t.Fatalf("GetSize(IntArray) = %d, want 24", sz)
	}
}

func TestGetSizeStructAndBoolExp(t *testing.T) {
	for _, typeName := range []string{"Struct", "BoolExp"} {
		sz, err := GetSize(typeName, FlagRecord{})
		if err != nil {
			t.Fatal(err)
		}
		if sz != 8 {
			t.Fatalf("GetSize(%s) = %d, want 8", typeName, sz)
		}
	}
}

// TestUpdateMetaDataIdempotent matches spec.md §8 property 5: running
// UpdateMetaData twice on an otherwise-unmodified document leaves MetaData
// bitwise-equal.
func TestUpdateMetaDataIdempotent(t *testing.T) {
	d := newSingleDirDoc()
	if err := d.AddFlag("Int", intFlag(0x1, 5), true); err != nil {
		t.Fatal(err)
	}
	if err := UpdateMetaData(d); err != nil {
		t.Fatal(err)
	}
	first := d.Meta
	if err := UpdateMetaData(d); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, d.Meta) {
		t.Fatalf("UpdateMetaData not idempotent:\n%+v\n%+v", first, d.Meta)
	}
}

// TestSizeMonotonicity matches spec.md §8 property 6: adding one Int flag
// increases SaveDataSize[i] by exactly GetSize(Int,_); GetSize's base 8
// bytes already account for the flag's key-table hash+value pair (the
// separate +8 gamedata.py applies per non-Bool64bitKey entry lands on
// SaveDataOffsetPos, not SaveDataSize — see CalcSize).
func TestSizeMonotonicity(t *testing.T) {
	d := newSingleDirDoc()
	if err := UpdateMetaData(d); err != nil {
		t.Fatal(err)
	}
	before := d.Meta.SaveDataSize[0]
	beforeOffset := d.Meta.SaveDataOffsetPos[0]

	if err := d.AddFlag("Int", intFlag(0x1, 5), true); err != nil {
		t.Fatal(err)
	}
	if err := UpdateMetaData(d); err != nil {
		t.Fatal(err)
	}
	after := d.Meta.SaveDataSize[0]
	afterOffset := d.Meta.SaveDataOffsetPos[0]

	sz, err := GetSize("Int", intFlag(0x1, 5))
	if err != nil {
		t.Fatal(err)
	}
	if after != before+sz {
		t.Fatalf("SaveDataSize after add = %d, want %d (before=%d sz=%d)", after, before+sz, before, sz)
	}
	if afterOffset != beforeOffset+8 {
		t.Fatalf("SaveDataOffsetPos after add = %d, want %d", afterOffset, beforeOffset+8)
	}
}

// TestSizeMonotonicityBool64bitKey checks the extra terminator byte count
// on the first Bool64bitKey insertion for a save index.
func TestSizeMonotonicityBool64bitKey(t *testing.T) {
	d := newSingleDirDoc()
	if err := UpdateMetaData(d); err != nil {
		t.Fatal(err)
	}
	before := d.Meta.SaveDataSize[0]

	flag := FlagRecord{
		"Hash":           uint64(1),
		"ResetTypeValue": int32(0),
		"SaveFileIndex":  int32(0),
	}
	if err := d.AddFlag("Bool64bitKey", flag, true); err != nil {
		t.Fatal(err)
	}
	if err := UpdateMetaData(d); err != nil {
		t.Fatal(err)
	}
	after := d.Meta.SaveDataSize[0]

	sz, err := GetSize("Bool64bitKey", flag)
	if err != nil {
		t.Fatal(err)
	}
	want := before + sz + 8 // terminator, not the 8-byte key-table entry Bool64bitKey skips
	if after != want {
		t.Fatalf("SaveDataSize after Bool64bitKey add = %d, want %d", after, want)
	}
}

func TestValidateFlagCoercesNumericWidths(t *testing.T) {
	flag := FlagRecord{
		"Hash":           float64(0x1234), // as if round-tripped through JSON
		"ResetTypeValue": float64(0),
		"SaveFileIndex":  float64(2),
		"DefaultValue":   float64(-5),
	}
	got, err := ValidateFlag(flag, "Int")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := got["Hash"].(uint32); !ok {
		t.Fatalf("Hash type = %T, want uint32", got["Hash"])
	}
	if _, ok := got["DefaultValue"].(int32); !ok {
		t.Fatalf("DefaultValue type = %T, want int32", got["DefaultValue"])
	}
}

func TestValidateFlagStringTooLong(t *testing.T) {
	flag := FlagRecord{
		"Hash":           uint32(1),
		"ResetTypeValue": int32(0),
		"SaveFileIndex":  int32(0),
		"DefaultValue":   "this string is definitely far too long for String16",
	}
	if _, err := ValidateFlag(flag, "String16"); err == nil {
		t.Fatal("expected an error for an over-length String16 DefaultValue")
	}
}

func TestValidateFlagExtraByteRange(t *testing.T) {
	flag := FlagRecord{
		"Hash":           uint32(1),
		"ResetTypeValue": int32(256),
		"SaveFileIndex":  int32(0),
		"DefaultValue":   int32(0),
		"ExtraByte":      int32(81),
	}
	if _, err := ValidateFlag(flag, "Int"); err == nil {
		t.Fatal("expected ExtraByte out of range error")
	}
}

func TestValidateFlagBoolExpArity(t *testing.T) {
	flag := FlagRecord{
		"Hash":           uint32(1),
		"ResetTypeValue": int32(0),
		"SaveFileIndex":  int32(0),
		"Values":         []any{[]any{int32(0), int32(1)}},
	}
	got, err := ValidateFlag(flag, "BoolExp")
	if err != nil {
		t.Fatal(err)
	}
	values := got["Values"].([]any)
	expr := values[0].([]any)
	if len(expr) != 2 {
		t.Fatalf("len(expr) = %d, want 2", len(expr))
	}
	if _, ok := expr[0].(uint64); !ok {
		t.Fatalf("expr[0] type = %T, want uint64", expr[0])
	}

	bad := FlagRecord{
		"Hash":           uint32(1),
		"ResetTypeValue": int32(0),
		"SaveFileIndex":  int32(0),
		"Values":         []any{[]any{int32(0)}}, // opcode 0 requires 2 operands
	}
	if _, err := ValidateFlag(bad, "BoolExp"); err == nil {
		t.Fatal("expected an arity error")
	}
}

func TestGetFlagByNameHashesLikeSav(t *testing.T) {
	d := newSingleDirDoc()
	const name = "Foo"
	hash := namehash.Hash(name)
	flag := intFlag(hash, 1)
	if err := d.AddFlag("Int", flag, false); err != nil {
		t.Fatal(err)
	}
	got, ok := d.GetFlagByName("Int", name)
	if !ok {
		t.Fatal("expected GetFlagByName to find the flag")
	}
	if got.Hash() != uint64(hash) {
		t.Fatalf("Hash() = %d, want %d", got.Hash(), hash)
	}
}
