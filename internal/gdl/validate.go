package gdl

import (
	"strings"

	"golang.org/x/xerrors"

	"github.com/dt-12345/savegdl"
)

// ValidateFlag normalizes a candidate flag record to the exact numeric
// widths the codec expects and enforces per-kind field presence and bounds
// (spec.md §4.7), returning the coerced record. It does not mutate flag in
// place; callers receive a new record with coerced fields.
func ValidateFlag(flag FlagRecord, typeName string) (FlagRecord, error) {
	if !IsValidType(typeName) {
		return nil, xerrors.Errorf("ValidateFlag: %q: %w", typeName, savegdl.ErrWrongShape)
	}
	out := make(FlagRecord, len(flag))
	for k, v := range flag {
		out[k] = v
	}

	if typeName != "Bool64bitKey" && typeName != "BoolExp" {
		if _, ok := out["DefaultValue"]; !ok {
			return nil, missingField("DefaultValue")
		}
	}

	hashV, ok := out["Hash"]
	if !ok {
		return nil, missingField("Hash")
	}
	if typeName != "Bool64bitKey" {
		n, err := coerceUint32(hashV)
		if err != nil {
			return nil, err
		}
		out["Hash"] = n
	} else {
		n, err := coerceUint64(hashV)
		if err != nil {
			return nil, err
		}
		out["Hash"] = n
	}

	resetV, ok := out["ResetTypeValue"]
	if !ok {
		return nil, missingField("ResetTypeValue")
	}
	reset, err := coerceInt32(resetV)
	if err != nil {
		return nil, err
	}
	out["ResetTypeValue"] = reset
	if reset&256 != 0 {
		if extraV, present := out["ExtraByte"]; present {
			extra, err := coerceInt32(extraV)
			if err != nil {
				return nil, err
			}
			if extra < 1 || extra > 80 {
				return nil, xerrors.Errorf("ExtraByte %d: %w", extra, savegdl.ErrExtraByteOutOfRange)
			}
			out["ExtraByte"] = extra
		}
	}

	saveIdxV, ok := out["SaveFileIndex"]
	if !ok {
		return nil, missingField("SaveFileIndex")
	}
	saveIdx, err := coerceInt32(saveIdxV)
	if err != nil {
		return nil, err
	}
	out["SaveFileIndex"] = saveIdx

	if strings.HasSuffix(typeName, "Array") {
		origV, present := out["OriginalSize"]
		if !present {
			return nil, missingField("OriginalSize")
		}
		orig, err := coerceUint32(origV)
		if err != nil {
			return nil, err
		}
		out["OriginalSize"] = orig
		if typeName != "EnumArray" && typeName != "BinaryArray" {
			if _, ok := out["DefaultValue"].([]any); !ok {
				return nil, xerrors.Errorf("DefaultValue for %s must be a list: %w", typeName, savegdl.ErrWrongShape)
			}
		}
	}

	if err := validateByKind(out, typeName); err != nil {
		return nil, err
	}
	return out, nil
}

func validateByKind(out FlagRecord, typeName string) error {
	switch typeName {
	case "Bool":
		b, _ := out["DefaultValue"].(bool)
		out["DefaultValue"] = b
	case "BoolArray":
		list, err := asAnyList(out["DefaultValue"])
		if err != nil {
			return err
		}
		bs := make([]any, len(list))
		for i, v := range list {
			b, _ := v.(bool)
			bs[i] = b
		}
		out["DefaultValue"] = bs
	case "Int":
		v, err := coerceInt32(out["DefaultValue"])
		if err != nil {
			return err
		}
		out["DefaultValue"] = v
	case "IntArray":
		return coerceList(out, coerceInt32)
	case "Float":
		v, err := coerceFloat32(out["DefaultValue"])
		if err != nil {
			return err
		}
		out["DefaultValue"] = v
	case "FloatArray":
		return coerceList(out, coerceFloat32)
	case "Enum", "EnumArray":
		v, err := coerceUint32(out["DefaultValue"])
		if err != nil {
			return err
		}
		out["DefaultValue"] = v
		if err := validateEnumValues(out); err != nil {
			return err
		}
		if typeName == "EnumArray" {
			sizeV, present := out["Size"]
			if !present {
				return missingField("Size")
			}
			size, err := coerceUint32(sizeV)
			if err != nil {
				return err
			}
			out["Size"] = size
		}
	case "Vector2":
		return validateVector(out, 2)
	case "Vector2Array":
		return validateVectorArray(out, 2)
	case "Vector3":
		return validateVector(out, 3)
	case "Vector3Array":
		return validateVectorArray(out, 3)
	case "String16", "WString16":
		return validateStringLen(out, 16)
	case "String16Array", "WString16Array":
		return validateStringArrayLen(out, 16)
	case "String32", "WString32":
		return validateStringLen(out, 32)
	case "String32Array", "WString32Array":
		return validateStringArrayLen(out, 32)
	case "String64", "WString64":
		return validateStringLen(out, 64)
	case "String64Array", "WString64Array":
		return validateStringArrayLen(out, 64)
	case "Binary":
		v, err := coerceUint32(out["DefaultValue"])
		if err != nil {
			return err
		}
		out["DefaultValue"] = v
	case "BinaryArray":
		v, err := coerceUint32(out["DefaultValue"])
		if err != nil {
			return err
		}
		out["DefaultValue"] = v
		sizeV, present := out["ArraySize"]
		if !present {
			return missingField("ArraySize")
		}
		size, err := coerceUint32(sizeV)
		if err != nil {
			return err
		}
		out["ArraySize"] = size
	case "UInt":
		v, err := coerceUint32(out["DefaultValue"])
		if err != nil {
			return err
		}
		out["DefaultValue"] = v
	case "UIntArray":
		return coerceList(out, coerceInt64) // matches the reference's own UInt-as-signed-64 quirk
	case "Int64":
		v, err := coerceInt64(out["DefaultValue"])
		if err != nil {
			return err
		}
		out["DefaultValue"] = v
	case "Int64Array":
		return coerceList(out, coerceInt64)
	case "UInt64":
		v, err := coerceUint64(out["DefaultValue"])
		if err != nil {
			return err
		}
		out["DefaultValue"] = v
	case "UInt64Array":
		return coerceList(out, coerceUint64)
	case "Struct":
		return validateStruct(out)
	case "BoolExp":
		return validateBoolExp(out)
	case "Bool64bitKey":
		// no DefaultValue, nothing further to coerce.
	}
	return nil
}

func missingField(name string) error {
	return xerrors.Errorf("missing field %q: %w", name, savegdl.ErrMissingField)
}

func asAnyList(v any) ([]any, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, xerrors.Errorf("DefaultValue must be a list: %w", savegdl.ErrWrongShape)
	}
	return list, nil
}

// coerceList replaces out["DefaultValue"] (a list) with a list of the same
// length whose elements have each been run through coerce.
func coerceList[T any](out FlagRecord, coerce func(any) (T, error)) error {
	list, err := asAnyList(out["DefaultValue"])
	if err != nil {
		return err
	}
	converted := make([]any, len(list))
	for i, v := range list {
		c, err := coerce(v)
		if err != nil {
			return err
		}
		converted[i] = c
	}
	out["DefaultValue"] = converted
	return nil
}

func validateEnumValues(out FlagRecord) error {
	if _, ok := out["RawValues"]; !ok {
		return missingField("RawValues")
	}
	valuesV, ok := out["Values"]
	if !ok {
		return missingField("Values")
	}
	rawList, _ := out["RawValues"].([]any)
	valueList, err := asAnyList(valuesV)
	if err != nil {
		return err
	}
	if len(rawList) != len(valueList) {
		return xerrors.Errorf("RawValues/Values length mismatch: %w", savegdl.ErrWrongShape)
	}
	converted := make([]any, len(valueList))
	for i, v := range valueList {
		n, err := coerceUint64(v)
		if err != nil {
			return err
		}
		converted[i] = n
	}
	out["Values"] = converted
	return nil
}

func validateVector(out FlagRecord, dims int) error {
	m, ok := out["DefaultValue"].(map[string]any)
	if !ok {
		return xerrors.Errorf("Vector DefaultValue must be a record: %w", savegdl.ErrWrongShape)
	}
	coerced, err := coerceVectorFields(m, dims)
	if err != nil {
		return err
	}
	out["DefaultValue"] = coerced
	return nil
}

func validateVectorArray(out FlagRecord, dims int) error {
	list, err := asAnyList(out["DefaultValue"])
	if err != nil {
		return err
	}
	converted := make([]any, len(list))
	for i, v := range list {
		m, ok := v.(map[string]any)
		if !ok {
			return xerrors.Errorf("Vector array element must be a record: %w", savegdl.ErrWrongShape)
		}
		c, err := coerceVectorFields(m, dims)
		if err != nil {
			return err
		}
		converted[i] = c
	}
	out["DefaultValue"] = converted
	return nil
}

func coerceVectorFields(m map[string]any, dims int) (map[string]any, error) {
	out := make(map[string]any, dims)
	for _, axis := range []string{"x", "y", "z"}[:dims] {
		v, ok := m[axis]
		if !ok {
			return nil, missingField(axis)
		}
		f, err := coerceFloat32(v)
		if err != nil {
			return nil, err
		}
		out[axis] = f
	}
	return out, nil
}

func validateStringLen(out FlagRecord, capacity int) error {
	s, ok := out["DefaultValue"].(string)
	if !ok {
		return xerrors.Errorf("DefaultValue must be a string: %w", savegdl.ErrWrongShape)
	}
	if len([]rune(s)) >= capacity {
		return xerrors.Errorf("DefaultValue exceeds %d characters: %w", capacity, savegdl.ErrStringTooLong)
	}
	return nil
}

func validateStringArrayLen(out FlagRecord, capacity int) error {
	list, err := asAnyList(out["DefaultValue"])
	if err != nil {
		return err
	}
	for _, v := range list {
		s, ok := v.(string)
		if !ok {
			return xerrors.Errorf("DefaultValue elements must be strings: %w", savegdl.ErrWrongShape)
		}
		if len([]rune(s)) >= capacity {
			return xerrors.Errorf("DefaultValue element exceeds %d characters: %w", capacity, savegdl.ErrStringTooLong)
		}
	}
	return nil
}

func validateStruct(out FlagRecord) error {
	if sizeV, present := out["Size"]; present {
		size, err := coerceUint32(sizeV)
		if err != nil {
			return err
		}
		out["Size"] = size
	}
	list, err := asAnyList(out["DefaultValue"])
	if err != nil {
		return err
	}
	converted := make([]any, len(list))
	for i, v := range list {
		member, ok := v.(map[string]any)
		if !ok {
			return xerrors.Errorf("Struct member must be a record: %w", savegdl.ErrWrongShape)
		}
		hashV, ok := member["Hash"]
		if !ok {
			return missingField("Hash")
		}
		valueV, ok := member["Value"]
		if !ok {
			return missingField("Value")
		}
		hash, err := coerceUint32(hashV)
		if err != nil {
			return err
		}
		value, err := coerceUint32(valueV)
		if err != nil {
			return err
		}
		converted[i] = map[string]any{"Hash": hash, "Value": value}
	}
	out["DefaultValue"] = converted
	return nil
}

// boolExpArity maps a BoolExp opcode to its required operand-list length
// (spec.md §4.7).
func boolExpArity(op int) (int, bool) {
	switch op {
	case 0, 1, 2, 10, 11, 12:
		return 2, true
	case 3, 4, 5:
		return 1, true
	case 8, 9, 13, 14:
		return 3, true
	default:
		return 0, false
	}
}

func validateBoolExp(out FlagRecord) error {
	valuesV, ok := out["Values"]
	if !ok {
		return missingField("Values")
	}
	exprs, err := asAnyList(valuesV)
	if err != nil {
		return err
	}
	converted := make([]any, len(exprs))
	for i, e := range exprs {
		expr, err := asAnyList(e)
		if err != nil {
			return err
		}
		if len(expr) == 0 {
			return xerrors.Errorf("empty BoolExp expression: %w", savegdl.ErrInvalidExpression)
		}
		op, err := coerceInt32(expr[0])
		if err != nil {
			return err
		}
		wantLen, ok := boolExpArity(int(op))
		if !ok {
			return xerrors.Errorf("unknown BoolExp opcode %d: %w", op, savegdl.ErrInvalidExpression)
		}
		if len(expr) != wantLen {
			return xerrors.Errorf("BoolExp opcode %d expects %d operands, got %d: %w", op, wantLen, len(expr), savegdl.ErrInvalidExpression)
		}
		operands := make([]any, len(expr))
		for j, v := range expr {
			n, err := coerceUint64(v)
			if err != nil {
				return err
			}
			operands[j] = n
		}
		converted[i] = operands
	}
	out["Values"] = converted
	return nil
}
