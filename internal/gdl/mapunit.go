package gdl

import (
	"strconv"

	"golang.org/x/xerrors"

	"github.com/dt-12345/savegdl"
)

// letters is the column axis of the map-unit grid (spec.md §4.8).
var letters = [10]byte{'A', 'B', 'C', 'D', 'E', 'F', 'G', 'H', 'I', 'J'}

// resetTypes is the closed, positionally-significant list of reset-event
// names a ResetTypeValue bitmask selects from (spec.md §3).
var resetTypes = []string{
	"cOnSceneChange",
	"cOnGameDayChange",
	"cOptionReset",
	"cOnBloodyMoon",
	"cOnStartNewData",
	"cOnGameDayChangeRandom",
	"cOnSceneInitialize",
	"cZonauEnemyRespawnTimer",
	"cRandomRevival",
	"cOnStartNewDataOnly",
}

// CalcResetTypeValue ORs together the bit positions of each named reset
// event (spec.md §8 scenario S3); unrecognized names are silently ignored,
// matching the reference implementation.
func CalcResetTypeValue(names ...string) int32 {
	var value int32
	for _, name := range names {
		for i, rt := range resetTypes {
			if rt == name {
				value |= 1 << uint(i)
				break
			}
		}
	}
	return value
}

// ResetTypesFromMask is the inverse of CalcResetTypeValue (spec.md §7's
// supplemented GetResetTypes): the names selected by value's set bits.
func ResetTypesFromMask(value int32) []string {
	var out []string
	for i, rt := range resetTypes {
		if value&(1<<uint(i)) != 0 {
			out = append(out, rt)
		}
	}
	return out
}

// CalcExtraByte maps a two-character map-unit label such as "A1" or "J8" to
// its ExtraByte value 1..80 (spec.md §4.8).
func CalcExtraByte(mapUnit string) (int32, error) {
	if len(mapUnit) != 2 {
		return 0, xerrors.Errorf("CalcExtraByte %q: %w", mapUnit, savegdl.ErrOutOfRange)
	}
	col := -1
	for i, l := range letters {
		if mapUnit[0] == l {
			col = i
			break
		}
	}
	if col < 0 {
		return 0, xerrors.Errorf("CalcExtraByte %q: %w", mapUnit, savegdl.ErrOutOfRange)
	}
	if mapUnit[1] < '1' || mapUnit[1] > '8' {
		return 0, xerrors.Errorf("CalcExtraByte %q: %w", mapUnit, savegdl.ErrOutOfRange)
	}
	row := int(mapUnit[1] - '0')
	return int32(col + 10*(row-1) + 1), nil
}

// CalcMapUnit is the inverse of CalcExtraByte: extraByte (1..80) to a
// two-character map-unit label.
func CalcMapUnit(extraByte int32) (string, error) {
	if extraByte < 1 || extraByte > 80 {
		return "", xerrors.Errorf("CalcMapUnit %d: %w", extraByte, savegdl.ErrOutOfRange)
	}
	letterIdx := (extraByte - 1) % 10
	rowIdx := (extraByte-1)/10 + 1
	return string(letters[letterIdx]) + strconv.Itoa(int(rowIdx)), nil
}
