package hashfunction

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/go-faster/city"
	"github.com/google/uuid"
	"github.com/spaolacci/murmur3"
)

type HashFunctionType int

/* Pre-defined hash functions */
const (
	HashFunctionIdent  = HashFunctionType(0)
	HashFunctionMurmur = HashFunctionType(1)
	HashFunctionCity   = HashFunctionType(2)
)

/* Column types a sharding value may be declared with */
const (
	ColumnTypeInteger  = "integer"
	ColumnTypeUinteger = "uinteger"
	ColumnTypeVarchar  = "varchar"
	ColumnTypeUUID     = "uuid"
)

var (
	errUnknownColumnType = func(ctype string, hf HashFunctionType) error {
		return fmt.Errorf("unknown column type '%s' for hash function '%s'", ctype, ToString(hf))
	}
	errUnknownValueType = func(v any, ctype string) error {
		return fmt.Errorf("value of type %T cannot be hashed as '%s'", v, ctype)
	}
)

// EncodeUInt64 encodes input as uvarint padded to 8 bytes (10 for values >= 2^56).
func EncodeUInt64(input uint64) []byte {
	const ENCODING_BYTES_BIG = binary.MaxVarintLen64
	const ENCODING_BYTES = 8
	const BOUND = 1 << 56

	sz := ENCODING_BYTES
	if input >= BOUND {
		sz = ENCODING_BYTES_BIG
	}

	buf := make([]byte, sz)
	binary.PutUvarint(buf, input)
	return buf
}

// encode turns a sharding value into the byte form hashed by murmur and city.
func encode(input any, ctype string) ([]byte, error) {
	switch ctype {
	case ColumnTypeInteger:
		v, err := AsInt64(input)
		if err != nil {
			return nil, err
		}
		return EncodeUInt64(uint64(v)), nil
	case ColumnTypeUinteger:
		v, err := AsInt64(input)
		if err != nil {
			return nil, err
		}
		return EncodeUInt64(uint64(v)), nil
	case ColumnTypeUUID:
		s, ok := input.(string)
		if !ok {
			return nil, errUnknownValueType(input, ctype)
		}
		s = strings.ToLower(s)
		if err := uuid.Validate(s); err != nil {
			return nil, err
		}
		return []byte(s), nil
	case ColumnTypeVarchar, "":
		switch v := input.(type) {
		case []byte:
			return v, nil
		case string:
			return []byte(v), nil
		default:
			if n, err := AsInt64(input); err == nil {
				return EncodeUInt64(uint64(n)), nil
			}
			return nil, errUnknownValueType(input, ctype)
		}
	default:
		return nil, fmt.Errorf("unknown column type '%s'", ctype)
	}
}

// ApplyHashFunction hashes input declared with column type ctype.
// The identity function only accepts integer values and returns them unchanged.
func ApplyHashFunction(input any, ctype string, hf HashFunctionType) (uint64, error) {
	switch hf {
	case HashFunctionIdent:
		if ctype != ColumnTypeInteger && ctype != ColumnTypeUinteger && ctype != "" {
			return 0, errUnknownColumnType(ctype, hf)
		}
		v, err := AsInt64(input)
		if err != nil {
			return 0, err
		}
		return uint64(v), nil
	case HashFunctionMurmur:
		buf, err := encode(input, ctype)
		if err != nil {
			return 0, err
		}
		return uint64(murmur3.Sum32(buf)), nil
	case HashFunctionCity:
		buf, err := encode(input, ctype)
		if err != nil {
			return 0, err
		}
		return uint64(city.Hash32(buf)), nil
	default:
		return 0, fmt.Errorf("unknown hash function type: %d", hf)
	}
}

// HashFunctionByName returns the HashFunctionType for a configured name.
func HashFunctionByName(hfn string) (HashFunctionType, error) {
	switch hfn {
	case "identity", "ident", "":
		return HashFunctionIdent, nil
	case "murmur":
		return HashFunctionMurmur, nil
	case "city":
		return HashFunctionCity, nil
	default:
		return 0, fmt.Errorf("unknown hash function type: %s", hfn)
	}
}

func ToString(hf HashFunctionType) string {
	switch hf {
	case HashFunctionIdent:
		return "identity"
	case HashFunctionMurmur:
		return "murmur"
	case HashFunctionCity:
		return "city"
	}
	return ""
}
