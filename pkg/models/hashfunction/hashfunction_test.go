package hashfunction_test

import (
	"math"
	"testing"

	"github.com/go-faster/city"
	"github.com/pg-sharding/shardplan/pkg/models/hashfunction"
	"github.com/spaolacci/murmur3"
	"github.com/stretchr/testify/assert"
)

func TestEncodeUInt64(t *testing.T) {
	tests := []struct {
		name     string
		inp      uint64
		expected []byte
	}{
		{"Zero value", 0, []byte{0, 0, 0, 0, 0, 0, 0, 0}},
		{"Power of two: 2^7", 128, []byte{128, 1, 0, 0, 0, 0, 0, 0}},
		{"Arbitrary number: 12345", 12345, []byte{185, 96, 0, 0, 0, 0, 0, 0}},
		{"Maximum 56-bit - 1 value", 1<<56 - 1, []byte{255, 255, 255, 255, 255, 255, 255, 127}},
		{"Boundary 2^56", 1 << 56, []byte{128, 128, 128, 128, 128, 128, 128, 128, 1, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, hashfunction.EncodeUInt64(tt.inp))
		})
	}
}

func TestApplyHashFunction(t *testing.T) {
	assert := assert.New(t)

	v, err := hashfunction.ApplyHashFunction(int64(42), hashfunction.ColumnTypeInteger, hashfunction.HashFunctionIdent)
	assert.NoError(err)
	assert.Equal(uint64(42), v)

	v, err = hashfunction.ApplyHashFunction(42, hashfunction.ColumnTypeInteger, hashfunction.HashFunctionMurmur)
	assert.NoError(err)
	assert.Equal(uint64(murmur3.Sum32(hashfunction.EncodeUInt64(42))), v)

	v, err = hashfunction.ApplyHashFunction("abc", hashfunction.ColumnTypeVarchar, hashfunction.HashFunctionCity)
	assert.NoError(err)
	assert.Equal(uint64(city.Hash32([]byte("abc"))), v)

	_, err = hashfunction.ApplyHashFunction("abc", hashfunction.ColumnTypeVarchar, hashfunction.HashFunctionIdent)
	assert.Error(err)

	_, err = hashfunction.ApplyHashFunction("not-a-uuid", hashfunction.ColumnTypeUUID, hashfunction.HashFunctionMurmur)
	assert.Error(err)

	a, err := hashfunction.ApplyHashFunction("A0EEBC99-9C0B-4EF8-BB6D-6BB9BD380A11", hashfunction.ColumnTypeUUID, hashfunction.HashFunctionMurmur)
	assert.NoError(err)
	b, err := hashfunction.ApplyHashFunction("a0eebc99-9c0b-4ef8-bb6d-6bb9bd380a11", hashfunction.ColumnTypeUUID, hashfunction.HashFunctionMurmur)
	assert.NoError(err)
	assert.Equal(a, b)
}

func TestHashFunctionByName(t *testing.T) {
	assert := assert.New(t)

	for _, name := range []string{"identity", "murmur", "city"} {
		hf, err := hashfunction.HashFunctionByName(name)
		assert.NoError(err)
		assert.Equal(name, hashfunction.ToString(hf))
	}
	_, err := hashfunction.HashFunctionByName("sha1")
	assert.Error(err)
}

func TestAsInt64(t *testing.T) {
	assert := assert.New(t)

	type tcase struct {
		in  any
		exp int64
		err bool
	}
	for _, tt := range []tcase{
		{in: 5, exp: 5},
		{in: int32(-3), exp: -3},
		{in: uint16(7), exp: 7},
		{in: 4.0, exp: 4},
		{in: 4.5, err: true},
		{in: "17", exp: 17},
		{in: []byte("18"), exp: 18},
		{in: "x", err: true},
		{in: true, err: true},
		{in: uint64(math.MaxInt64), exp: math.MaxInt64},
		{in: uint64(1<<63 + 5), err: true},
		{in: float64(1e20), err: true},
		{in: float64(-1e20), err: true},
		{in: float64(-(1 << 62)), exp: -(1 << 62)},
	} {
		got, err := hashfunction.AsInt64(tt.in)
		if tt.err {
			assert.Error(err, "%v", tt.in)
			continue
		}
		assert.NoError(err)
		assert.Equal(tt.exp, got)
	}
}
