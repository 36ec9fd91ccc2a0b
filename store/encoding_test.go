package store

import (
	"errors"
	"testing"
)

type profile struct {
	Name  string   `msgpack:"name"`
	Age   int      `msgpack:"age"`
	Tags  []string `msgpack:"tags"`
	Notes string   `msgpack:"notes,omitempty"`
}

type userID int

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   any
		want any
	}{
		{nil, nil},
		{42, int64(42)},
		{uint8(7), int64(7)},
		{uint64(1 << 63), uint64(1 << 63)},
		{float32(0.5), float64(0.5)},
		{[]byte("raw"), "raw"},
		{userID(5), int64(5)},
		{map[string]any{}, nil},
		{map[string]any{"a": nil}, nil},
		{map[string]any{"a": map[string]any{"b": 1}}, map[string]any{"a": map[string]any{"b": int64(1)}}},
		{[]any{1, "x"}, []any{int64(1), "x"}},
		{map[string]string{"k": "v"}, map[string]any{"k": "v"}},
		{&profile{Name: "Jo", Age: 30, Tags: []string{"a"}}, map[string]any{"name": "Jo", "age": int64(30), "tags": []any{"a"}}},
		{(*profile)(nil), nil},
	}
	for _, tt := range tests {
		got, err := Normalize(tt.in)
		if err != nil {
			t.Errorf("** Normalize(%#v) failed: %v", tt.in, err)
			continue
		}
		deepEqual(t, got, tt.want)
	}
}

func TestNormalize_InvalidKey(t *testing.T) {
	_, err := Normalize(map[string]any{"a/b": 1})
	if !errors.Is(err, ErrInvalidPath) {
		t.Errorf("** got %v, wanted ErrInvalidPath", err)
	}
}

func TestLeafCodec(t *testing.T) {
	for _, v := range []any{"x", int64(-3), int64(1 << 40), 2.5, true, []any{"a", int64(1)}} {
		raw := must(encodeLeaf(v))
		deepEqual(t, must(decodeLeaf("p", raw)), v)
	}

	_, err := decodeLeaf("p", []byte{0xc1})
	var de *DataError
	if !errors.As(err, &de) || de.Path != "p" {
		t.Errorf("** got %v, wanted *DataError for p", err)
	}
}

func TestFlatten(t *testing.T) {
	v := map[string]any{"b": map[string]any{"c": int64(1)}, "a": "x"}
	deepEqual(t, flatten("root", v, nil), []leaf{{"root/a", "x"}, {"root/b/c", int64(1)}})
	deepEqual(t, flatten("root", "x", nil), []leaf{{"root", "x"}})
	deepEqual(t, len(flatten("root", nil, nil)), 0)
}
