package store

import (
	"bytes"
	"fmt"
	"math"
	"reflect"
	"sort"

	"github.com/vmihailenco/msgpack/v5"
)

// encodeLeaf encodes a normalized leaf value using MsgPack.
func encodeLeaf(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.GetEncoder()
	enc.Reset(&buf)
	enc.SetSortMapKeys(true)
	err := enc.Encode(v)
	msgpack.PutEncoder(enc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %T using MsgPack: %w", v, err)
	}
	return buf.Bytes(), nil
}

func decodeLeaf(path string, raw []byte) (any, error) {
	var r bytes.Reader
	r.Reset(raw)
	dec := msgpack.GetDecoder()
	dec.ResetDict(&r, nil)
	dec.UseLooseInterfaceDecoding(true)
	v, err := dec.DecodeInterface()
	msgpack.PutDecoder(dec)
	if err != nil {
		return nil, dataErrf(path, raw, err)
	}
	return normalizeDecoded(v), nil
}

// Normalize converts an arbitrary Go value into the tree's value model:
// nil, bool, int64, uint64 (only above MaxInt64), float64, string, []any and
// map[string]any. Empty maps and nil map entries are dropped, so a value that
// holds nothing normalizes to nil. Types outside the model (structs, typed
// maps and slices) go through a MsgPack round trip and honour msgpack tags.
func Normalize(v any) (any, error) {
	switch v := v.(type) {
	case nil:
		return nil, nil
	case bool, string, int64, float64:
		return v, nil
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case uint:
		return normalizeUint(uint64(v)), nil
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		return normalizeUint(v), nil
	case float32:
		return float64(v), nil
	case []byte:
		return string(v), nil
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, c := range v {
			if err := ValidateKey(k); err != nil {
				return nil, err
			}
			nc, err := Normalize(c)
			if err != nil {
				return nil, err
			}
			if nc != nil {
				out[k] = nc
			}
		}
		if len(out) == 0 {
			return nil, nil
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, c := range v {
			nc, err := Normalize(c)
			if err != nil {
				return nil, err
			}
			out[i] = nc
		}
		return out, nil
	}

	rv := reflect.ValueOf(v)
	if (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Map || rv.Kind() == reflect.Slice) && rv.IsNil() {
		return nil, nil
	}

	raw, err := msgpack.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %T using MsgPack: %w", v, err)
	}
	dec := msgpack.NewDecoder(bytes.NewReader(raw))
	dec.UseLooseInterfaceDecoding(true)
	generic, err := dec.DecodeInterface()
	if err != nil {
		return nil, fmt.Errorf("failed to decode %T from MsgPack: %w", v, err)
	}
	return Normalize(normalizeDecoded(generic))
}

func normalizeUint(v uint64) any {
	if v <= math.MaxInt64 {
		return int64(v)
	}
	return v
}

func normalizeDecoded(v any) any {
	switch v := v.(type) {
	case uint64:
		return normalizeUint(v)
	case []byte:
		return string(v)
	case map[string]any:
		for k, c := range v {
			v[k] = normalizeDecoded(c)
		}
		return v
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, c := range v {
			out[fmt.Sprint(k)] = normalizeDecoded(c)
		}
		return out
	case []any:
		for i, c := range v {
			v[i] = normalizeDecoded(c)
		}
		return v
	default:
		return v
	}
}

// flatten appends one entry per leaf of a normalized value, keyed by path.
func flatten(path string, v any, out []leaf) []leaf {
	m, ok := v.(map[string]any)
	if !ok {
		if v == nil {
			return out
		}
		return append(out, leaf{path, v})
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = flatten(joinPath(path, k), m[k], out)
	}
	return out
}

type leaf struct {
	path  string
	value any
}
