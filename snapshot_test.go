package mirror

import "testing"

func TestProcessSnapshot_MergesInOrder(t *testing.T) {
	acc := newAccumulator()
	processSnapshot(acc, partPublic, map[string]any{
		"name":    "Jo",
		"address": map[string]any{"city": "Riga", "zip": "LV-1010"},
		"tags":    []any{"a", "b"},
	})
	processSnapshot(acc, partPublic, map[string]any{
		"address": map[string]any{"city": "Tallinn"},
		"tags":    []any{"c"},
	})
	deepEqual(t, acc.data, map[string]any{
		"name":    "Jo",
		"address": map[string]any{"city": "Tallinn", "zip": "LV-1010"},
		"tags":    []any{"c"},
	})
	deepEqual(t, acc.status, Status{Public: StatusLoaded})

	processSnapshot(acc, partPrivate, map[string]any{"ssn": "123"})
	deepEqual(t, acc.data["ssn"], any("123"))
	deepEqual(t, acc.status, Status{StatusLoaded, StatusLoaded})
}

func TestProcessSnapshot_Absent(t *testing.T) {
	for _, payload := range []any{nil, map[string]any{}} {
		acc := newAccumulator()
		acc.data["local"] = 1
		processSnapshot(acc, partPrivate, payload)
		deepEqual(t, acc.data, map[string]any{"local": 1})
		deepEqual(t, acc.status, Status{Private: StatusNotFound})
	}
}

func TestProcessSnapshot_Idempotent(t *testing.T) {
	payload := map[string]any{"a": map[string]any{"b": int64(1)}}
	acc := newAccumulator()
	processSnapshot(acc, partPublic, payload)
	processSnapshot(acc, partPublic, payload)
	deepEqual(t, acc.data, map[string]any{"a": map[string]any{"b": int64(1)}})

	acc.data["a"].(map[string]any)["b"] = int64(2)
	deepEqual(t, payload["a"].(map[string]any)["b"], any(int64(1)))
}

func TestProcessSnapshot_ScalarPayload(t *testing.T) {
	acc := newAccumulator()
	processSnapshot(acc, partPublic, "not a record")
	deepEqual(t, acc.data, map[string]any{})
	deepEqual(t, acc.status.Public, StatusLoaded)
}

func TestDeepMerge_ReplacesNonMaps(t *testing.T) {
	dst := map[string]any{"a": "text", "b": map[string]any{"x": 1}}
	deepMerge(dst, map[string]any{"a": map[string]any{"y": 2}, "b": "flat"})
	deepEqual(t, dst, map[string]any{"a": map[string]any{"y": 2}, "b": "flat"})
}
