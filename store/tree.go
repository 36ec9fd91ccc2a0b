package store

import (
	"fmt"
	"strings"
)

// readTree assembles the value stored at path.
func readTree(tx storageTx, path string) (any, error) {
	if path != "" {
		if raw := tx.Get([]byte(path)); raw != nil {
			return decodeLeaf(path, raw)
		}
	}

	var result map[string]any
	prefix := subtreePrefix(path)
	err := tx.Scan([]byte(prefix), func(k, v []byte) error {
		fullPath := string(k)
		val, err := decodeLeaf(fullPath, v)
		if err != nil {
			return err
		}
		if result == nil {
			result = make(map[string]any)
		}
		return insertLeaf(result, fullPath[len(prefix):], val)
	})
	if err != nil || result == nil {
		return nil, err
	}
	return result, nil
}

func subtreePrefix(path string) string {
	if path == "" {
		return ""
	}
	return path + pathSep
}

func insertLeaf(root map[string]any, rel string, val any) error {
	segs := strings.Split(rel, pathSep)
	m := root
	for _, seg := range segs[:len(segs)-1] {
		next, ok := m[seg].(map[string]any)
		if !ok {
			if _, exists := m[seg]; exists {
				return fmt.Errorf("corrupted tree: leaf %q has children", rel)
			}
			next = make(map[string]any)
			m[seg] = next
		}
		m = next
	}
	m[segs[len(segs)-1]] = val
	return nil
}

// writeTree replaces the subtree at path with a normalized value; nil removes it.
func writeTree(tx storageTx, path string, value any) error {
	if err := deleteSubtree(tx, path); err != nil {
		return err
	}
	if value == nil {
		return nil
	}
	if _, isMap := value.(map[string]any); !isMap && path == "" {
		return fmt.Errorf("%w: cannot store a leaf value at the root", ErrInvalidPath)
	}

	// A leaf cannot have children, so any leaf on the way down is replaced.
	for _, anc := range ancestorPaths(path) {
		if err := tx.Delete([]byte(anc)); err != nil {
			return err
		}
	}

	for _, l := range flatten(path, value, nil) {
		raw, err := encodeLeaf(l.value)
		if err != nil {
			return err
		}
		if err := tx.Put([]byte(l.path), raw); err != nil {
			return err
		}
	}
	return nil
}

// deleteSubtree removes the leaf at path and everything below it.
func deleteSubtree(tx storageTx, path string) error {
	if path != "" {
		if err := tx.Delete([]byte(path)); err != nil {
			return err
		}
	}
	return tx.DeletePrefix([]byte(subtreePrefix(path)))
}
