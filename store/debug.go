package store

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Dump lists every stored leaf as "/path = value", in key order.
func (db *DB) Dump() (string, error) {
	var buf strings.Builder
	err := db.view(func(tx storageTx) error {
		return tx.Scan(nil, func(k, v []byte) error {
			val, err := decodeLeaf(string(k), v)
			if err != nil {
				fmt.Fprintf(&buf, "/%s = ** ERROR: %v\n", k, err)
				return nil
			}
			fmt.Fprintf(&buf, "/%s = %s\n", k, must(json.Marshal(val)))
			return nil
		})
	})
	return buf.String(), err
}
