package store

// Stats summarizes the size and activity of a DB.
type Stats struct {
	Leaves    int
	DataSize  int
	Listeners int

	Reads  uint64
	Writes uint64
}

// AvgLeafSize returns the mean encoded size of a leaf.
func (s Stats) AvgLeafSize() int {
	if s.Leaves == 0 {
		return 0
	}
	return s.DataSize / s.Leaves
}

// Stats scans the whole tree, so it is meant for tooling, not hot paths.
func (db *DB) Stats() (Stats, error) {
	var result Stats
	err := db.view(func(tx storageTx) error {
		return tx.Scan(nil, func(_, v []byte) error {
			result.Leaves++
			result.DataSize += len(v)
			return nil
		})
	})
	if err != nil {
		return Stats{}, err
	}

	db.mu.Lock()
	result.Listeners = len(db.listeners)
	db.mu.Unlock()
	result.Reads = db.ReadCount.Load()
	result.Writes = db.WriteCount.Load()
	return result, nil
}
