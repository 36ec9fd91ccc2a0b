/*
Package mirror keeps a record ("model") in sync with a hierarchical,
observable store, with field-level visibility and unique indexes.

We implement:

1. Partitions. Public fields live at the model's own location,
root/{collection}/{id}. Fields declared private live at
root/private/{collection}/{id} and are only ever read or written by the
record's owner (Options.Mine).

2. Live mirroring. Watch subscribes to both partitions and merges every
snapshot into the model's data, emitting EventUpdate; Unwatch stops it.

3. Unique indexes. For every unique field, root/unique/{collection}/{field}/{key}
holds the id of the record that owns the key. Keys are derived from values by
a UniqueKeyFunc (identity by default).

4. Update and Destroy, one-shot operations that read the stored values first,
move or remove index pointers, then write or remove the partitions.

# Technical Details

**Status.**
Each partition is unset, loaded or notFound. A model is Loaded when one
partition is loaded and the other is resolved either way, and NotFound when
both are notFound. For non-owners of records with private fields, the private
partition is notFound from the start.

**Merging.**
Snapshots merge into data: maps merge key by key, anything else (including
slices) overwrites. Local data is never cleared by a snapshot.

**Ordering.**
Every composite operation runs its store calls one at a time; the first
failure stops the rest and nothing is rolled back. Update writes the new
index pointer before removing the old one, so a crash in between can leave
two pointers but never none. Update and Destroy calls on the same Model are
serialized.

**Commit order.**
The private partition is written (and removed) before the public one.
*/
package mirror
