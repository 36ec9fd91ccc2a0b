/*
Package store implements a hierarchical, observable key-value tree on top of
a sorted key-value backend (Bolt, Badger, or memory).

Locations are addressed by slash-separated paths and exposed through the Ref
interface: one-shot reads (Once), live "value" listeners (On/Off), merge
writes (Update), replace writes (Set) and subtree removal (Remove).

# Technical Details

**Values.**
A value is nil, a scalar (bool, int64, float64, string), a slice (stored as a
single leaf) or a map[string]any. Empty maps hold nothing and read back as
nil. Other Go types are normalized through a MsgPack round trip.

**Layout.**
Every leaf is one backend entry: the key is the leaf's full path ("a/b/c"),
the value is the MsgPack encoding of the leaf. A subtree is read with a prefix
scan over "path/". Writing below a leaf replaces that leaf.

**Notifications.**
Writes are serialized. After each commit, every listener whose location is an
ancestor of, equal to, or below a written path receives a fresh snapshot of
its own location. Callbacks run on one dispatcher goroutine per DB, in commit
order; a listener removed with Off never fires again.
*/
package store
