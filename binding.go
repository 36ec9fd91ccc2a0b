package mirror

import (
	"github.com/andreyvit/mirror/store"
)

// Locations are the store locations a model reads and writes.
type Locations struct {
	// Public is the location the model was created with.
	Public store.Ref
	// Private is private/{collectionID}/{id}, relative to the collection's parent.
	Private store.Ref
	// Unique holds one child per unique field, mapping values to owner ids.
	Unique store.Ref
}

func bind(ref store.Ref, typ *ModelType) (loc Locations, id, collectionID string, err error) {
	if ref == nil {
		return Locations{}, "", "", ErrInvalidLocation
	}
	coll := ref.Parent()
	if coll == nil {
		return Locations{}, "", "", ErrInvalidLocation
	}
	root := coll.Parent()
	if root == nil {
		return Locations{}, "", "", ErrInvalidLocation
	}
	id, collectionID = ref.Key(), coll.Key()
	loc = Locations{
		Public:  ref,
		Private: root.Child("private").Child(collectionID).Child(id),
		Unique:  uniqueRoot(root, collectionID, id, typ.scope),
	}
	return loc, id, collectionID, nil
}

func uniqueRoot(root store.Ref, collectionID, id string, scope UniqueScope) store.Ref {
	r := root.Child("unique").Child(collectionID)
	if scope == UniquePerRecord {
		r = r.Child(id)
	}
	return r
}
