package mirror

import (
	"errors"
	"testing"
)

func TestWatchOnce(t *testing.T) {
	db, r := setup(t)
	put(t, db, "accounts/u1", map[string]any{"name": "Jo"})
	put(t, db, "private/accounts/u1", map[string]any{"ssn": "123"})

	m := newModel(t, db, r, "accounts/u1", accountsType, map[string]any{"name": "local"}, Options{Mine: true})
	baseline := must(m.watchOnce(ctx))
	deepEqual(t, baseline, map[string]any{"name": "Jo", "ssn": "123"})
	deepEqual(t, r.log(), []string{"once private/accounts/u1", "once accounts/u1"})

	deepEqual(t, m.Data(), map[string]any{"name": "local"})
	deepEqual(t, m.Status(), Status{})
}

func TestWatchOnce_NonOwner(t *testing.T) {
	db, r := setup(t)
	put(t, db, "private/accounts/u1", map[string]any{"ssn": "123"})

	m := newModel(t, db, r, "accounts/u1", accountsType, nil, Options{})
	baseline := must(m.watchOnce(ctx))
	deepEqual(t, baseline, map[string]any{})
	deepEqual(t, r.log(), []string{"once accounts/u1"})
}

func TestWatchOnce_FirstFailureAborts(t *testing.T) {
	db, r := setup(t)
	r.failOn("once private/accounts/u1")

	m := newModel(t, db, r, "accounts/u1", accountsType, nil, Options{Mine: true})
	_, err := m.watchOnce(ctx)
	var re *ReadError
	if !errors.As(err, &re) {
		t.Fatalf("** got %v, wanted *ReadError", err)
	}
	deepEqual(t, re.Op, "fetch")
	deepEqual(t, re.Path, "private/accounts/u1")
	deepEqual(t, r.log(), []string{"once private/accounts/u1"})
}
