package session

import (
	"errors"
	"testing"

	pilotErrors "github.com/tamahere/sops-pilot/internal/errors"
)

func TestRegistry_MutualInverses(t *testing.T) {
	r := NewRegistry()
	if err := r.Register("/a/secret.yaml", "/a/secret_clear.yaml"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	working, ok := r.WorkingFor("/a/secret.yaml")
	if !ok || working != "/a/secret_clear.yaml" {
		t.Errorf("Expected working lookup to succeed, got: %q %v", working, ok)
	}
	original, ok := r.OriginalFor("/a/secret_clear.yaml")
	if !ok || original != "/a/secret.yaml" {
		t.Errorf("Expected original lookup to succeed, got: %q %v", original, ok)
	}
}

func TestRegistry_RejectsDuplicateEitherSide(t *testing.T) {
	r := NewRegistry()
	if err := r.Register("/a/secret.yaml", "/a/secret_clear.yaml"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	cases := []struct{ original, working string }{
		{"/a/secret.yaml", "/b/other_clear.yaml"},       // original re-used as original
		{"/a/secret_clear.yaml", "/b/other_clear.yaml"}, // working re-used as original
		{"/b/other.yaml", "/a/secret.yaml"},             // original re-used as working
		{"/b/other.yaml", "/a/secret_clear.yaml"},       // working re-used as working
	}
	for _, c := range cases {
		if err := r.Register(c.original, c.working); !errors.Is(err, pilotErrors.ErrPathTracked) {
			t.Errorf("Register(%q, %q): expected ErrPathTracked, got: %v", c.original, c.working, err)
		}
	}
	if r.Len() != 1 {
		t.Errorf("Expected exactly one pair, got: %d", r.Len())
	}
}

func TestRegistry_RemoveClearsBothSides(t *testing.T) {
	r := NewRegistry()
	if err := r.Register("/a/secret.yaml", "/a/secret_clear.yaml"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if err := r.Remove("/a/secret.yaml"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if r.Tracked("/a/secret.yaml") {
		t.Error("Expected original no longer tracked")
	}
	if r.Tracked("/a/secret_clear.yaml") {
		t.Error("Expected working no longer tracked")
	}
	if _, ok := r.OriginalFor("/a/secret_clear.yaml"); ok {
		t.Error("Expected no residual entry queryable from the working path")
	}
}

func TestRegistry_RemoveUntracked(t *testing.T) {
	r := NewRegistry()
	if err := r.Remove("/a/never-registered.yaml"); !errors.Is(err, pilotErrors.ErrNotTracked) {
		t.Errorf("Expected ErrNotTracked, got: %v", err)
	}
}

func TestRegistry_PairsSortedByOriginal(t *testing.T) {
	r := NewRegistry()
	for _, p := range []Pair{
		{"/c/three.yaml", "/c/three_clear.yaml"},
		{"/a/one.yaml", "/a/one_clear.yaml"},
		{"/b/two.yaml", "/b/two_clear.yaml"},
	} {
		if err := r.Register(p.Original, p.Working); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
	}

	pairs := r.Pairs()
	if len(pairs) != 3 {
		t.Fatalf("Expected 3 pairs, got: %d", len(pairs))
	}
	if pairs[0].Original != "/a/one.yaml" || pairs[2].Original != "/c/three.yaml" {
		t.Errorf("Expected pairs sorted by original, got: %+v", pairs)
	}
}
