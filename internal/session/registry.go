package session

import (
	"fmt"
	"sort"

	pilotErrors "github.com/tamahere/sops-pilot/internal/errors"
)

// Pair associates an encrypted original with its decrypted working copy.
type Pair struct {
	Original string
	Working  string
}

// Registry is the bidirectional original↔working relation. Both sides are
// kept as mirrored maps so either direction resolves in constant time, and
// every mutation updates both together. The registry is not safe for
// concurrent use; the engine owns it from a single goroutine.
type Registry struct {
	byOriginal map[string]string
	byWorking  map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		byOriginal: make(map[string]string),
		byWorking:  make(map[string]string),
	}
}

// Register adds a pair. It refuses to register a path that already appears
// on either side of any pair, in either role.
func (r *Registry) Register(original, working string) error {
	for _, path := range []string{original, working} {
		if r.Tracked(path) {
			return fmt.Errorf("%w: %s", pilotErrors.ErrPathTracked, path)
		}
	}

	r.byOriginal[original] = working
	r.byWorking[working] = original
	return nil
}

// Remove deletes the pair keyed by its original path. Removing a path
// that belongs to no pair returns ErrNotTracked.
func (r *Registry) Remove(original string) error {
	working, ok := r.byOriginal[original]
	if !ok {
		return fmt.Errorf("%w: %s", pilotErrors.ErrNotTracked, original)
	}
	delete(r.byWorking, working)
	delete(r.byOriginal, original)
	return nil
}

// WorkingFor returns the working path paired with original.
func (r *Registry) WorkingFor(original string) (string, bool) {
	working, ok := r.byOriginal[original]
	return working, ok
}

// OriginalFor returns the original path paired with working.
func (r *Registry) OriginalFor(working string) (string, bool) {
	original, ok := r.byWorking[working]
	return original, ok
}

// Tracked reports whether path appears on either side of any pair.
func (r *Registry) Tracked(path string) bool {
	_, isOriginal := r.byOriginal[path]
	_, isWorking := r.byWorking[path]
	return isOriginal || isWorking
}

// Pairs returns a snapshot of all pairs, ordered by original path for
// deterministic iteration.
func (r *Registry) Pairs() []Pair {
	pairs := make([]Pair, 0, len(r.byOriginal))
	for original, working := range r.byOriginal {
		pairs = append(pairs, Pair{Original: original, Working: working})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Original < pairs[j].Original })
	return pairs
}

// Len returns the number of registered pairs.
func (r *Registry) Len() int {
	return len(r.byOriginal)
}
