// Package session tracks the relationship between encrypted originals and
// their decrypted working copies across editor events.
//
// The Engine consumes open, save, close, and focus events on a single
// goroutine: opening an encrypted document decrypts it to a colocated
// working copy, saving the copy re-encrypts the original behind a backup,
// closing the copy tears the pair down, and a debounced focus-quiescence
// sweep collects copies the user has navigated away from.
package session
