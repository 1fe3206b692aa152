package btree

import "errors"

var (
	// ErrKeyTooLarge is returned by Put when the key exceeds the u16
	// length prefix (MaxKeyLen bytes).
	ErrKeyTooLarge = errors.New("btree: key too large")

	// ErrValueTooLarge is returned by Put when the value exceeds the
	// u16 length prefix (MaxValLen bytes).
	ErrValueTooLarge = errors.New("btree: value too large")

	// ErrPageOverflow is returned when a builder's accumulated content
	// cannot fit into a fixed-size page. The length prefixes allow
	// pairs far larger than one page holds; this is where that
	// capacity mismatch surfaces.
	ErrPageOverflow = errors.New("btree: page overflow")

	// ErrCorruptPage is returned when bytes reached through a pointer
	// chain do not decode as a structurally valid page.
	ErrCorruptPage = errors.New("btree: corrupt page")
)
