//go:build !tinygo

package core

// assert panics when an internal invariant is broken
func assert(ok bool, msg string) {
	if !ok {
		panic("mcutime: invariant violated: " + msg)
	}
}
