// Package common contains small helpers shared across authkeep components.
package common

// WipeByteArray overwrites the slice with zeros so transient secrets do not
// linger in memory longer than needed.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
