// Package cache defines the content-addressed cellset store used by the engine.
package cache

// Interface is the process-wide cellset store. Handles are derived from
// membership, so equal sets always share a handle.
type Interface interface {
	Put(members []string) string
	Get(handle string) ([]string, bool)
	Len() int
	Prune()
}
