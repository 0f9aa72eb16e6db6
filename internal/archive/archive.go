// Package archive provides blob stores for raw posting snapshots.
package archive

import "context"

// NoOp discards every snapshot. Used when archiving is disabled.
type NoOp struct{}

// PutObject does nothing and returns an empty URI.
func (NoOp) PutObject(_ context.Context, _ string, _ string, _ []byte) (string, error) {
	return "", nil
}
