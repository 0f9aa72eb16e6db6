package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/talentscout/compscout/internal/pipeline"
)

func TestTargetStoreAddListRemove(t *testing.T) {
	t.Parallel()

	store := NewTargetStore()
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, pipeline.TargetCompany{ID: "1", Name: "Acme", CareerURL: "https://acme.example/careers"}))
	require.NoError(t, store.Add(ctx, pipeline.TargetCompany{ID: "2", Name: "Globex", CareerURL: "https://globex.example/jobs"}))

	targets, err := store.ListTargets(ctx)
	require.NoError(t, err)
	require.Len(t, targets, 2)
	require.Equal(t, "Acme", targets[0].Name)
	require.Equal(t, "Globex", targets[1].Name)

	require.NoError(t, store.Remove(ctx, "1"))
	targets, err = store.ListTargets(ctx)
	require.NoError(t, err)
	require.Len(t, targets, 1)
	require.Equal(t, "2", targets[0].ID)
}

func TestTargetStoreRemoveUnknown(t *testing.T) {
	t.Parallel()

	store := NewTargetStore()
	err := store.Remove(context.Background(), "missing")
	require.ErrorIs(t, err, ErrTargetNotFound)
}

func TestTargetStoreAddRequiresID(t *testing.T) {
	t.Parallel()

	store := NewTargetStore()
	err := store.Add(context.Background(), pipeline.TargetCompany{Name: "NoID"})
	require.Error(t, err)
}

func TestTargetStoreReAddKeepsPosition(t *testing.T) {
	t.Parallel()

	store := NewTargetStore()
	ctx := context.Background()
	require.NoError(t, store.Add(ctx, pipeline.TargetCompany{ID: "1", Name: "Acme"}))
	require.NoError(t, store.Add(ctx, pipeline.TargetCompany{ID: "2", Name: "Globex"}))
	require.NoError(t, store.Add(ctx, pipeline.TargetCompany{ID: "1", Name: "Acme Corp"}))

	targets, err := store.ListTargets(ctx)
	require.NoError(t, err)
	require.Len(t, targets, 2)
	require.Equal(t, "Acme Corp", targets[0].Name)
}
