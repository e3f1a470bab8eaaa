package local

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amanifadhili/encubation-management-system-sub001/internal/model"
	"github.com/amanifadhili/encubation-management-system-sub001/internal/onboarding"
)

func TestDraftsSurviveReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := Open(Options{Path: dir})
	require.NoError(t, err)
	require.NoError(t, store.PutDraft(ctx, "u1", model.Phase2, []byte(`{"institution":"UR"}`)))
	require.NoError(t, store.Close())

	store, err = Open(Options{Path: dir})
	require.NoError(t, err)
	defer store.Close()

	data, err := store.GetDraft(ctx, "u1", model.Phase2)
	require.NoError(t, err)
	assert.JSONEq(t, `{"institution":"UR"}`, string(data))
}

func TestMissingDraftIsNil(t *testing.T) {
	store, err := Open(Options{InMemory: true})
	require.NoError(t, err)
	defer store.Close()

	data, err := store.GetDraft(context.Background(), "u1", model.Phase1)
	require.NoError(t, err)
	assert.Nil(t, data)

	require.NoError(t, store.DeleteDraft(context.Background(), "u1", model.Phase1))
}

func TestPhasesListsStoredDrafts(t *testing.T) {
	ctx := context.Background()
	store, err := Open(Options{InMemory: true})
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.PutDraft(ctx, "u1", model.Phase5, []byte(`{}`)))
	require.NoError(t, store.PutDraft(ctx, "u1", model.Phase1, []byte(`{}`)))
	require.NoError(t, store.PutDraft(ctx, "u2", model.Phase3, []byte(`{}`)))

	phases, err := store.Phases("u1")
	require.NoError(t, err)
	assert.Equal(t, []model.Phase{model.Phase1, model.Phase5}, phases)
}

func TestBackendForDraftStore(t *testing.T) {
	ctx := context.Background()
	store, err := Open(Options{InMemory: true})
	require.NoError(t, err)
	defer store.Close()

	drafts := onboarding.NewDraftStore(store, "u1", nil)
	drafts.Save(ctx, model.Phase3, model.FieldSet{}.Set(model.FieldSkills, "Go", "SQL"))

	assert.Equal(t, []string{"Go", "SQL"}, drafts.Load(ctx, model.Phase3).Items(model.FieldSkills))

	drafts.Clear(ctx, model.Phase3)
	assert.Nil(t, drafts.Load(ctx, model.Phase3))
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(Options{})
	assert.Error(t, err)
}
