package importer

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolverMatchesExistingByCleanedName(t *testing.T) {
	store := &memUserStore{}
	saravanan := store.add("Saravanan", "saravanan@site.example")

	r := NewResolver(store, testImportConfig())
	require.NoError(t, r.Load(context.Background()))

	sess := NewSession()
	r.ResolveEntry(context.Background(), sess, "7", "4 Saravanan", uuid.New())

	require.Len(t, sess.Diagnostics, 1)
	info := sess.Diagnostics[0]
	assert.Equal(t, MappingMatched, info.Status)
	assert.Equal(t, "4 Saravanan", info.CsvName)
	assert.Equal(t, "Saravanan", info.ActualName)
	assert.Equal(t, saravanan.ID, sess.Mapping["7"])
	assert.Equal(t, 0, sess.CreatedUsers)
}

func TestResolverSubstringFallback(t *testing.T) {
	store := &memUserStore{}
	full := store.add("Ravi Kumar (Electrician)", "ravi@site.example")

	r := NewResolver(store, testImportConfig())
	require.NoError(t, r.Load(context.Background()))

	sess := NewSession()
	r.ResolveEntry(context.Background(), sess, "3", "ravi kumar", uuid.New())

	assert.Equal(t, full.ID, sess.Mapping["3"])
	assert.Equal(t, MappingMatched, sess.Diagnostics[0].Status)
}

func TestResolverExactBeatsSubstring(t *testing.T) {
	store := &memUserStore{}
	store.add("Ravi Kumar Senior", "senior@site.example")
	exact := store.add("Ravi Kumar", "exact@site.example")

	r := NewResolver(store, testImportConfig())
	require.NoError(t, r.Load(context.Background()))

	sess := NewSession()
	r.ResolveEntry(context.Background(), sess, "1", "Ravi Kumar", uuid.New())

	assert.Equal(t, exact.ID, sess.Mapping["1"])
}

func TestResolverProvisionsUnknownWorker(t *testing.T) {
	store := &memUserStore{}
	r := NewResolver(store, testImportConfig())
	require.NoError(t, r.Load(context.Background()))

	project := uuid.New()
	sess := NewSession()
	r.ResolveEntry(context.Background(), sess, "5", "Ravi Kumar", project)

	require.Len(t, store.users, 1)
	created := store.users[0]
	assert.Equal(t, "Ravi Kumar", created.Name)
	assert.Equal(t, "ravi.kumar@worker.local", created.Email)
	assert.Equal(t, "Workers", created.Department)
	assert.Equal(t, []uuid.UUID{project}, created.ProjectIDs)

	assert.Equal(t, MappingCreated, sess.Diagnostics[0].Status)
	assert.Equal(t, created.ID, sess.Mapping["5"])
	assert.Equal(t, 1, sess.CreatedUsers)

	// The snapshot grows so positional lookups can see the new account.
	assert.Len(t, r.Snapshot(), 1)
}

func TestResolverEmailSuffixOnCollision(t *testing.T) {
	store := &memUserStore{}
	store.add("Ravi Elsewhere", "ravi@worker.local")

	r := NewResolver(store, testImportConfig())
	require.NoError(t, r.Load(context.Background()))

	sess := NewSession()
	r.ResolveEntry(context.Background(), sess, "9", "rAvI!", uuid.New())

	require.Len(t, store.users, 2)
	assert.Equal(t, "ravi1@worker.local", store.users[1].Email)
}

func TestResolverCreationFailureContinues(t *testing.T) {
	store := &memUserStore{failCreate: true}
	r := NewResolver(store, testImportConfig())
	require.NoError(t, r.Load(context.Background()))

	sess := NewSession()
	r.ResolveEntry(context.Background(), sess, "2", "Unknown Worker", uuid.New())

	require.Len(t, sess.Diagnostics, 1)
	assert.Equal(t, MappingCreationFailed, sess.Diagnostics[0].Status)
	assert.NotEmpty(t, sess.Diagnostics[0].Error)
	_, mapped := sess.Mapping["2"]
	assert.False(t, mapped)
}
