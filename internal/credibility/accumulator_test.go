package credibility

import (
	"context"
	"sync"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fullstackslife/guild-scout-reports/internal/model"
	"github.com/fullstackslife/guild-scout-reports/internal/store"
)

// memStore is a map-backed store.Store for accumulator tests.
type memStore struct {
	mu        sync.Mutex
	profiles  map[string]model.CredibilityProfile
	upsertErr error
	upserts   int
}

func newMemStore() *memStore {
	return &memStore{profiles: make(map[string]model.CredibilityProfile)}
}

func (m *memStore) key(contributorID, guild string) string {
	return contributorID + "|" + guild
}

func (m *memStore) GetProfile(_ context.Context, contributorID, guild string) (*model.CredibilityProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[m.key(contributorID, guild)]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *memStore) UpsertProfile(_ context.Context, profile *model.CredibilityProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts++
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.profiles[m.key(profile.ContributorID, profile.Guild)] = *profile
	return nil
}

func (m *memStore) SaveReconciliation(context.Context, *model.ReconciliationRecord) error {
	return nil
}

func (m *memStore) GetReconciliation(context.Context, string) (*model.ReconciliationRecord, error) {
	return nil, nil
}

func (m *memStore) ListReconciliations(context.Context, store.ReconciliationFilter) ([]model.ReconciliationRecord, error) {
	return nil, nil
}

func (m *memStore) ListProfiles(context.Context, store.ProfileFilter) ([]model.CredibilityProfile, error) {
	return nil, nil
}

func (m *memStore) Migrate(context.Context) error { return nil }
func (m *memStore) Close() error                  { return nil }

func TestAccumulator_Update_CreatesProfile(t *testing.T) {
	st := newMemStore()
	acc := NewAccumulator(st)

	profile, err := acc.Update(context.Background(), "villager-7", "iron-pact", resultWithPercent(100, nil))
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.NotEmpty(t, profile.ID)
	assert.Equal(t, "villager-7", profile.ContributorID)
	assert.Equal(t, "iron-pact", profile.Guild)
	assert.Equal(t, 1, profile.TotalEntries)

	persisted, err := st.GetProfile(context.Background(), "villager-7", "iron-pact")
	require.NoError(t, err)
	require.NotNil(t, persisted)
	assert.Equal(t, profile.ID, persisted.ID)
}

func TestAccumulator_Update_GuildScopesAreSeparate(t *testing.T) {
	st := newMemStore()
	acc := NewAccumulator(st)
	ctx := context.Background()

	_, err := acc.Update(ctx, "villager-7", "iron-pact", resultWithPercent(100, nil))
	require.NoError(t, err)
	global, err := acc.Update(ctx, "villager-7", "", resultWithPercent(100, nil))
	require.NoError(t, err)

	assert.Equal(t, 1, global.TotalEntries)
	scoped, err := st.GetProfile(ctx, "villager-7", "iron-pact")
	require.NoError(t, err)
	assert.Equal(t, 1, scoped.TotalEntries)
	assert.NotEqual(t, global.ID, scoped.ID)
}

func TestAccumulator_Update_PersistFailureSwallowed(t *testing.T) {
	st := newMemStore()
	st.upsertErr = eris.New("disk full")
	acc := NewAccumulator(st)

	profile, err := acc.Update(context.Background(), "villager-7", "", resultWithPercent(100, nil))
	require.NoError(t, err, "persist failures must not surface to the caller")
	require.NotNil(t, profile)
	assert.Equal(t, 1, profile.TotalEntries)
}

func TestAccumulator_RecordAsync_SerializesPerKey(t *testing.T) {
	st := newMemStore()
	acc := NewAccumulator(st, WithAccuracyThreshold(80))

	const n = 40
	for i := 0; i < n; i++ {
		pct := 100.0
		if i%2 == 0 {
			pct = 50
		}
		acc.RecordAsync("villager-7", "iron-pact", resultWithPercent(pct, nil))
	}
	acc.Wait()

	profile, err := st.GetProfile(context.Background(), "villager-7", "iron-pact")
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, n, profile.TotalEntries, "every concurrent update must land")
	assert.Equal(t, n/2, profile.AccurateEntries)
	assert.Equal(t, n, st.upserts)
}

func TestAccumulator_RecordAsync_IndependentKeysProceed(t *testing.T) {
	st := newMemStore()
	acc := NewAccumulator(st)

	contributors := []string{"a", "b", "c", "d"}
	for _, id := range contributors {
		for i := 0; i < 5; i++ {
			acc.RecordAsync(id, "iron-pact", resultWithPercent(100, nil))
		}
	}
	acc.Wait()

	for _, id := range contributors {
		profile, err := st.GetProfile(context.Background(), id, "iron-pact")
		require.NoError(t, err)
		require.NotNil(t, profile, "profile for %s", id)
		assert.Equal(t, 5, profile.TotalEntries)
	}
}
