package credibility

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/fullstackslife/guild-scout-reports/internal/model"
	"github.com/fullstackslife/guild-scout-reports/internal/store"
)

const defaultPersistTimeout = 5 * time.Second

// Accumulator applies reconciliation results to persisted credibility
// profiles. The read-modify-write per (contributor, guild) key is serialized
// through a per-key mutex; this is the only shared-state critical section in
// the engine.
type Accumulator struct {
	store             store.Store
	accuracyThreshold float64
	persistTimeout    time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex
	wg    sync.WaitGroup
}

// AccumulatorOption configures an Accumulator.
type AccumulatorOption func(*Accumulator)

// WithAccuracyThreshold overrides the overall-match percentage at which a
// submission counts as accurate.
func WithAccuracyThreshold(pct float64) AccumulatorOption {
	return func(a *Accumulator) { a.accuracyThreshold = pct }
}

// WithPersistTimeout bounds each background persist call.
func WithPersistTimeout(d time.Duration) AccumulatorOption {
	return func(a *Accumulator) { a.persistTimeout = d }
}

// NewAccumulator creates an Accumulator backed by the given store.
func NewAccumulator(st store.Store, opts ...AccumulatorOption) *Accumulator {
	a := &Accumulator{
		store:             st,
		accuracyThreshold: 80,
		persistTimeout:    defaultPersistTimeout,
		locks:             make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Update folds a reconciliation result into the (contributorID, guild)
// profile and returns the updated profile. An empty guild updates the global
// profile. The update is serialized per key.
//
// Persistence is best-effort: a failed upsert is logged and swallowed, and
// the updated profile is still returned.
func (a *Accumulator) Update(ctx context.Context, contributorID, guild string, result *model.ReconciliationResult) (*model.CredibilityProfile, error) {
	lock := a.keyLock(profileKey(contributorID, guild))
	lock.Lock()
	defer lock.Unlock()

	existing, err := a.store.GetProfile(ctx, contributorID, guild)
	if err != nil {
		return nil, eris.Wrapf(err, "credibility: load profile %s", contributorID)
	}
	if existing == nil {
		existing = &model.CredibilityProfile{
			ID:            uuid.New().String(),
			ContributorID: contributorID,
			Guild:         guild,
		}
	}

	updated := UpdateProfile(*existing, result, a.accuracyThreshold, time.Now().UTC())

	if err := a.store.UpsertProfile(ctx, &updated); err != nil {
		zap.L().Error("credibility: persist profile failed",
			zap.String("contributor_id", contributorID),
			zap.String("guild", guild),
			zap.Error(err),
		)
	}

	return &updated, nil
}

// RecordAsync runs Update in the background so the caller that triggered the
// reconciliation never blocks on, or fails from, the credibility write. All
// errors end at the log.
func (a *Accumulator) RecordAsync(contributorID, guild string, result *model.ReconciliationResult) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), a.persistTimeout)
		defer cancel()

		profile, err := a.Update(ctx, contributorID, guild, result)
		if err != nil {
			zap.L().Error("credibility: background update failed",
				zap.String("contributor_id", contributorID),
				zap.String("guild", guild),
				zap.Error(err),
			)
			return
		}
		zap.L().Debug("credibility: profile updated",
			zap.String("contributor_id", contributorID),
			zap.String("guild", guild),
			zap.Int("total_entries", profile.TotalEntries),
			zap.String("tier", string(profile.Tier)),
		)
	}()
}

// Wait blocks until all in-flight background updates finish. Used at
// shutdown and in tests.
func (a *Accumulator) Wait() {
	a.wg.Wait()
}

func (a *Accumulator) keyLock(key string) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()
	lock, ok := a.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		a.locks[key] = lock
	}
	return lock
}

func profileKey(contributorID, guild string) string {
	return contributorID + "\x00" + guild
}
