package application_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/daysync/internal/shared/infrastructure/storage"
	"github.com/felixgeelhaar/daysync/internal/tracker/application"
	"github.com/felixgeelhaar/daysync/internal/tracker/infrastructure/cache"
	"github.com/felixgeelhaar/daysync/internal/tracker/infrastructure/localstore"
	"github.com/felixgeelhaar/daysync/internal/tracker/infrastructure/remote"

	"github.com/felixgeelhaar/daysync/internal/tracker/domain/datekey"
	"github.com/felixgeelhaar/daysync/internal/tracker/domain/task"
)

var baseTime = time.Date(2026, time.September, 1, 10, 0, 0, 0, time.UTC)

type syncFixture struct {
	local  *localstore.Store
	cache  *cache.Cache
	remote *flakyRemote
	syncer *application.SyncManager
}

// flakyRemote wraps the in-memory remote store with per-call failure taps.
type flakyRemote struct {
	*remote.MemoryStore
	createErr error
	updateErr error
	deleteErr error
	creates   int
	updates   int
	deletes   int
}

func (f *flakyRemote) Create(ctx context.Context, t task.Task) (task.ID, error) {
	f.creates++
	if f.createErr != nil {
		return task.ID{}, f.createErr
	}
	return f.MemoryStore.Create(ctx, t)
}

func (f *flakyRemote) Update(ctx context.Context, id task.ID, patch task.Patch) error {
	f.updates++
	if f.updateErr != nil {
		return f.updateErr
	}
	return f.MemoryStore.Update(ctx, id, patch)
}

func (f *flakyRemote) Delete(ctx context.Context, id task.ID) error {
	f.deletes++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.MemoryStore.Delete(ctx, id)
}

func newSyncFixture(t *testing.T) *syncFixture {
	t.Helper()
	backend := storage.NewMemoryStore(0)
	now := func() time.Time { return baseTime }

	local := localstore.New(backend, nil)
	local.SetNow(now)
	c := cache.New(backend, cache.Config{}, nil)
	c.SetNow(now)
	r := &flakyRemote{MemoryStore: remote.NewMemoryStore()}

	return &syncFixture{
		local:  local,
		cache:  c,
		remote: r,
		syncer: application.NewSyncManager(local, c, r, nil),
	}
}

func TestExecutePendingSync_AddAssignsRemoteID(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture(t)

	created, err := f.local.Add(ctx, task.Draft{Title: "offline add"})
	require.NoError(t, err)
	require.True(t, created.ID.IsLocal())

	require.NoError(t, f.syncer.ExecutePendingSync(ctx))

	// Queue drained.
	ops, err := f.local.PendingOps(ctx)
	require.NoError(t, err)
	assert.Empty(t, ops)

	// Local record now carries the server id; no duplicate appeared.
	tasks, err := f.local.List(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.False(t, tasks[0].ID.IsLocal())

	// Remote has exactly one task.
	pulled, err := f.remote.List(ctx)
	require.NoError(t, err)
	require.Len(t, pulled, 1)
	assert.Equal(t, "offline add", pulled[0].Title)
}

func TestExecutePendingSync_UpdateAfterAddInSamePass(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture(t)

	created, err := f.local.Add(ctx, task.Draft{Title: "draft"})
	require.NoError(t, err)
	title := "final"
	require.NoError(t, f.local.Update(ctx, created.ID, task.Patch{Title: &title}))

	require.NoError(t, f.syncer.ExecutePendingSync(ctx))

	// Both ops applied in one pass: the update was redirected to the id the
	// add produced moments earlier.
	ops, err := f.local.PendingOps(ctx)
	require.NoError(t, err)
	assert.Empty(t, ops)

	pulled, err := f.remote.List(ctx)
	require.NoError(t, err)
	require.Len(t, pulled, 1)
	assert.Equal(t, "final", pulled[0].Title)
}

func TestExecutePendingSync_DependentOpsWaitForTheirAdd(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture(t)

	created, err := f.local.Add(ctx, task.Draft{Title: "x"})
	require.NoError(t, err)
	title := "y"
	require.NoError(t, f.local.Update(ctx, created.ID, task.Patch{Title: &title}))

	f.remote.createErr = assert.AnError
	require.NoError(t, f.syncer.ExecutePendingSync(ctx))

	// The add failed, so the update was skipped without being consumed: both
	// stay queued in order, and the update never hit the remote.
	ops, err := f.local.PendingOps(ctx)
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, localstore.OpAdd, ops[0].Kind)
	assert.Equal(t, localstore.OpUpdate, ops[1].Kind)
	assert.Zero(t, f.remote.updates)

	// Next pass with the network back: everything drains.
	f.remote.createErr = nil
	require.NoError(t, f.syncer.ExecutePendingSync(ctx))
	ops, err = f.local.PendingOps(ctx)
	require.NoError(t, err)
	assert.Empty(t, ops)
}

func TestExecutePendingSync_RetainedOpFollowsRemappedID(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture(t)

	created, err := f.local.Add(ctx, task.Draft{Title: "draft"})
	require.NoError(t, err)
	title := "final"
	require.NoError(t, f.local.Update(ctx, created.ID, task.Patch{Title: &title}))

	// The add goes through but the dependent update fails transiently.
	f.remote.updateErr = assert.AnError
	require.NoError(t, f.syncer.ExecutePendingSync(ctx))

	// The retained update must now target the server-assigned id: its add has
	// left the queue, so the original local id can never be resolved again.
	ops, err := f.local.PendingOps(ctx)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, localstore.OpUpdate, ops[0].Kind)
	assert.False(t, ops[0].TargetID().IsLocal())

	// Next pass with the remote healthy: the update lands.
	f.remote.updateErr = nil
	require.NoError(t, f.syncer.ExecutePendingSync(ctx))

	ops, err = f.local.PendingOps(ctx)
	require.NoError(t, err)
	assert.Empty(t, ops)

	pulled, err := f.remote.List(ctx)
	require.NoError(t, err)
	require.Len(t, pulled, 1)
	assert.Equal(t, "final", pulled[0].Title)
}

func TestExecutePendingSync_FailedOpsRetainOrder(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture(t)

	a, err := f.local.Add(ctx, task.Draft{Title: "a"})
	require.NoError(t, err)
	b, err := f.local.Add(ctx, task.Draft{Title: "b"})
	require.NoError(t, err)

	f.remote.createErr = assert.AnError
	require.NoError(t, f.syncer.ExecutePendingSync(ctx))

	ops, err := f.local.PendingOps(ctx)
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.True(t, ops[0].TargetID().Equal(a.ID))
	assert.True(t, ops[1].TargetID().Equal(b.ID))
}

func TestExecutePendingSync_DeleteOfAbsentTaskCountsAsDone(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture(t)

	// A delete whose target the remote never saw (or already removed).
	require.NoError(t, f.local.ReplaceOps(ctx, []localstore.Operation{
		{Kind: localstore.OpDelete, ID: task.RemoteID("gone"), EnqueuedAt: baseTime},
	}))

	require.NoError(t, f.syncer.ExecutePendingSync(ctx))

	ops, err := f.local.PendingOps(ctx)
	require.NoError(t, err)
	assert.Empty(t, ops)
}

func TestExecutePendingSync_EmptyQueueIsNoop(t *testing.T) {
	f := newSyncFixture(t)
	require.NoError(t, f.syncer.ExecutePendingSync(context.Background()))
	assert.Zero(t, f.remote.creates)
}

func TestForceSync_PullMergesRemoteWins(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture(t)

	// Seed the remote with an existing task.
	remoteID, err := f.remote.MemoryStore.Create(ctx, task.Task{
		Title:     "remote truth",
		StartDate: "2026-09-01",
		EndDate:   "2026-09-01",
	})
	require.NoError(t, err)

	// A local copy of the same record holds a stale title, plus one
	// local-only task that has never synced.
	localOnly := task.Task{
		ID:        task.NewLocalID(func() time.Time { return baseTime }),
		Title:     "local only",
		StartDate: "2026-09-01",
		EndDate:   "2026-09-01",
	}
	require.NoError(t, f.local.Replace(ctx, []task.Task{
		{ID: remoteID, Title: "stale copy", StartDate: "2026-09-01", EndDate: "2026-09-01"},
		localOnly,
	}))

	require.NoError(t, f.syncer.ForceSync(ctx))

	tasks, err := f.local.List(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	byTitle := map[string]bool{}
	for _, tt := range tasks {
		byTitle[tt.Title] = true
	}
	assert.True(t, byTitle["remote truth"], "remote version should win")
	assert.True(t, byTitle["local only"], "unsynced local tasks survive the merge")
	assert.False(t, byTitle["stale copy"])
}

func TestPullWindow_MergesScopedRemoteWins(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture(t)

	inWindow, err := f.remote.MemoryStore.Create(ctx, task.Task{
		Title: "remote truth", StartDate: "2026-09-01", EndDate: "2026-09-01",
	})
	require.NoError(t, err)
	_, err = f.remote.MemoryStore.Create(ctx, task.Task{
		Title: "out of window", StartDate: "2026-10-05", EndDate: "2026-10-06",
	})
	require.NoError(t, err)

	// Local snapshot: a stale copy of the in-window record, one record the
	// remote deleted, and one never-synced local task outside the window.
	localOnly := task.Task{
		ID:        task.NewLocalID(func() time.Time { return baseTime }),
		Title:     "local only",
		StartDate: "2026-08-10",
		EndDate:   "2026-08-11",
	}
	require.NoError(t, f.local.Replace(ctx, []task.Task{
		{ID: inWindow, Title: "stale copy", StartDate: "2026-09-01", EndDate: "2026-09-01"},
		{ID: task.RemoteID("gone"), Title: "deleted remotely", StartDate: "2026-09-01", EndDate: "2026-09-01"},
		localOnly,
	}))

	day := datekey.Key("2026-09-01")
	require.NoError(t, f.syncer.PullWindow(ctx, remote.Query{StartOnOrBefore: day, EndOnOrAfter: day}))

	tasks, err := f.local.List(ctx)
	require.NoError(t, err)

	byTitle := map[string]bool{}
	for _, tt := range tasks {
		byTitle[tt.Title] = true
	}
	assert.True(t, byTitle["remote truth"], "remote version wins inside the window")
	assert.True(t, byTitle["local only"], "unsynced local tasks survive")
	assert.False(t, byTitle["stale copy"])
	assert.False(t, byTitle["deleted remotely"], "in-window record absent from the pull is dropped")
	assert.False(t, byTitle["out of window"], "a scoped pull never imports outside its window")
}

func TestInitData_SameDayLeavesEverythingAlone(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture(t)

	_, err := f.local.Add(ctx, task.Draft{Title: "x"})
	require.NoError(t, err)

	require.NoError(t, f.syncer.InitData(ctx))

	// Marker is today, so no pull happened.
	assert.Zero(t, f.remote.creates)
	ops, err := f.local.PendingOps(ctx)
	require.NoError(t, err)
	assert.Len(t, ops, 1)
}

func TestInitData_RolloverDropsSupersededOps(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture(t)

	localTask, err := f.local.Add(ctx, task.Draft{Title: "still local"})
	require.NoError(t, err)
	// An update against an already-synced id; the fresh pull supersedes it.
	title := "stale"
	require.NoError(t, f.local.ReplaceOps(ctx, append(
		mustOps(t, f.local, ctx),
		localstore.Operation{Kind: localstore.OpUpdate, ID: task.RemoteID("synced-1"), Patch: &task.Patch{Title: &title}},
	)))

	// Roll the day over.
	f.local.SetNow(func() time.Time { return baseTime.Add(24 * time.Hour) })

	require.NoError(t, f.syncer.InitData(ctx))

	ops, err := f.local.PendingOps(ctx)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, localstore.OpAdd, ops[0].Kind)
	assert.True(t, ops[0].TargetID().Equal(localTask.ID))
}

func TestExecutePendingSync_RejectsOverlappingRuns(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture(t)

	_, err := f.local.Add(ctx, task.Draft{Title: "x"})
	require.NoError(t, err)

	blocking := &blockingRemote{
		MemoryStore: f.remote.MemoryStore,
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	syncer := application.NewSyncManager(f.local, f.cache, blocking, nil)

	done := make(chan error, 1)
	go func() { done <- syncer.ExecutePendingSync(ctx) }()

	<-blocking.entered
	assert.ErrorIs(t, syncer.ExecutePendingSync(ctx), application.ErrSyncInFlight)
	close(blocking.release)

	require.NoError(t, <-done)

	// The flag resets once the first run finishes.
	require.NoError(t, syncer.ExecutePendingSync(ctx))
}

type blockingRemote struct {
	*remote.MemoryStore
	entered chan struct{}
	release chan struct{}
	once    bool
}

func (b *blockingRemote) Create(ctx context.Context, t task.Task) (task.ID, error) {
	if !b.once {
		b.once = true
		b.entered <- struct{}{}
		<-b.release
	}
	return b.MemoryStore.Create(ctx, t)
}

func mustOps(t *testing.T, s *localstore.Store, ctx context.Context) []localstore.Operation {
	t.Helper()
	ops, err := s.PendingOps(ctx)
	require.NoError(t, err)
	return ops
}
