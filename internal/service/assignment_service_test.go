package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/training-monitor-api/internal/dto"
	"github.com/noah-isme/training-monitor-api/internal/models"
	"github.com/noah-isme/training-monitor-api/pkg/config"
	appErrors "github.com/noah-isme/training-monitor-api/pkg/errors"
)

func newAssignmentFixture(opts ...AssignmentServiceOption) (*AssignmentService, *assignmentRepoStub, *auditRecorder) {
	repo := &assignmentRepoStub{}
	audit := &auditRecorder{}
	trainees := newTraineeRepoStub(
		&models.Trainee{ID: "t1", Status: models.TraineeStatusActive},
		&models.Trainee{ID: "t-done", Status: models.TraineeStatusCompleted},
	)
	supervisors := newSupervisorRepoStub(
		&models.Supervisor{ID: "sup-1", Active: true},
		&models.Supervisor{ID: "sup-2", Active: true},
		&models.Supervisor{ID: "sup-off", Active: false},
	)
	return NewAssignmentService(repo, trainees, supervisors, audit, nil, nil, opts...), repo, audit
}

func TestAssignRejectsUnknownOrInactiveParties(t *testing.T) {
	svc, _, _ := newAssignmentFixture()
	ctx := context.Background()

	cases := []dto.CreateAssignmentRequest{
		{SupervisorID: "ghost", TraineeID: "t1"},
		{SupervisorID: "sup-off", TraineeID: "t1"},
		{SupervisorID: "sup-1", TraineeID: "ghost"},
		{SupervisorID: "sup-1", TraineeID: "t-done"},
	}
	for _, req := range cases {
		_, err := svc.Assign(ctx, adminActor, req)
		requireAppError(t, err, appErrors.ErrNotFound)
	}

	_, err := svc.Assign(ctx, adminActor, dto.CreateAssignmentRequest{TraineeID: "t1"})
	requireAppError(t, err, appErrors.ErrValidation)
}

func TestAssignConflicts(t *testing.T) {
	svc, _, _ := newAssignmentFixture()
	ctx := context.Background()

	_, err := svc.Assign(ctx, adminActor, dto.CreateAssignmentRequest{SupervisorID: "sup-1", TraineeID: "t1", IsPrimary: true})
	require.NoError(t, err)

	_, err = svc.Assign(ctx, adminActor, dto.CreateAssignmentRequest{SupervisorID: "sup-1", TraineeID: "t1"})
	requireAppError(t, err, appErrors.ErrConflict)

	_, err = svc.Assign(ctx, adminActor, dto.CreateAssignmentRequest{SupervisorID: "sup-2", TraineeID: "t1", IsPrimary: true})
	requireAppError(t, err, appErrors.ErrConflict)

	secondary, err := svc.Assign(ctx, adminActor, dto.CreateAssignmentRequest{SupervisorID: "sup-2", TraineeID: "t1"})
	require.NoError(t, err)
	assert.False(t, secondary.IsPrimary)

	ids, err := svc.SupervisorsOf(ctx, "t1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"sup-1", "sup-2"}, ids)
}

func TestPrimaryPolicy(t *testing.T) {
	manual, _, _ := newAssignmentFixture()
	a, err := manual.Assign(context.Background(), adminActor, dto.CreateAssignmentRequest{SupervisorID: "sup-1", TraineeID: "t1"})
	require.NoError(t, err)
	assert.False(t, a.IsPrimary)

	auto, _, _ := newAssignmentFixture(WithPrimaryPolicy(config.PrimaryPolicyAutoFirst))
	first, err := auto.Assign(context.Background(), adminActor, dto.CreateAssignmentRequest{SupervisorID: "sup-1", TraineeID: "t1"})
	require.NoError(t, err)
	assert.True(t, first.IsPrimary)
	second, err := auto.Assign(context.Background(), adminActor, dto.CreateAssignmentRequest{SupervisorID: "sup-2", TraineeID: "t1"})
	require.NoError(t, err)
	assert.False(t, second.IsPrimary)
}

func TestUnassignTwiceSucceeds(t *testing.T) {
	svc, _, audit := newAssignmentFixture()
	ctx := context.Background()
	a, err := svc.Assign(ctx, adminActor, dto.CreateAssignmentRequest{SupervisorID: "sup-1", TraineeID: "t1"})
	require.NoError(t, err)

	require.NoError(t, svc.Unassign(ctx, adminActor, a.ID))
	require.NoError(t, svc.Unassign(ctx, adminActor, a.ID))
	require.NoError(t, svc.Unassign(ctx, adminActor, "never-existed"))

	ids, err := svc.TraineesOf(ctx, "sup-1")
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.Equal(t, []string{models.AuditActionAssignmentCreate, models.AuditActionAssignmentDelete}, audit.actions())
}

type memCache struct {
	entries     map[string][]string
	counters    map[string]int64
	invalidated []string
	incrErr     error
	deleteErr   error
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string][]string), counters: make(map[string]int64)}
}

func (m *memCache) GetIDs(ctx context.Context, key string) ([]string, error) {
	ids, ok := m.entries[key]
	if !ok {
		return nil, appErrors.ErrCacheMiss
	}
	return ids, nil
}

func (m *memCache) SetIDs(ctx context.Context, key string, ids []string, ttl time.Duration) error {
	m.entries[key] = ids
	return nil
}

func (m *memCache) DeleteByPattern(ctx context.Context, pattern string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.invalidated = append(m.invalidated, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
		}
	}
	return nil
}

func (m *memCache) Counter(ctx context.Context, key string) (int64, error) {
	return m.counters[key], nil
}

func (m *memCache) Incr(ctx context.Context, key string) (int64, error) {
	if m.incrErr != nil {
		return 0, m.incrErr
	}
	m.counters[key]++
	return m.counters[key], nil
}

func TestGraphLookupsReadThroughCache(t *testing.T) {
	backend := newMemCache()
	cache := NewCacheService(backend, NewMetricsService(), time.Minute, nil, true)
	svc, repo, _ := newAssignmentFixture(WithAssignmentCache(cache))
	ctx := context.Background()

	_, err := svc.Assign(ctx, adminActor, dto.CreateAssignmentRequest{SupervisorID: "sup-1", TraineeID: "t1"})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		ids, err := svc.TraineesOf(ctx, "sup-1")
		require.NoError(t, err)
		assert.Equal(t, []string{"t1"}, ids)
	}
	assert.Equal(t, 1, repo.listCalls)
	assert.Contains(t, backend.entries, "assignments:g1:supervisor:sup-1")

	a, err := svc.Assign(ctx, adminActor, dto.CreateAssignmentRequest{SupervisorID: "sup-2", TraineeID: "t1"})
	require.NoError(t, err)
	require.NoError(t, svc.Unassign(ctx, adminActor, a.ID))
	assert.Equal(t, int64(3), backend.counters["assignments:generation"])
	assert.Equal(t, []string{"assignments:g0:*", "assignments:g1:*", "assignments:g2:*"}, backend.invalidated)

	_, err = svc.TraineesOf(ctx, "sup-1")
	require.NoError(t, err)
	assert.Equal(t, 2, repo.listCalls)
}

func TestUnassignFailsWhenCacheCannotBeInvalidated(t *testing.T) {
	backend := newMemCache()
	cache := NewCacheService(backend, NewMetricsService(), time.Minute, nil, true)
	svc, _, _ := newAssignmentFixture(WithAssignmentCache(cache))
	ctx := context.Background()

	a, err := svc.Assign(ctx, adminActor, dto.CreateAssignmentRequest{SupervisorID: "sup-1", TraineeID: "t1"})
	require.NoError(t, err)
	ids, err := svc.TraineesOf(ctx, "sup-1")
	require.NoError(t, err)
	require.Equal(t, []string{"t1"}, ids)

	backend.incrErr = errors.New("redis down")
	backend.deleteErr = errors.New("redis down")
	requireAppError(t, svc.Unassign(ctx, adminActor, a.ID), appErrors.ErrInternal)
	_, err = svc.Assign(ctx, adminActor, dto.CreateAssignmentRequest{SupervisorID: "sup-2", TraineeID: "t1"})
	requireAppError(t, err, appErrors.ErrInternal)

	backend.incrErr = nil
	require.NoError(t, svc.Unassign(ctx, adminActor, a.ID))
	ids, err = svc.TraineesOf(ctx, "sup-1")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestLoadRacingAWriteIsNotServedLater(t *testing.T) {
	backend := newMemCache()
	cache := NewCacheService(backend, NewMetricsService(), time.Minute, nil, true)
	svc, repo, _ := newAssignmentFixture(WithAssignmentCache(cache))
	ctx := context.Background()

	a, err := svc.Assign(ctx, adminActor, dto.CreateAssignmentRequest{SupervisorID: "sup-1", TraineeID: "t1"})
	require.NoError(t, err)

	repo.afterLoad = func() {
		repo.afterLoad = nil
		require.NoError(t, svc.Unassign(ctx, adminActor, a.ID))
	}
	ids, err := svc.TraineesOf(ctx, "sup-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, ids)

	ids, err = svc.TraineesOf(ctx, "sup-1")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestDisabledCacheAlwaysLoads(t *testing.T) {
	backend := newMemCache()
	cache := NewCacheService(backend, nil, 0, nil, false)
	svc, repo, _ := newAssignmentFixture(WithAssignmentCache(cache))

	for i := 0; i < 2; i++ {
		_, err := svc.SupervisorsOf(context.Background(), "t1")
		require.NoError(t, err)
	}
	assert.Equal(t, 2, repo.listCalls)
	assert.Empty(t, backend.entries)
}
