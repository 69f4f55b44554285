package event

import (
	"context"
	"testing"
	"time"

	"github.com/ftzops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeOutboxRepo backs OutboxService tests with an in-memory entry map.
type fakeOutboxRepo struct {
	entries map[uuid.UUID]*shared.OutboxEntry
}

func newFakeOutboxRepo() *fakeOutboxRepo {
	return &fakeOutboxRepo{entries: make(map[uuid.UUID]*shared.OutboxEntry)}
}

func (r *fakeOutboxRepo) Save(ctx context.Context, entries ...*shared.OutboxEntry) error {
	for _, e := range entries {
		r.entries[e.ID] = e
	}
	return nil
}

func (r *fakeOutboxRepo) FindPending(ctx context.Context, limit int) ([]*shared.OutboxEntry, error) {
	var result []*shared.OutboxEntry
	for _, e := range r.entries {
		if e.Status == shared.OutboxStatusPending {
			result = append(result, e)
			if len(result) >= limit {
				break
			}
		}
	}
	return result, nil
}

func (r *fakeOutboxRepo) FindRetryable(ctx context.Context, before time.Time, limit int) ([]*shared.OutboxEntry, error) {
	return nil, nil
}

func (r *fakeOutboxRepo) FindDead(ctx context.Context, page, pageSize int) ([]*shared.OutboxEntry, int64, error) {
	var dead []*shared.OutboxEntry
	for _, e := range r.entries {
		if e.Status == shared.OutboxStatusDead {
			dead = append(dead, e)
		}
	}
	total := int64(len(dead))

	start := (page - 1) * pageSize
	if start >= len(dead) {
		return nil, total, nil
	}
	end := start + pageSize
	if end > len(dead) {
		end = len(dead)
	}
	return dead[start:end], total, nil
}

func (r *fakeOutboxRepo) FindByID(ctx context.Context, id uuid.UUID) (*shared.OutboxEntry, error) {
	if e, ok := r.entries[id]; ok {
		return e, nil
	}
	return nil, nil
}

func (r *fakeOutboxRepo) MarkProcessing(ctx context.Context, ids []uuid.UUID) ([]*shared.OutboxEntry, error) {
	return nil, nil
}

func (r *fakeOutboxRepo) Update(ctx context.Context, entry *shared.OutboxEntry) error {
	r.entries[entry.ID] = entry
	return nil
}

func (r *fakeOutboxRepo) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

func (r *fakeOutboxRepo) CountByStatus(ctx context.Context) (map[shared.OutboxStatus]int64, error) {
	counts := make(map[shared.OutboxStatus]int64)
	for _, e := range r.entries {
		counts[e.Status]++
	}
	return counts, nil
}

func newOutboxFixture() (*fakeOutboxRepo, *OutboxService) {
	repo := newFakeOutboxRepo()
	return repo, NewOutboxService(repo, zap.NewNop())
}

// deadLotEvent seeds an exhausted delivery attempt for a lot event.
func (r *fakeOutboxRepo) deadLotEvent(eventType, lastError string) *shared.OutboxEntry {
	entry := &shared.OutboxEntry{
		ID:            uuid.New(),
		EventID:       uuid.New(),
		EventType:     eventType,
		AggregateID:   uuid.New(),
		AggregateType: "InventoryLot",
		Status:        shared.OutboxStatusDead,
		RetryCount:    5,
		MaxRetries:    5,
		LastError:     lastError,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	r.entries[entry.ID] = entry
	return entry
}

func TestOutboxService_GetDeadLetterEntries(t *testing.T) {
	repo, service := newOutboxFixture()

	repo.deadLotEvent("lot.created", "broker webhook timeout")
	repo.deadLotEvent("lot.depleted", "broker webhook timeout")
	repo.deadLotEvent("lot.hold_applied", "connection refused")

	// A pending entry must stay out of the dead letter view.
	pending := &shared.OutboxEntry{ID: uuid.New(), Status: shared.OutboxStatusPending}
	repo.entries[pending.ID] = pending

	result, err := service.GetDeadLetterEntries(context.Background(), OutboxFilter{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.Total)
	assert.Len(t, result.Entries, 3)
	assert.Equal(t, 1, result.TotalPages)

	for _, entry := range result.Entries {
		assert.Equal(t, "DEAD", entry.Status)
	}
}

func TestOutboxService_GetDeadLetterEntries_ClampsFilter(t *testing.T) {
	repo, service := newOutboxFixture()
	repo.deadLotEvent("lot.voided", "broker webhook timeout")

	// Zero values fall back to the first page with the default size.
	result, err := service.GetDeadLetterEntries(context.Background(), OutboxFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Page)
	assert.Equal(t, 20, result.PageSize)

	result, err = service.GetDeadLetterEntries(context.Background(), OutboxFilter{Page: 1, PageSize: 5000})
	require.NoError(t, err)
	assert.Equal(t, 100, result.PageSize)
}

func TestOutboxService_GetEntry(t *testing.T) {
	repo, service := newOutboxFixture()
	seeded := repo.deadLotEvent("preshipment.allocated", "connection refused")

	entry, err := service.GetEntry(context.Background(), seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, entry.ID)
	assert.Equal(t, "preshipment.allocated", entry.EventType)
	assert.Equal(t, "InventoryLot", entry.AggregateType)

	_, err = service.GetEntry(context.Background(), uuid.New())
	assert.Error(t, err)
}

func TestOutboxService_RetryDeadEntry(t *testing.T) {
	repo, service := newOutboxFixture()
	dead := repo.deadLotEvent("lot.quantity_changed", "broker webhook timeout")

	result, err := service.RetryDeadEntry(context.Background(), dead.ID)
	require.NoError(t, err)
	assert.Equal(t, "PENDING", result.Status)
	assert.Equal(t, 0, result.RetryCount)
	assert.Empty(t, result.LastError)
}

func TestOutboxService_RetryDeadEntry_NotFound(t *testing.T) {
	_, service := newOutboxFixture()

	_, err := service.RetryDeadEntry(context.Background(), uuid.New())
	assert.Error(t, err)
}

func TestOutboxService_RetryDeadEntry_NotDead(t *testing.T) {
	repo, service := newOutboxFixture()

	entry := &shared.OutboxEntry{ID: uuid.New(), Status: shared.OutboxStatusPending}
	repo.entries[entry.ID] = entry

	_, err := service.RetryDeadEntry(context.Background(), entry.ID)
	assert.Error(t, err)
}

func TestOutboxService_GetStats(t *testing.T) {
	repo, service := newOutboxFixture()

	statuses := []shared.OutboxStatus{
		shared.OutboxStatusPending,
		shared.OutboxStatusPending,
		shared.OutboxStatusProcessing,
		shared.OutboxStatusSent,
		shared.OutboxStatusSent,
		shared.OutboxStatusSent,
		shared.OutboxStatusFailed,
		shared.OutboxStatusDead,
	}
	for _, status := range statuses {
		entry := &shared.OutboxEntry{ID: uuid.New(), Status: status}
		repo.entries[entry.ID] = entry
	}

	stats, err := service.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Pending)
	assert.Equal(t, int64(1), stats.Processing)
	assert.Equal(t, int64(3), stats.Sent)
	assert.Equal(t, int64(1), stats.Failed)
	assert.Equal(t, int64(1), stats.Dead)
	assert.Equal(t, int64(8), stats.Total)
}

func TestOutboxService_RetryAllDeadEntries(t *testing.T) {
	repo, service := newOutboxFixture()

	repo.deadLotEvent("lot.created", "broker webhook timeout")
	repo.deadLotEvent("lot.depleted", "broker webhook timeout")
	repo.deadLotEvent("lot.voided", "connection refused")

	pending := &shared.OutboxEntry{ID: uuid.New(), Status: shared.OutboxStatusPending}
	repo.entries[pending.ID] = pending

	count, err := service.RetryAllDeadEntries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	for _, entry := range repo.entries {
		assert.Equal(t, shared.OutboxStatusPending, entry.Status)
		assert.Equal(t, 0, entry.RetryCount)
	}
}
