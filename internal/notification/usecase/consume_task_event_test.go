package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/shandysiswandi/gonotify/internal/notification/entity"
	"github.com/shandysiswandi/gonotify/internal/pkg/idempotency"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assignedEvent() ConsumeTaskEventInput {
	ts := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	return ConsumeTaskEventInput{
		EventID:        "evt-1",
		EventType:      "TASK_ASSIGNED",
		TaskID:         "t1",
		TaskTitle:      lo.ToPtr("Write report"),
		SubjectUserID:  1,
		AssigneeUserID: lo.ToPtr[int64](2),
		EventTimestamp: &ts,
		Envelope:       Envelope{Source: "task-events", MessageID: "m-1", Body: []byte(`{}`)},
	}
}

func TestEventKey(t *testing.T) {
	ts := time.Date(2024, 5, 1, 8, 0, 0, 0, time.FixedZone("WIB", 7*3600))
	ev := entity.TaskEvent{EventID: "a", EventType: "TASK_CREATED", TaskID: "t1", EventTimestamp: &ts}

	key := EventKey(ev)
	assert.Len(t, key, 64)

	utc := ts.UTC()
	same := ev
	same.EventID = "b"
	same.EventTimestamp = &utc
	assert.Equal(t, key, EventKey(same), "timestamp wins over event id and zone is normalized")

	byID := entity.TaskEvent{EventID: "a"}
	assert.NotEmpty(t, EventKey(byID))
	assert.NotEqual(t, key, EventKey(byID))

	assert.Empty(t, EventKey(entity.TaskEvent{EventType: "TASK_CREATED"}))
}

func TestConsumeTaskEvent_Success(t *testing.T) {
	// Arrange
	f := newFixture(t)

	// Act
	err := f.uc.ConsumeTaskEvent(context.Background(), assignedEvent())

	// Assert
	require.NoError(t, err)

	rows := f.store.all()
	require.Len(t, rows, 2)
	assert.Equal(t, int64(1), rows[0].UserID)
	assert.Equal(t, "Task Assigned", rows[0].Title)
	assert.Equal(t, int64(2), rows[1].UserID)
	assert.Equal(t, "New Task Assigned", rows[1].Title)
	for _, n := range rows {
		assert.True(t, n.IsSent)
		require.NotNil(t, n.SentAt)
		assert.Equal(t, fixedNow, *n.SentAt)
		assert.Equal(t, fixedNow, n.CreatedAt)
		assert.NotEmpty(t, n.DedupKey)
	}
	assert.NotEqual(t, rows[0].DedupKey, rows[1].DedupKey)

	require.Equal(t, 2, f.sender.count())
	assert.Equal(t, "Task Assigned", f.sender.sent[0].subject)
	assert.Contains(t, f.sender.sent[0].body, "Your task 'Write report' has been assigned to someone.")
	assert.Contains(t, f.sender.sent[0].body, "Task ID: t1\n")
	assert.Empty(t, f.dead.letters)
}

func TestConsumeTaskEvent_DeliveryFailureKeepsNotification(t *testing.T) {
	f := newFixture(t)
	f.sender.fail = true

	err := f.uc.ConsumeTaskEvent(context.Background(), assignedEvent())
	require.NoError(t, err)

	rows := f.store.all()
	require.Len(t, rows, 2)
	for _, n := range rows {
		assert.False(t, n.IsSent)
		assert.Nil(t, n.SentAt)
	}
}

func TestConsumeTaskEvent_Redelivery(t *testing.T) {
	tests := []struct {
		name string
		opts []func(*fixture)
	}{
		{name: "store dedup key"},
		{name: "redis tracker", opts: []func(*fixture){withTracker}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.opts...)

			require.NoError(t, f.uc.ConsumeTaskEvent(context.Background(), assignedEvent()))
			require.NoError(t, f.uc.ConsumeTaskEvent(context.Background(), assignedEvent()))

			assert.Len(t, f.store.all(), 2)
			assert.Equal(t, 2, f.sender.count())
		})
	}
}

func TestConsumeTaskEvent_TrackerErrorFallsBackToStore(t *testing.T) {
	f := newFixture(t, withTracker)
	f.tracker.err = errors.New("redis down")

	require.NoError(t, f.uc.ConsumeTaskEvent(context.Background(), assignedEvent()))
	require.NoError(t, f.uc.ConsumeTaskEvent(context.Background(), assignedEvent()))

	assert.Len(t, f.store.all(), 2)
}

func TestConsumeTaskEvent_NoKeyAllowsDuplicates(t *testing.T) {
	f := newFixture(t)
	in := ConsumeTaskEventInput{EventType: "TASK_CREATED", SubjectUserID: 1}

	require.NoError(t, f.uc.ConsumeTaskEvent(context.Background(), in))
	require.NoError(t, f.uc.ConsumeTaskEvent(context.Background(), in))

	assert.Len(t, f.store.all(), 2)
}

func TestConsumeTaskEvent_Rejected(t *testing.T) {
	tests := []struct {
		name       string
		in         ConsumeTaskEventInput
		createErrs int
		wantReason string
	}{
		{
			name:       "unknown event type",
			in:         ConsumeTaskEventInput{EventType: "TASK_ARCHIVED", SubjectUserID: 1},
			wantReason: entity.DeadLetterUnknownEventType,
		},
		{
			name:       "missing subject",
			in:         ConsumeTaskEventInput{EventType: "TASK_CREATED"},
			wantReason: entity.DeadLetterMalformed,
		},
		{
			name:       "store keeps failing",
			in:         assignedEvent(),
			createErrs: 10,
			wantReason: entity.DeadLetterStoreFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, withTracker)
			f.store.createErr = tt.createErrs

			err := f.uc.ConsumeTaskEvent(context.Background(), tt.in)

			require.NoError(t, err)
			assert.Empty(t, f.store.all())
			assert.Zero(t, f.sender.count())
			require.Len(t, f.dead.letters, 1)
			assert.Equal(t, tt.wantReason, f.dead.letters[0].Reason)
			assert.Equal(t, "dl-1", f.dead.letters[0].ID)
		})
	}
}

func TestConsumeTaskEvent_StoreFailureReleasesKey(t *testing.T) {
	f := newFixture(t, withTracker)
	f.store.createErr = 4

	require.NoError(t, f.uc.ConsumeTaskEvent(context.Background(), assignedEvent()))
	assert.Equal(t, 4, f.store.creates, "one attempt plus three retries")
	assert.Empty(t, f.tracker.states)

	require.NoError(t, f.uc.ConsumeTaskEvent(context.Background(), assignedEvent()))
	assert.Len(t, f.store.all(), 2)
	for _, st := range f.tracker.states {
		assert.Equal(t, idempotency.StateCompleted, st)
	}
}

func TestConsumeTaskEvent_TransientStoreErrorIsRetried(t *testing.T) {
	f := newFixture(t)
	f.store.createErr = 2

	require.NoError(t, f.uc.ConsumeTaskEvent(context.Background(), assignedEvent()))

	assert.Len(t, f.store.all(), 2)
	assert.Empty(t, f.dead.letters)
}

func TestConsumeTaskEvent_DeadLetterFailureIsReturned(t *testing.T) {
	f := newFixture(t)
	f.dead.err = errors.New("bucket gone")

	err := f.uc.ConsumeTaskEvent(context.Background(), ConsumeTaskEventInput{EventType: "NOPE", SubjectUserID: 1})

	assert.ErrorContains(t, err, "bucket gone")
}

func TestConsumeTaskEvent_DeadLetterFailureKeepsKeyOpen(t *testing.T) {
	f := newFixture(t, withTracker)
	f.dead.err = errors.New("bucket gone")
	in := ConsumeTaskEventInput{EventID: "evt-9", EventType: "TASK_ARCHIVED", SubjectUserID: 1}

	err := f.uc.ConsumeTaskEvent(context.Background(), in)
	require.ErrorContains(t, err, "bucket gone")
	assert.Empty(t, f.tracker.states)

	f.dead.err = nil
	require.NoError(t, f.uc.ConsumeTaskEvent(context.Background(), in))

	require.Len(t, f.dead.letters, 1)
	assert.Equal(t, entity.DeadLetterUnknownEventType, f.dead.letters[0].Reason)
	assert.Equal(t, idempotency.StateCompleted, f.tracker.states[EventKey(in.event())])
}

func TestConsumeTaskEvent_InProgressKeyIsProcessed(t *testing.T) {
	f := newFixture(t, withTracker)
	in := assignedEvent()
	f.tracker.states[EventKey(in.event())] = idempotency.StateInProgress

	require.NoError(t, f.uc.ConsumeTaskEvent(context.Background(), in))

	assert.Len(t, f.store.all(), 2)
	assert.Equal(t, 2, f.sender.count())
	assert.Equal(t, idempotency.StateCompleted, f.tracker.states[EventKey(in.event())])
}

func TestConsumeTaskEvent_ConcurrentRunDoesNotDuplicate(t *testing.T) {
	f := newFixture(t, withTracker)
	in := assignedEvent()

	require.NoError(t, f.uc.ConsumeTaskEvent(context.Background(), in))
	f.tracker.states[EventKey(in.event())] = idempotency.StateInProgress
	require.NoError(t, f.uc.ConsumeTaskEvent(context.Background(), in))

	assert.Len(t, f.store.all(), 2)
	assert.Equal(t, 2, f.sender.count())
}
