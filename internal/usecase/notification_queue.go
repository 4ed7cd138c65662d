package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/riskibarqy/dota2-results/internal/domain/match"
	"github.com/riskibarqy/dota2-results/internal/domain/notification"
	"github.com/riskibarqy/dota2-results/internal/platform/logging"
)

const defaultStreamDelay = 120 * time.Second

// DeliverFunc runs the reconcile-to-post pipeline for one pending entry.
type DeliverFunc func(ctx context.Context, p notification.Pending) error

// DelayFunc returns the broadcast delay for a league.
type DelayFunc func(leagueID int64) time.Duration

// Timer is the part of *time.Timer the queue relies on.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d, like time.AfterFunc.
type AfterFunc func(d time.Duration, f func()) Timer

// NotificationQueue holds detected matches through their broadcast delay and
// retries delivery every cycle until a terminal outcome.
type NotificationQueue struct {
	mu        sync.Mutex
	repo      notification.Repository
	logger    *logging.Logger
	deliver   DeliverFunc
	delay     DelayFunc
	afterFunc AfterFunc
	now       func() time.Time
	pending   map[int64]*notification.Pending
	inflight  map[int64]struct{}
	timers    map[int64]Timer
}

func NewNotificationQueue(repo notification.Repository, deliver DeliverFunc, delay DelayFunc, logger *logging.Logger) *NotificationQueue {
	if delay == nil {
		delay = func(int64) time.Duration { return defaultStreamDelay }
	}
	return &NotificationQueue{
		repo:    repo,
		logger:  logging.OrDefault(logger).Named("notification_queue"),
		deliver: deliver,
		delay:   delay,
		afterFunc: func(d time.Duration, f func()) Timer {
			return time.AfterFunc(d, f)
		},
		now:      time.Now,
		pending:  make(map[int64]*notification.Pending),
		inflight: make(map[int64]struct{}),
		timers:   make(map[int64]Timer),
	}
}

// Enqueue persists a newly detected match and schedules its delivery after
// the league's stream delay. It returns false when the match is already
// pending.
func (q *NotificationQueue) Enqueue(ctx context.Context, stub match.Stub, leagueID int64) (bool, error) {
	if stub.MatchID <= 0 {
		return false, errors.Wrap(ErrInvalidInput, "match id is required")
	}
	if leagueID == 0 {
		leagueID = stub.LeagueID
	}

	delay := q.delay(leagueID)
	now := q.now()
	entry := notification.Pending{
		MatchID:    stub.MatchID,
		LeagueID:   leagueID,
		Stub:       stub,
		EnqueuedAt: now,
		DueAt:      now.Add(delay),
	}

	q.mu.Lock()
	if _, ok := q.pending[stub.MatchID]; ok {
		q.mu.Unlock()
		return false, nil
	}
	q.pending[stub.MatchID] = &entry
	q.mu.Unlock()

	if err := q.repo.Put(ctx, entry); err != nil {
		q.logger.ErrorContext(ctx, "persist pending failed, keeping in memory", "match_id", stub.MatchID, "error", err)
	}

	base := context.WithoutCancel(ctx)
	timer := q.afterFunc(delay, func() {
		q.attempt(base, stub.MatchID)
	})
	q.mu.Lock()
	if _, ok := q.pending[stub.MatchID]; ok {
		q.timers[stub.MatchID] = timer
	} else {
		timer.Stop()
	}
	q.mu.Unlock()

	q.logger.InfoContext(ctx, "match enqueued", "match_id", stub.MatchID, "league_id", leagueID, "delay", delay.String())
	return true, nil
}

// RetryAll attempts every pending entry whose delay has elapsed.
func (q *NotificationQueue) RetryAll(ctx context.Context) int {
	now := q.now()

	q.mu.Lock()
	due := make([]int64, 0, len(q.pending))
	for id, entry := range q.pending {
		if entry.DueAt.After(now) {
			continue
		}
		due = append(due, id)
	}
	q.mu.Unlock()

	sort.Slice(due, func(i, j int) bool { return due[i] < due[j] })
	attempted := 0
	for _, id := range due {
		if q.attempt(ctx, id) {
			attempted++
		}
	}
	return attempted
}

// Restore loads persisted entries. They are due immediately and go out on the
// next retry pass.
func (q *NotificationQueue) Restore(ctx context.Context) (int, error) {
	entries, err := q.repo.List(ctx)
	if err != nil {
		return 0, err
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	restored := 0
	for i := range entries {
		entry := entries[i]
		if _, ok := q.pending[entry.MatchID]; ok {
			continue
		}
		entry.DueAt = time.Time{}
		q.pending[entry.MatchID] = &entry
		restored++
	}
	return restored, nil
}

func (q *NotificationQueue) Pending() []notification.Pending {
	q.mu.Lock()
	out := make([]notification.Pending, 0, len(q.pending))
	for _, entry := range q.pending {
		out = append(out, *entry)
	}
	q.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].EnqueuedAt.Equal(out[j].EnqueuedAt) {
			return out[i].EnqueuedAt.Before(out[j].EnqueuedAt)
		}
		return out[i].MatchID < out[j].MatchID
	})
	return out
}

func (q *NotificationQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Stop cancels outstanding delay timers. Entries stay persisted.
func (q *NotificationQueue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for id, timer := range q.timers {
		timer.Stop()
		delete(q.timers, id)
	}
}

// attempt delivers one entry unless it is gone or already in flight. It
// reports whether delivery was attempted.
func (q *NotificationQueue) attempt(ctx context.Context, matchID int64) bool {
	q.mu.Lock()
	entry, ok := q.pending[matchID]
	if !ok {
		q.mu.Unlock()
		return false
	}
	if _, busy := q.inflight[matchID]; busy {
		q.mu.Unlock()
		return false
	}
	q.inflight[matchID] = struct{}{}
	delete(q.timers, matchID)
	entry.DueAt = time.Time{}
	snapshot := *entry
	q.mu.Unlock()

	defer func() {
		q.mu.Lock()
		delete(q.inflight, matchID)
		q.mu.Unlock()
	}()

	err := q.deliver(ctx, snapshot)
	switch classify(err) {
	case notification.OutcomeDelivered:
		q.remove(ctx, matchID)
		q.logger.InfoContext(ctx, "match delivered", "match_id", matchID, "attempts", snapshot.Attempts+1)
	case notification.OutcomeTerminal:
		q.remove(ctx, matchID)
		q.logger.InfoContext(ctx, "match dropped", "match_id", matchID, "reason", err.Error())
	default:
		q.recordFailure(ctx, matchID, err)
	}
	return true
}

func (q *NotificationQueue) remove(ctx context.Context, matchID int64) {
	q.mu.Lock()
	_, ok := q.pending[matchID]
	delete(q.pending, matchID)
	if timer, has := q.timers[matchID]; has {
		timer.Stop()
		delete(q.timers, matchID)
	}
	q.mu.Unlock()
	if !ok {
		return
	}

	if err := q.repo.Delete(ctx, matchID); err != nil {
		q.logger.ErrorContext(ctx, "delete pending failed", "match_id", matchID, "error", err)
	}
}

func (q *NotificationQueue) recordFailure(ctx context.Context, matchID int64, cause error) {
	q.mu.Lock()
	entry, ok := q.pending[matchID]
	if !ok {
		q.mu.Unlock()
		return
	}
	entry.Attempts++
	entry.LastError = cause.Error()
	snapshot := *entry
	q.mu.Unlock()

	q.logger.WarnContext(ctx, "delivery failed, will retry", "match_id", matchID, "attempts", snapshot.Attempts, "error", cause)
	if err := q.repo.Put(ctx, snapshot); err != nil {
		q.logger.ErrorContext(ctx, "persist pending failed", "match_id", matchID, "error", err)
	}
}

func classify(err error) notification.Outcome {
	switch {
	case err == nil:
		return notification.OutcomeDelivered
	case IsTerminal(err):
		return notification.OutcomeTerminal
	default:
		return notification.OutcomeTransient
	}
}
