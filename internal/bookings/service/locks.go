package service

import (
	"context"
	bookingserrors "courtbook/internal/bookings/errors"
	"courtbook/internal/calendar"
	apperrors "courtbook/pkg/errors"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// LockKey names the lock serialising writes to one court on one date.
func LockKey(courtID string, date time.Time) string {
	return fmt.Sprintf("court:%s:%s", courtID, date.Format(calendar.DateLayout))
}

type heldLocks struct {
	token      string
	keys       []string
	acquiredAt time.Time
}

// acquireLocks takes every key in sorted order so overlapping requests cannot
// deadlock. On failure the keys already taken are released.
func (s *bookingService) acquireLocks(ctx context.Context, keys []string) (*heldLocks, error) {
	sorted := make([]string, len(keys))
	copy(sorted, keys)
	sort.Strings(sorted)

	held := &heldLocks{token: uuid.NewString()}
	for i, key := range sorted {
		if i > 0 && key == sorted[i-1] {
			continue
		}
		takenAt, err := s.acquireWithRetry(ctx, key, held.token)
		if err != nil {
			s.releaseLocks(ctx, held)
			return nil, err
		}
		if len(held.keys) == 0 {
			held.acquiredAt = takenAt
		}
		held.keys = append(held.keys, key)
	}
	return held, nil
}

// withinLocks bounds ctx by the expiry of the first lock taken. Work started
// under the locks must finish, or be abandoned, before another request can
// take them over.
func (s *bookingService) withinLocks(ctx context.Context, held *heldLocks) (context.Context, context.CancelFunc) {
	if s.cfg.LockTTL <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithDeadline(ctx, held.acquiredAt.Add(s.cfg.LockTTL))
}

// acquireWithRetry returns the time the successful attempt started, a lower
// bound for when the lock was written.
func (s *bookingService) acquireWithRetry(ctx context.Context, key, token string) (time.Time, error) {
	attempts := max(s.cfg.LockRetries, 1)
	for attempt := 1; ; attempt++ {
		started := time.Now()
		err := s.locks.Acquire(ctx, key, token, s.cfg.LockTTL)
		if err == nil {
			return started, nil
		}
		if !errors.Is(err, bookingserrors.ErrLockHeld) {
			return time.Time{}, apperrors.Translate(err, "Failed to acquire booking lock")
		}
		if attempt >= attempts {
			s.cfg.Log.Warn("Booking lock still held after retries", "key", key, "attempts", attempt)
			return time.Time{}, apperrors.Conflict("This court is currently being booked by another request. Please try again.").
				WithDetails(map[string]any{"lock": key})
		}

		timer := time.NewTimer(s.cfg.LockRetryDelay * time.Duration(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return time.Time{}, apperrors.FromContext(ctx, "Failed to acquire booking lock")
		case <-timer.C:
		}
	}
}

// releaseLocks runs on a detached context so a cancelled request still frees
// its locks. A failed release is left to the lock TTL.
func (s *bookingService) releaseLocks(ctx context.Context, held *heldLocks) {
	if held == nil || len(held.keys) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.WriteTimeout)
	defer cancel()

	for _, key := range held.keys {
		if err := s.locks.Release(ctx, key, held.token); err != nil {
			s.cfg.Log.Warn("Failed to release booking lock", "key", key, "error", err)
		}
	}
}
