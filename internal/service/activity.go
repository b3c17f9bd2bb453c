package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"bitwise74/bucket-panel/internal/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	DefaultActivityLimit = 200
	MaxActivityLimit     = 500
)

var ErrActivityClosed = errors.New("activity log closed")

// Actor is whoever triggered a logged action
type Actor struct {
	ID    string
	Name  string
	Email string
}

type activityJob struct {
	entry *model.Activity
	// Set on flush markers, closed once everything before it was written
	flushed chan struct{}
}

// ActivityLog writes entries in the background so that logging never slows
// down or fails a request
type ActivityLog struct {
	db   *gorm.DB
	jobs chan activityJob
	done chan struct{}

	mu     sync.RWMutex
	closed bool
	now    func() time.Time
}

// NewActivityLog starts the writer goroutine. queueSize bounds how many
// entries may wait to be written before new ones get dropped.
func NewActivityLog(db *gorm.DB, queueSize int) *ActivityLog {
	if queueSize <= 0 {
		queueSize = 1
	}

	l := &ActivityLog{
		db:   db,
		jobs: make(chan activityJob, queueSize),
		done: make(chan struct{}),
		now:  time.Now,
	}

	go l.worker()

	return l
}

func (l *ActivityLog) worker() {
	defer close(l.done)

	for job := range l.jobs {
		if job.flushed != nil {
			close(job.flushed)
			continue
		}

		if err := l.db.Create(job.entry).Error; err != nil {
			zap.L().Error("Failed to write activity entry",
				zap.String("action", string(job.entry.Action)),
				zap.String("user_id", job.entry.UserID),
				zap.Error(err))
		}
	}
}

// Record queues an entry. Empty targetKey and details are stored as null.
func (l *ActivityLog) Record(actor Actor, action model.Action, targetKey, details string) {
	entry := &model.Activity{
		ID:        uuid.NewString(),
		UserID:    actor.ID,
		UserName:  actor.Name,
		UserEmail: actor.Email,
		Action:    action,
		CreatedAt: l.now(),
	}

	if targetKey != "" {
		entry.TargetKey = &targetKey
	}
	if details != "" {
		entry.Details = &details
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		zap.L().Warn("Activity entry dropped, log closed", zap.String("action", string(action)))
		return
	}

	select {
	case l.jobs <- activityJob{entry: entry}:
	default:
		zap.L().Warn("Activity queue full, entry dropped",
			zap.String("action", string(action)),
			zap.String("user_id", actor.ID))
	}
}

// Flush blocks until every entry recorded before the call was written
func (l *ActivityLog) Flush(ctx context.Context) error {
	marker := activityJob{flushed: make(chan struct{})}

	l.mu.RLock()
	if l.closed {
		l.mu.RUnlock()
		return ErrActivityClosed
	}

	select {
	case l.jobs <- marker:
		l.mu.RUnlock()
	case <-ctx.Done():
		l.mu.RUnlock()
		return ctx.Err()
	}

	select {
	case <-marker.flushed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting entries and waits for the queue to drain
func (l *ActivityLog) Close() {
	l.mu.Lock()
	if !l.closed {
		l.closed = true
		close(l.jobs)
	}
	l.mu.Unlock()

	<-l.done
}

// Query returns the newest entries first. search matches case insensitively
// against the action, actor name and email, target key and details.
func (l *ActivityLog) Query(ctx context.Context, search string, limit int) ([]model.Activity, error) {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	limit = min(limit, MaxActivityLimit)

	q := l.db.WithContext(ctx).Model(&model.Activity{})

	if s := strings.TrimSpace(search); s != "" {
		like := "%" + escapeLike(strings.ToLower(s)) + "%"
		q = q.Where(
			`LOWER(action) LIKE ? ESCAPE '\' OR LOWER(user_name) LIKE ? ESCAPE '\' OR LOWER(user_email) LIKE ? ESCAPE '\' OR LOWER(COALESCE(target_key, '')) LIKE ? ESCAPE '\' OR LOWER(COALESCE(details, '')) LIKE ? ESCAPE '\'`,
			like, like, like, like, like,
		)
	}

	entries := []model.Activity{}
	err := q.Order("created_at DESC").Limit(limit).Find(&entries).Error
	if err != nil {
		return nil, err
	}

	return entries, nil
}
