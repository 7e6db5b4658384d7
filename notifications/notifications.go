// Package notifications turns upcoming work anniversaries into dashboard
// notifications with a read flag that survives restarts and logouts.
package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/jrsteele09/hr-dashboard/hrapi"
	"github.com/jrsteele09/hr-dashboard/tokenstore"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// KeyReadStatus holds a JSON object of employee ID to read flag
	KeyReadStatus = "notification_read_status"

	DefaultPollInterval = 5 * time.Minute

	defaultOpTimeout = 2 * time.Second
)

var ErrUnknownNotification = errors.New("no such notification")

// Source is satisfied by *hrapi.Client
type Source interface {
	EmployeeAnniversaries(ctx context.Context) ([]hrapi.Anniversary, error)
}

var _ Source = (*hrapi.Client)(nil)

// Notification is one upcoming anniversary. EmployeeID identifies it.
type Notification struct {
	hrapi.Anniversary
	Read bool
}

type Center struct {
	source    Source
	backend   tokenstore.Backend
	logger    zerolog.Logger
	opTimeout time.Duration

	// writeLock serializes read-modify-write cycles on the backend
	writeLock sync.Mutex

	lock   sync.RWMutex
	items  []Notification
	loaded bool
}

type Option func(*Center)

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Center) {
		c.logger = logger
	}
}

func New(source Source, backend tokenstore.Backend, opts ...Option) *Center {
	c := &Center{
		source:    source,
		backend:   backend,
		logger:    log.Logger,
		opTimeout: defaultOpTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Refresh fetches the anniversaries and applies the stored read flags. On
// failure the previous list is kept.
func (c *Center) Refresh(ctx context.Context) error {
	upcoming, err := c.source.EmployeeAnniversaries(ctx)
	if err != nil {
		return fmt.Errorf("fetch notifications: %w", err)
	}
	read := c.readStatus()

	items := make([]Notification, len(upcoming))
	for i, a := range upcoming {
		items[i] = Notification{Anniversary: a, Read: read[a.EmployeeID]}
	}

	c.lock.Lock()
	c.items = items
	c.loaded = true
	c.lock.Unlock()
	return nil
}

// Notifications returns a copy of the current list
func (c *Center) Notifications() []Notification {
	c.lock.RLock()
	defer c.lock.RUnlock()
	out := make([]Notification, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Center) UnreadCount() int {
	c.lock.RLock()
	defer c.lock.RUnlock()
	n := 0
	for _, item := range c.items {
		if !item.Read {
			n++
		}
	}
	return n
}

// MarkAsRead flags one notification as read. Once a list has been loaded,
// IDs not on it fail with ErrUnknownNotification.
func (c *Center) MarkAsRead(ctx context.Context, employeeID int) error {
	c.lock.RLock()
	known := !c.loaded
	for _, item := range c.items {
		if item.EmployeeID == employeeID {
			known = true
			break
		}
	}
	c.lock.RUnlock()
	if !known {
		return fmt.Errorf("%w: %d", ErrUnknownNotification, employeeID)
	}

	c.writeLock.Lock()
	defer c.writeLock.Unlock()

	read := c.readStatus()
	read[employeeID] = true
	if err := c.saveReadStatus(ctx, read); err != nil {
		return err
	}
	c.setRead(func(id int) bool { return id == employeeID })
	return nil
}

// MarkAllAsRead flags every listed notification as read. Flags for
// employees no longer listed are dropped.
func (c *Center) MarkAllAsRead(ctx context.Context) error {
	c.writeLock.Lock()
	defer c.writeLock.Unlock()

	read := map[int]bool{}
	for _, item := range c.Notifications() {
		read[item.EmployeeID] = true
	}
	if err := c.saveReadStatus(ctx, read); err != nil {
		return err
	}
	c.setRead(func(int) bool { return true })
	return nil
}

// Poll refreshes every interval until ctx is done. Failed refreshes are
// logged and retried on the next tick.
func (c *Center) Poll(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := c.Refresh(ctx); err != nil && ctx.Err() == nil {
			c.logger.Warn().Err(err).Msg("notification refresh failed")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (c *Center) setRead(match func(id int) bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	for i := range c.items {
		if match(c.items[i].EmployeeID) {
			c.items[i].Read = true
		}
	}
}

// readStatus loads the stored flags. Missing or unreadable state is empty.
func (c *Center) readStatus() map[int]bool {
	ctx, cancel := context.WithTimeout(context.Background(), c.opTimeout)
	defer cancel()

	read := map[int]bool{}
	raw, err := c.backend.Get(ctx, KeyReadStatus)
	if err != nil {
		if !errors.Is(err, tokenstore.ErrNotFound) {
			c.logger.Warn().Err(err).Msg("notification read status unavailable")
		}
		return read
	}

	var stored map[string]bool
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		c.logger.Warn().Err(err).Msg("discarding unreadable notification read status")
		return read
	}
	for k, v := range stored {
		id, err := strconv.Atoi(k)
		if err != nil || !v {
			continue
		}
		read[id] = true
	}
	return read
}

func (c *Center) saveReadStatus(ctx context.Context, read map[int]bool) error {
	stored := make(map[string]bool, len(read))
	for id := range read {
		stored[strconv.Itoa(id)] = true
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()
	if err := c.backend.Set(ctx, KeyReadStatus, string(data)); err != nil {
		return fmt.Errorf("save notification read status: %w", err)
	}
	return nil
}
