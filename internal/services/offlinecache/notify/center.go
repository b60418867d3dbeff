// Package notify holds the system notifications currently displayed.
package notify

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/louisbranch/offlinecache/internal/services/offlinecache/domain"
)

// ErrNotFound indicates no displayed notification carries the tag.
var ErrNotFound = errors.New("notification not found")

// Displayed is a notification currently on screen.
type Displayed struct {
	domain.Notification
	ShownAt time.Time
}

// Center is an in-memory notification tray keyed by tag.
type Center struct {
	mu    sync.RWMutex
	shown map[string]Displayed
	now   func() time.Time
}

// NewCenter returns an empty tray.
func NewCenter() *Center {
	return &Center{shown: make(map[string]Displayed), now: time.Now}
}

// Show displays n, replacing any notification with the same tag.
func (c *Center) Show(ctx context.Context, n domain.Notification) (Displayed, error) {
	if err := ctx.Err(); err != nil {
		return Displayed{}, err
	}
	n.Tag = strings.TrimSpace(n.Tag)
	if n.Tag == "" {
		return Displayed{}, fmt.Errorf("notification tag is required")
	}
	n.Data = maps.Clone(n.Data)
	displayed := Displayed{Notification: n, ShownAt: c.now().UTC()}
	c.mu.Lock()
	c.shown[n.Tag] = displayed
	c.mu.Unlock()
	return displayed, nil
}

// Get returns the displayed notification with tag.
func (c *Center) Get(ctx context.Context, tag string) (Displayed, error) {
	if err := ctx.Err(); err != nil {
		return Displayed{}, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	displayed, ok := c.shown[tag]
	if !ok {
		return Displayed{}, fmt.Errorf("%w: %s", ErrNotFound, tag)
	}
	return displayed, nil
}

// List returns displayed notifications, oldest first.
func (c *Center) List(ctx context.Context) ([]Displayed, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	out := make([]Displayed, 0, len(c.shown))
	for _, displayed := range c.shown {
		out = append(out, displayed)
	}
	c.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].ShownAt.Equal(out[j].ShownAt) {
			return out[i].Tag < out[j].Tag
		}
		return out[i].ShownAt.Before(out[j].ShownAt)
	})
	return out, nil
}

// Close dismisses the notification. Closing an unknown tag is a no-op.
func (c *Center) Close(ctx context.Context, tag string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	delete(c.shown, tag)
	c.mu.Unlock()
	return nil
}

var _ domain.Notifications = (*Center)(nil)
