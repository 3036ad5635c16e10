package service

import (
	"context"
	"sync"
	"time"

	"github.com/quocanhngo/deadlinemind/internal/apperr"
	"github.com/quocanhngo/deadlinemind/internal/model"
	"golang.org/x/sync/singleflight"
)

// contactCache resolves each user at most once per run. Concurrent lookups
// of the same user share one call. Transient failures are not cached.
type contactCache struct {
	resolver ContactResolver
	timeout  time.Duration

	group   singleflight.Group
	mu      sync.Mutex
	entries map[string]contactEntry
}

type contactEntry struct {
	contact *model.Contact
	err     error
}

func newContactCache(resolver ContactResolver, timeout time.Duration) *contactCache {
	return &contactCache{resolver: resolver, timeout: timeout, entries: make(map[string]contactEntry)}
}

func (c *contactCache) get(ctx context.Context, userID string) (*model.Contact, error) {
	c.mu.Lock()
	e, ok := c.entries[userID]
	c.mu.Unlock()
	if ok {
		return e.contact, e.err
	}

	v, err, _ := c.group.Do(userID, func() (interface{}, error) {
		// a flight for the same user may have finished since the check above
		c.mu.Lock()
		e, ok := c.entries[userID]
		c.mu.Unlock()
		if ok {
			return e.contact, e.err
		}

		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		contact, err := c.resolver.Resolve(callCtx, userID)
		if err == nil || apperr.IsNotFound(err) {
			c.mu.Lock()
			c.entries[userID] = contactEntry{contact: contact, err: err}
			c.mu.Unlock()
		}
		return contact, err
	})
	contact, _ := v.(*model.Contact)
	return contact, err
}

const (
	channelEmail    = "email"
	channelWhatsApp = "whatsapp"
)

// channelState records which dispatch channels are usable for the rest of a run
type channelState struct {
	mu       sync.Mutex
	disabled map[string]error
}

func newChannelState() *channelState {
	return &channelState{disabled: make(map[string]error)}
}

func (c *channelState) enabled(channel string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, off := c.disabled[channel]
	return !off
}

// disable turns a channel off and reports whether this call did it
func (c *channelState) disable(channel string, reason error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, off := c.disabled[channel]; off {
		return false
	}
	c.disabled[channel] = reason
	return true
}
