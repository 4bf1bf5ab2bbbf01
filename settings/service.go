package settings

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
)

// Listener is notified after writes that affect active behavior. Callbacks
// must be cheap; failures inside a listener are isolated and swallowed, never
// surfaced to the writer.
type Listener interface {
	AutoReplyToggled(ctx context.Context, enabled bool)
	RulesUpdated(ctx context.Context)
}

// Update is a partial settings write; nil fields are left untouched.
type Update struct {
	Enabled          *bool
	Action           *string
	DelayMs          *int
	BanReason        *string
	AutoReplyEnabled *bool
	AutoReplies      *[]AutoReplyRule
}

// Service mediates reads and writes over a Store and fans out change
// notifications to registered listeners.
type Service struct {
	store Store

	mu        sync.Mutex
	listeners []Listener
}

// NewService wraps a store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Subscribe registers a listener for behavior-affecting changes.
func (s *Service) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Load returns the full resolved snapshot with defaults applied.
func (s *Service) Load(ctx context.Context) (Settings, error) {
	raw, err := s.store.Get(ctx)
	if err != nil {
		return Settings{}, fmt.Errorf("settings: load: %w", err)
	}
	return decode(raw), nil
}

// Apply validates and merges a partial update, keeping the auto-reply cache
// flag and action mode consistent: enabling auto-reply switches the action to
// auto_reply, disabling it falls back to viewer mode (unless the same update
// sets the action explicitly). Returns the resolved snapshot after the write.
func (s *Service) Apply(ctx context.Context, u Update) (Settings, error) {
	before, err := s.Load(ctx)
	if err != nil {
		return Settings{}, err
	}

	partial := make(map[string]string)
	if u.Enabled != nil {
		partial[KeyEnabled] = strconv.FormatBool(*u.Enabled)
	}
	if u.Action != nil {
		if !ValidAction(*u.Action) {
			return Settings{}, fmt.Errorf("settings: unknown action mode %q", *u.Action)
		}
		partial[KeyAction] = *u.Action
	}
	if u.DelayMs != nil {
		if *u.DelayMs < 0 {
			return Settings{}, fmt.Errorf("settings: negative delay")
		}
		partial[KeyDelayMs] = strconv.Itoa(*u.DelayMs)
	}
	if u.BanReason != nil {
		partial[KeyBanReason] = *u.BanReason
	}
	if u.AutoReplyEnabled != nil {
		partial[KeyAutoReplyEnabled] = strconv.FormatBool(*u.AutoReplyEnabled)
		if u.Action == nil {
			if *u.AutoReplyEnabled {
				partial[KeyAction] = ActionAutoReply
			} else {
				partial[KeyAction] = ActionViewerMode
			}
		}
	}
	rulesChanged := false
	if u.AutoReplies != nil {
		rules, err := NormalizeRules(*u.AutoReplies)
		if err != nil {
			return Settings{}, err
		}
		encoded, err := encodeRules(rules)
		if err != nil {
			return Settings{}, err
		}
		partial[KeyAutoReplies] = encoded
		rulesChanged = true
	}

	if len(partial) == 0 {
		return before, nil
	}
	if err := s.store.Set(ctx, partial); err != nil {
		return Settings{}, fmt.Errorf("settings: save: %w", err)
	}

	after, err := s.Load(ctx)
	if err != nil {
		return Settings{}, err
	}
	s.notify(ctx, before, after, rulesChanged)
	return after, nil
}

// notify fans out change notifications; listener failures are swallowed.
func (s *Service) notify(ctx context.Context, before, after Settings, rulesChanged bool) {
	s.mu.Lock()
	ls := make([]Listener, len(s.listeners))
	copy(ls, s.listeners)
	s.mu.Unlock()

	toggled := before.AutoReplyActive() != after.AutoReplyActive()
	for _, l := range ls {
		if toggled {
			notifyIsolated(func() { l.AutoReplyToggled(ctx, after.AutoReplyActive()) })
		}
		if rulesChanged {
			notifyIsolated(func() { l.RulesUpdated(ctx) })
		}
	}
}

func notifyIsolated(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("settings: listener notification failed", slog.Any("panic", r))
		}
	}()
	fn()
}
