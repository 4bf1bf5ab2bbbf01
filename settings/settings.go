// Package settings holds the operational configuration shared between the
// control surface and the enforcement side: the moderation action mode, the
// enabled flag, ban reason, action delay and the ordered auto-reply rule set.
// Values live in an external key-value store (redis in production) under the
// same flat keys the legacy extension used, so every setting is independently
// readable and writable with defaults applied for anything missing.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Recognized action modes.
const (
	ActionViewerMode = "viewer_mode"
	ActionHighlight  = "highlight"
	ActionDeleteUI   = "delete_ui"
	ActionBanUI      = "ban_ui"
	ActionAutoReply  = "auto_reply"
)

// Storage keys, kept compatible with the legacy sync-storage layout.
const (
	KeyEnabled          = "pfam_enabled"
	KeyAction           = "pfam_action"
	KeyDelayMs          = "pfam_delay_ms"
	KeyBanReason        = "pfam_ban_reason"
	KeyAutoReplies      = "pfam_auto_replies"
	KeyAutoReplyEnabled = "pfam_auto_reply_enabled"
)

// ErrEmptyRule is returned when a rule has an empty trigger or reply after
// trimming.
var ErrEmptyRule = errors.New("settings: auto-reply rule requires non-empty trigger and reply")

// AutoReplyRule maps a trigger pattern to a canned response. Rules are kept
// in match-priority order; first match wins on the enforcement side.
type AutoReplyRule struct {
	Trigger string `json:"trigger"`
	Reply   string `json:"reply"`
}

// Settings is the full resolved snapshot.
type Settings struct {
	Enabled          bool            `json:"enabled"`
	Action           string          `json:"action"`
	DelayMs          int             `json:"delay_ms"`
	BanReason        string          `json:"ban_reason"`
	AutoReplyEnabled bool            `json:"auto_reply_enabled"`
	AutoReplies      []AutoReplyRule `json:"auto_replies"`
}

// Defaults returns the settings applied when the store has never been
// written.
func Defaults() Settings {
	return Settings{
		Enabled:   true,
		Action:    ActionViewerMode,
		DelayMs:   200,
		BanReason: "Spam",
	}
}

// DefaultRules returns the example rule set offered by the control surface.
func DefaultRules() []AutoReplyRule {
	return []AutoReplyRule{
		{Trigger: "twitter", Reply: "@boudy_08"},
		{Trigger: "telegram", Reply: "Join our TG: t.me/yourchannel"},
		{Trigger: "how*buy", Reply: "You can buy on pump.fun or dexscreener"},
	}
}

// AutoReplyActive derives whether auto-reply enforcement is live. The stored
// flag is a cache; the action mode alone also activates it.
func (s Settings) AutoReplyActive() bool {
	return s.AutoReplyEnabled || s.Action == ActionAutoReply
}

// ValidAction reports whether mode is a recognized action mode.
func ValidAction(mode string) bool {
	switch mode {
	case ActionViewerMode, ActionHighlight, ActionDeleteUI, ActionBanUI, ActionAutoReply:
		return true
	}
	return false
}

// NormalizeRules trims rule fields and rejects any rule left empty. Order and
// duplicates are preserved.
func NormalizeRules(rules []AutoReplyRule) ([]AutoReplyRule, error) {
	out := make([]AutoReplyRule, 0, len(rules))
	for i, r := range rules {
		r.Trigger = strings.TrimSpace(r.Trigger)
		r.Reply = strings.TrimSpace(r.Reply)
		if r.Trigger == "" || r.Reply == "" {
			return nil, fmt.Errorf("rule %d: %w", i, ErrEmptyRule)
		}
		out = append(out, r)
	}
	return out, nil
}

// decode resolves a raw key-value snapshot into Settings, falling back to
// defaults for missing or unparseable values.
func decode(raw map[string]string) Settings {
	s := Defaults()
	if v, ok := raw[KeyEnabled]; ok {
		if b, err := strconv.ParseBool(v); err == nil {
			s.Enabled = b
		}
	}
	if v, ok := raw[KeyAction]; ok && ValidAction(v) {
		s.Action = v
	}
	if v, ok := raw[KeyDelayMs]; ok {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			s.DelayMs = n
		}
	}
	if v, ok := raw[KeyBanReason]; ok && v != "" {
		s.BanReason = v
	}
	if v, ok := raw[KeyAutoReplyEnabled]; ok {
		if b, err := strconv.ParseBool(v); err == nil {
			s.AutoReplyEnabled = b
		}
	}
	if v, ok := raw[KeyAutoReplies]; ok && v != "" {
		var rules []AutoReplyRule
		if err := json.Unmarshal([]byte(v), &rules); err == nil {
			s.AutoReplies = rules
		}
	}
	return s
}

// encodeRules serializes the rule list for storage.
func encodeRules(rules []AutoReplyRule) (string, error) {
	if rules == nil {
		rules = []AutoReplyRule{}
	}
	b, err := json.Marshal(rules)
	if err != nil {
		return "", fmt.Errorf("settings: encode rules: %w", err)
	}
	return string(b), nil
}
