package settings

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
)

func boolPtr(b bool) *bool { return &b }

func strPtr(s string) *string { return &s }

func intPtr(n int) *int { return &n }

func rulesPtr(r []AutoReplyRule) *[]AutoReplyRule { return &r }

type recordingListener struct {
	mu      sync.Mutex
	toggles []bool
	rules   int
}

func (l *recordingListener) AutoReplyToggled(ctx context.Context, enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.toggles = append(l.toggles, enabled)
}

func (l *recordingListener) RulesUpdated(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rules++
}

func (l *recordingListener) snapshot() ([]bool, int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]bool(nil), l.toggles...), l.rules
}

type panicListener struct{}

func (panicListener) AutoReplyToggled(context.Context, bool) { panic("toggle boom") }

func (panicListener) RulesUpdated(context.Context) { panic("rules boom") }

func TestLoadEmptyStoreReturnsDefaults(t *testing.T) {
	svc := NewService(NewMemStore())
	got, err := svc.Load(context.Background())
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if !reflect.DeepEqual(got, Settings{Enabled: true, Action: ActionViewerMode, DelayMs: 200, BanReason: "Spam"}) {
		t.Errorf("Load on empty store = %+v", got)
	}
}

func TestApplyPartialMerge(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemStore())

	if _, err := svc.Apply(ctx, Update{BanReason: strPtr("Bot"), DelayMs: intPtr(500)}); err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	// second write touches only the action; earlier keys survive
	after, err := svc.Apply(ctx, Update{Action: strPtr(ActionHighlight)})
	if err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	if after.BanReason != "Bot" || after.DelayMs != 500 || after.Action != ActionHighlight {
		t.Errorf("merged settings = %+v", after)
	}
	if !after.Enabled {
		t.Error("untouched enabled flag lost its default")
	}
}

func TestApplyRejectsInvalidValues(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemStore())

	if _, err := svc.Apply(ctx, Update{Action: strPtr("nuke")}); err == nil {
		t.Error("unknown action accepted")
	}
	if _, err := svc.Apply(ctx, Update{DelayMs: intPtr(-1)}); err == nil {
		t.Error("negative delay accepted")
	}
	_, err := svc.Apply(ctx, Update{AutoReplies: rulesPtr([]AutoReplyRule{{Trigger: " ", Reply: "x"}})})
	if !errors.Is(err, ErrEmptyRule) {
		t.Errorf("empty rule error = %v, want ErrEmptyRule", err)
	}
}

func TestApplyEmptyUpdateIsNoop(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	svc := NewService(store)

	got, err := svc.Apply(ctx, Update{})
	if err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	if !reflect.DeepEqual(got, Defaults()) {
		t.Errorf("empty update result = %+v", got)
	}
	raw, _ := store.Get(ctx)
	if len(raw) != 0 {
		t.Errorf("empty update wrote keys: %v", raw)
	}
}

func TestToggleCouplesActionMode(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemStore())

	after, err := svc.Apply(ctx, Update{AutoReplyEnabled: boolPtr(true)})
	if err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	if after.Action != ActionAutoReply || !after.AutoReplyActive() {
		t.Errorf("after enable = %+v", after)
	}

	after, err = svc.Apply(ctx, Update{AutoReplyEnabled: boolPtr(false)})
	if err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	if after.Action != ActionViewerMode || after.AutoReplyActive() {
		t.Errorf("after disable = %+v", after)
	}
}

func TestExplicitActionWinsOverToggleCoupling(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemStore())

	after, err := svc.Apply(ctx, Update{AutoReplyEnabled: boolPtr(false), Action: strPtr(ActionBanUI)})
	if err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	if after.Action != ActionBanUI {
		t.Errorf("explicit action overridden: %+v", after)
	}
}

func TestListenersNotifiedOnActivationChange(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemStore())
	l := &recordingListener{}
	svc.Subscribe(l)

	if _, err := svc.Apply(ctx, Update{AutoReplyEnabled: boolPtr(true)}); err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	toggles, _ := l.snapshot()
	if len(toggles) != 1 || !toggles[0] {
		t.Fatalf("toggles after enable = %v, want [true]", toggles)
	}

	// unrelated write, activation unchanged
	if _, err := svc.Apply(ctx, Update{BanReason: strPtr("Bot")}); err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	toggles, _ = l.snapshot()
	if len(toggles) != 1 {
		t.Errorf("unrelated write fired toggle: %v", toggles)
	}

	if _, err := svc.Apply(ctx, Update{AutoReplyEnabled: boolPtr(false)}); err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	toggles, _ = l.snapshot()
	if len(toggles) != 2 || toggles[1] {
		t.Errorf("toggles after disable = %v, want [true false]", toggles)
	}
}

func TestListenersNotifiedOnRuleChange(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemStore())
	l := &recordingListener{}
	svc.Subscribe(l)

	if _, err := svc.Apply(ctx, Update{AutoReplies: rulesPtr(DefaultRules())}); err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	_, rules := l.snapshot()
	if rules != 1 {
		t.Errorf("rule notifications = %d, want 1", rules)
	}
}

func TestPanickingListenerIsIsolated(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemStore())
	svc.Subscribe(panicListener{})
	l := &recordingListener{}
	svc.Subscribe(l)

	if _, err := svc.Apply(ctx, Update{AutoReplyEnabled: boolPtr(true), AutoReplies: rulesPtr(DefaultRules())}); err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	toggles, rules := l.snapshot()
	if len(toggles) != 1 || rules != 1 {
		t.Errorf("listener after panicking peer: toggles=%v rules=%d", toggles, rules)
	}
}

func TestApplyStoresLegacyKeys(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	svc := NewService(store)

	if _, err := svc.Apply(ctx, Update{AutoReplies: rulesPtr([]AutoReplyRule{{Trigger: "twitter", Reply: "@handle"}})}); err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	raw, _ := store.Get(ctx)
	if !strings.Contains(raw[KeyAutoReplies], `"trigger":"twitter"`) {
		t.Errorf("stored rules = %q", raw[KeyAutoReplies])
	}
}
