package db_test

import (
	"context"
	"testing"

	"github.com/lolnuked/streamguard/db"
	"github.com/lolnuked/streamguard/testutil"
)

func TestMigrateIsIdempotent(t *testing.T) {
	d := testutil.SetupTestDB(t)
	// SetupTestDB already migrated once; a second run must be a no-op.
	if err := db.Migrate(context.Background(), d); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestKVRoundTrip(t *testing.T) {
	d := testutil.SetupTestDB(t)
	ctx := context.Background()

	got, err := db.GetKV(ctx, d, "cfg:test_missing")
	if err != nil {
		t.Fatalf("GetKV missing: %v", err)
	}
	if got != "" {
		t.Errorf("missing key = %q, want empty", got)
	}

	if err := db.SetKV(ctx, d, "cfg:test_key", "one"); err != nil {
		t.Fatalf("SetKV: %v", err)
	}
	if err := db.SetKV(ctx, d, "cfg:test_key", "two"); err != nil {
		t.Fatalf("SetKV upsert: %v", err)
	}
	got, err = db.GetKV(ctx, d, "cfg:test_key")
	if err != nil {
		t.Fatalf("GetKV: %v", err)
	}
	if got != "two" {
		t.Errorf("upserted value = %q, want two", got)
	}
}

func TestChatMessageUniqueness(t *testing.T) {
	d := testutil.SetupTestDB(t)
	ctx := context.Background()

	const insert = `INSERT INTO chat_messages (message_id, room_id, username, message, sent_at)
		VALUES ($1,$2,$3,$4,NOW()) ON CONFLICT (room_id, message_id) DO NOTHING`
	for i := 0; i < 2; i++ {
		if _, err := d.ExecContext(ctx, insert, "dup-1", "uniq-room", "u", "hello"); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}
	var n int
	if err := d.QueryRowContext(ctx, `SELECT COUNT(*) FROM chat_messages WHERE room_id=$1`, "uniq-room").Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("duplicate insert produced %d rows, want 1", n)
	}
}
