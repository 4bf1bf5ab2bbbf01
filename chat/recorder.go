package chat

import (
	"context"
	"database/sql"
	"log/slog"
)

// StartRecorder archives every inbound message into the chat_messages table.
// Insert failures are logged and skipped; archival must never disturb the
// client's dispatch loop.
func StartRecorder(ctx context.Context, db *sql.DB, client *Client) {
	client.On(EventMessage, func(ev Event) {
		m := ev.Message
		if m == nil {
			return
		}
		_, err := db.ExecContext(ctx, `INSERT INTO chat_messages (message_id, room_id, username, user_address, message, profile_image, message_type, sent_at, expires_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) ON CONFLICT (room_id, message_id) DO NOTHING`,
			m.ID, m.RoomID, m.Username, m.UserAddress, m.Message, m.ProfileImage, m.MessageType, m.Timestamp, m.ExpiresAt)
		if err != nil {
			slog.Error("recorder: failed to insert chat message", slog.Any("err", err))
		}
	})
	client.On(EventMessageHistory, func(ev Event) {
		for i := range ev.History {
			m := ev.History[i]
			_, err := db.ExecContext(ctx, `INSERT INTO chat_messages (message_id, room_id, username, user_address, message, profile_image, message_type, sent_at, expires_at)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) ON CONFLICT (room_id, message_id) DO NOTHING`,
				m.ID, m.RoomID, m.Username, m.UserAddress, m.Message, m.ProfileImage, m.MessageType, m.Timestamp, m.ExpiresAt)
			if err != nil {
				slog.Error("recorder: failed to insert history message", slog.Any("err", err))
				return
			}
		}
	})
	slog.Info("recorder: archiving chat messages")
}
