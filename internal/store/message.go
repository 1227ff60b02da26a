package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const messageColumns = `
	m.id, COALESCE(m.client_msg_id, ''), m.sender_id, m.receiver_id, m.content,
	m.timestamp, COALESCE(m.read_at, 0), m.recall_type, COALESCE(m.reply_to_id, 0),
	COALESCE(r.content, ''), COALESCE(r.sender_id, '')`

// InsertMessage stores a message and its attachments. A message whose
// ClientMsgID is already archived is not inserted twice; the existing id is
// returned instead.
func (db *DB) InsertMessage(m *Message) (int64, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if m.ClientMsgID != "" {
		var id int64
		err := tx.QueryRow(`SELECT id FROM messages WHERE client_msg_id = ?`, m.ClientMsgID).Scan(&id)
		if err == nil {
			return id, nil
		}
		if err != sql.ErrNoRows {
			return 0, fmt.Errorf("lookup client id: %w", err)
		}
	}
	if m.Timestamp == 0 {
		m.Timestamp = time.Now().UnixMilli()
	}

	res, err := tx.Exec(`
		INSERT INTO messages (client_msg_id, sender_id, receiver_id, content, timestamp, read_at, recall_type, reply_to_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		nullString(m.ClientMsgID), m.SenderID, m.ReceiverID, m.Content, m.Timestamp,
		nullInt(m.ReadAt), m.RecallType, nullInt(m.ReplyToID), time.Now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("insert message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	for i, a := range m.Attachments {
		typ := a.Type
		if typ == "" {
			typ = "image"
		}
		if _, err := tx.Exec(`
			INSERT INTO attachments (message_id, position, attachment_type, file_path, thumbnail_path, original_filename)
			VALUES (?, ?, ?, ?, ?, ?)`,
			id, i, typ, a.FilePath, a.ThumbnailPath, a.OriginalFilename); err != nil {
			return 0, fmt.Errorf("insert attachment %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	m.ID = id
	return id, nil
}

// GetMessage returns one message with attachments, or nil if unknown.
func (db *DB) GetMessage(id int64) (*Message, error) {
	rows, err := db.Query(`SELECT `+messageColumns+`
		FROM messages m LEFT JOIN messages r ON r.id = m.reply_to_id
		WHERE m.id = ?`, id)
	if err != nil {
		return nil, err
	}
	msgs, err := db.scanMessages(rows)
	if err != nil || len(msgs) == 0 {
		return nil, err
	}
	return &msgs[0], nil
}

// ListConversationMessages returns the messages exchanged by userID and
// partnerID, newest first, using offset pagination.
func (db *DB) ListConversationMessages(userID, partnerID string, limit, offset int) ([]Message, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := db.Query(`SELECT `+messageColumns+`
		FROM messages m LEFT JOIN messages r ON r.id = m.reply_to_id
		WHERE (m.sender_id = ? AND m.receiver_id = ?) OR (m.sender_id = ? AND m.receiver_id = ?)
		ORDER BY m.timestamp DESC, m.id DESC
		LIMIT ? OFFSET ?`, userID, partnerID, partnerID, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return db.scanMessages(rows)
}

// MarkConversationRead marks every message partnerID sent to userID as read.
// Returns the number of messages updated.
func (db *DB) MarkConversationRead(userID, partnerID string) (int64, error) {
	res, err := db.Exec(`
		UPDATE messages SET read_at = ?
		WHERE sender_id = ? AND receiver_id = ? AND read_at IS NULL`,
		time.Now().UnixMilli(), partnerID, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// RecallMessage withdraws a message sent by senderID. A soft recall only
// flags the row; a hard recall deletes it. Returns false if no message of that
// sender has the id.
func (db *DB) RecallMessage(id int64, senderID string, hard bool) (bool, error) {
	var res sql.Result
	var err error
	if hard {
		res, err = db.Exec(`DELETE FROM messages WHERE id = ? AND sender_id = ?`, id, senderID)
	} else {
		res, err = db.Exec(`UPDATE messages SET recall_type = 'soft' WHERE id = ? AND sender_id = ?`, id, senderID)
	}
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (db *DB) scanMessages(rows *sql.Rows) ([]Message, error) {
	defer func() { _ = rows.Close() }()

	var msgs []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ClientMsgID, &m.SenderID, &m.ReceiverID, &m.Content,
			&m.Timestamp, &m.ReadAt, &m.RecallType, &m.ReplyToID,
			&m.ReplyToText, &m.ReplyToSender); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	_ = rows.Close()
	if err := db.attachAll(msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// attachAll loads the attachments of msgs in one query.
func (db *DB) attachAll(msgs []Message) error {
	if len(msgs) == 0 {
		return nil
	}
	index := make(map[int64]int, len(msgs))
	args := make([]any, 0, len(msgs))
	for i, m := range msgs {
		index[m.ID] = i
		args = append(args, m.ID)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(args)), ",")
	rows, err := db.Query(`
		SELECT message_id, attachment_type, file_path, thumbnail_path, original_filename
		FROM attachments
		WHERE message_id IN (`+placeholders+`)
		ORDER BY message_id, position`, args...)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var id int64
		var a Attachment
		if err := rows.Scan(&id, &a.Type, &a.FilePath, &a.ThumbnailPath, &a.OriginalFilename); err != nil {
			return err
		}
		if i, ok := index[id]; ok {
			msgs[i].Attachments = append(msgs[i].Attachments, a)
		}
	}
	return rows.Err()
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt(v int64) any {
	if v == 0 {
		return nil
	}
	return v
}

// MaxMessageID returns the highest archived message id, or 0.
func (db *DB) MaxMessageID() (int64, error) {
	var id int64
	err := db.QueryRow(`SELECT COALESCE(MAX(id), 0) FROM messages`).Scan(&id)
	return id, err
}

// ListIncomingSince returns messages received by userID with an id above
// afterID, oldest first.
func (db *DB) ListIncomingSince(userID string, afterID int64, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.Query(`SELECT `+messageColumns+`
		FROM messages m LEFT JOIN messages r ON r.id = m.reply_to_id
		WHERE m.receiver_id = ? AND m.id > ?
		ORDER BY m.id ASC
		LIMIT ?`, userID, afterID, limit)
	if err != nil {
		return nil, err
	}
	return db.scanMessages(rows)
}
