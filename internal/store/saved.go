package store

import "time"

// SaveMessage adds a message to userID's saved list. Returns false if it was
// already saved.
func (db *DB) SaveMessage(userID string, messageID int64) (bool, error) {
	res, err := db.Exec(`
		INSERT INTO saved_messages (user_id, message_id, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id, message_id) DO NOTHING`,
		userID, messageID, time.Now().UnixMilli())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// UnsaveMessage removes a message from userID's saved list. Returns false if it
// was not saved.
func (db *DB) UnsaveMessage(userID string, messageID int64) (bool, error) {
	res, err := db.Exec(`DELETE FROM saved_messages WHERE user_id = ? AND message_id = ?`, userID, messageID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// SavedIDs returns the ids of saved messages in the conversation with
// partnerID, oldest first.
func (db *DB) SavedIDs(userID, partnerID string) ([]int64, error) {
	rows, err := db.Query(`
		SELECT s.message_id
		FROM saved_messages s
		JOIN messages m ON m.id = s.message_id
		WHERE s.user_id = ?
			AND ((m.sender_id = ? AND m.receiver_id = ?) OR (m.sender_id = ? AND m.receiver_id = ?))
		ORDER BY m.timestamp ASC, m.id ASC`,
		userID, userID, partnerID, partnerID, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
