package store

import "fmt"

// ListConversations returns every partner userID has exchanged messages with,
// sorted by last message timestamp descending. Names fall back to the user id.
func (db *DB) ListConversations(userID string, limit, offset int) ([]Conversation, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.Query(`
		WITH pairs AS (
			SELECT CASE WHEN sender_id = ?1 THEN receiver_id ELSE sender_id END AS partner_id,
				timestamp,
				CASE WHEN receiver_id = ?1 AND read_at IS NULL THEN 1 ELSE 0 END AS unread
			FROM messages
			WHERE sender_id = ?1 OR receiver_id = ?1
		)
		SELECT p.partner_id,
			COALESCE(NULLIF(c.name, ''), p.partner_id) AS display_name,
			COALESCE(c.avatar, ''), COALESCE(c.is_deleted, 0), COALESCE(c.online, 0),
			SUM(p.unread), MAX(p.timestamp), COUNT(*)
		FROM pairs p
		LEFT JOIN contacts c ON c.user_id = p.partner_id
		WHERE p.partner_id != ?1
		GROUP BY p.partner_id
		ORDER BY MAX(p.timestamp) DESC
		LIMIT ?2 OFFSET ?3`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var convs []Conversation
	for rows.Next() {
		var c Conversation
		if err := rows.Scan(&c.UserID, &c.Name, &c.Avatar, &c.IsDeleted, &c.Online,
			&c.UnreadCount, &c.LastMessageAt, &c.MessageCount); err != nil {
			return nil, err
		}
		convs = append(convs, c)
	}
	return convs, rows.Err()
}

// ClearConversation deletes every message exchanged by userID and partnerID.
// Attachments and saved markers go with them. Returns the number of messages
// removed.
func (db *DB) ClearConversation(userID, partnerID string) (int64, error) {
	res, err := db.Exec(`
		DELETE FROM messages
		WHERE (sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)`,
		userID, partnerID, partnerID, userID)
	if err != nil {
		return 0, fmt.Errorf("delete messages: %w", err)
	}
	return res.RowsAffected()
}
