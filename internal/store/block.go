package store

import "time"

// Block records that blockerID blocked blockedID.
func (db *DB) Block(blockerID, blockedID string) error {
	_, err := db.Exec(`
		INSERT INTO blocks (blocker_id, blocked_id, created_at) VALUES (?, ?, ?)
		ON CONFLICT(blocker_id, blocked_id) DO NOTHING`,
		blockerID, blockedID, time.Now().UnixMilli())
	return err
}

// Unblock removes a block.
func (db *DB) Unblock(blockerID, blockedID string) error {
	_, err := db.Exec(`DELETE FROM blocks WHERE blocker_id = ? AND blocked_id = ?`, blockerID, blockedID)
	return err
}

// IsBlocked reports whether either user blocked the other.
func (db *DB) IsBlocked(userID, partnerID string) (bool, error) {
	var n int
	err := db.QueryRow(`
		SELECT COUNT(*) FROM blocks
		WHERE (blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)`,
		userID, partnerID, partnerID, userID).Scan(&n)
	return n > 0, err
}
