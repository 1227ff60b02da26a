package store

import (
	"database/sql"
	"fmt"
	"time"
)

// UpsertContact inserts or updates a contact.
func (db *DB) UpsertContact(c *Contact) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO contacts (user_id, name, avatar, is_deleted, online, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			name = CASE WHEN excluded.name != '' THEN excluded.name ELSE contacts.name END,
			avatar = CASE WHEN excluded.avatar != '' THEN excluded.avatar ELSE contacts.avatar END,
			is_deleted = excluded.is_deleted,
			online = excluded.online,
			updated_at = excluded.updated_at`,
		c.UserID, c.Name, c.Avatar, c.IsDeleted, c.Online, now)
	return err
}

// BulkUpsertContacts inserts or updates multiple contacts in a single transaction.
func (db *DB) BulkUpsertContacts(contacts []Contact) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UnixMilli()
	for _, c := range contacts {
		if _, err := tx.Exec(`
			INSERT INTO contacts (user_id, name, avatar, is_deleted, online, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(user_id) DO UPDATE SET
				name = excluded.name,
				avatar = excluded.avatar,
				is_deleted = excluded.is_deleted,
				online = excluded.online,
				updated_at = excluded.updated_at`,
			c.UserID, c.Name, c.Avatar, c.IsDeleted, c.Online, now); err != nil {
			return fmt.Errorf("upsert contact %q: %w", c.UserID, err)
		}
	}
	return tx.Commit()
}

// GetContact returns a contact by user id, or nil if unknown.
func (db *DB) GetContact(userID string) (*Contact, error) {
	var c Contact
	err := db.QueryRow(`SELECT user_id, name, avatar, is_deleted, online FROM contacts WHERE user_id = ?`, userID).
		Scan(&c.UserID, &c.Name, &c.Avatar, &c.IsDeleted, &c.Online)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// SetOnline records the presence of a contact.
func (db *DB) SetOnline(userID string, online bool) error {
	_, err := db.Exec(`UPDATE contacts SET online = ?, updated_at = ? WHERE user_id = ?`,
		online, time.Now().UnixMilli(), userID)
	return err
}

// ContactCount returns the total number of contacts.
func (db *DB) ContactCount() (int64, error) {
	var count int64
	err := db.QueryRow(`SELECT COUNT(*) FROM contacts`).Scan(&count)
	return count, err
}

// MessageCount returns the total number of messages.
func (db *DB) MessageCount() (int64, error) {
	var count int64
	err := db.QueryRow(`SELECT COUNT(*) FROM messages`).Scan(&count)
	return count, err
}

// Presence returns the online flag of every contact, keyed by user id.
func (db *DB) Presence() (map[string]bool, error) {
	rows, err := db.Query(`SELECT user_id, online FROM contacts`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]bool)
	for rows.Next() {
		var id string
		var online bool
		if err := rows.Scan(&id, &online); err != nil {
			return nil, err
		}
		out[id] = online
	}
	return out, rows.Err()
}
