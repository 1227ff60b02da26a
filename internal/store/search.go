package store

import "strings"

// SearchMessages performs a case-insensitive substring search on the messages
// userID exchanged, optionally restricted to one partner, newest first.
func (db *DB) SearchMessages(userID, query, partnerID string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 50
	}
	query = strings.TrimSpace(query)

	q := `SELECT ` + messageColumns + `
		FROM messages m LEFT JOIN messages r ON r.id = m.reply_to_id
		WHERE (m.sender_id = ? OR m.receiver_id = ?)
			AND instr(lower(m.content), lower(?)) > 0`
	args := []any{userID, userID, query}
	if partnerID != "" {
		q += " AND (m.sender_id = ? OR m.receiver_id = ?)"
		args = append(args, partnerID, partnerID)
	}
	q += " ORDER BY m.timestamp DESC, m.id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	msgs, err := db.scanMessages(rows)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(msgs))
	for _, m := range msgs {
		results = append(results, SearchResult{Message: m, Snippet: snippet(m.Content, query, 32)})
	}
	return results, nil
}

// snippet returns up to width runes of text around the first match of query,
// with the match wrapped in << >>.
func snippet(text, query string, width int) string {
	runes := []rune(text)
	lower := []rune(strings.ToLower(text))
	if len(lower) != len(runes) {
		lower = runes
	}
	q := []rune(strings.ToLower(query))
	at := indexRunes(lower, q)
	if at < 0 || len(q) == 0 {
		if len(runes) > width {
			return string(runes[:width]) + "..."
		}
		return text
	}
	start := max(at-width/2, 0)
	end := min(at+len(q)+width/2, len(runes))

	var b strings.Builder
	if start > 0 {
		b.WriteString("...")
	}
	b.WriteString(string(runes[start:at]))
	b.WriteString("<<")
	b.WriteString(string(runes[at : at+len(q)]))
	b.WriteString(">>")
	b.WriteString(string(runes[at+len(q) : end]))
	if end < len(runes) {
		b.WriteString("...")
	}
	return b.String()
}

func indexRunes(s, sub []rune) int {
	if len(sub) == 0 {
		return 0
	}
outer:
	for i := 0; i+len(sub) <= len(s); i++ {
		for j := range sub {
			if s[i+j] != sub[j] {
				continue outer
			}
		}
		return i
	}
	return -1
}
