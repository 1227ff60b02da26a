// Package search filters a conversation's loaded messages by sender, date
// range and free text, caching results per composite key with incremental
// "view more" pagination.
package search

import (
	"sort"
	"strings"

	"github.com/matheus3301/dmchat/internal/chat"
	"github.com/matheus3301/dmchat/internal/convstore"
)

// MessagesPerLoad is the default number of results materialized per page.
const MessagesPerLoad = 20

// Criteria are the refinements applied to a conversation's messages.
type Criteria struct {
	SelfID string
	Sender convstore.SenderFilter
	Range  convstore.DateRange
	Query  string
}

// NormalizeQuery trims and lowercases a free-text query.
func NormalizeQuery(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}

// KeyFor builds the cache key of a selection in a conversation.
func KeyFor(conversationID string, sel convstore.Selection) convstore.SearchKey {
	k := convstore.SearchKey{
		ConversationID: conversationID,
		Sender:         sel.Sender,
		Query:          NormalizeQuery(sel.Query),
	}
	if !sel.DateRange.Start.IsZero() {
		k.Start = sel.DateRange.Start.UnixMilli()
	}
	if !sel.DateRange.End.IsZero() {
		k.End = sel.DateRange.End.UnixMilli()
	}
	return k
}

// Filter returns the messages matching c, sorted by timestamp ascending.
// System messages never match. The input slice is not modified.
func Filter(msgs []*chat.Message, c Criteria) []*chat.Message {
	q := NormalizeQuery(c.Query)
	out := make([]*chat.Message, 0, len(msgs))
	for _, m := range msgs {
		if m == nil || m.System {
			continue
		}
		switch c.Sender {
		case convstore.SenderMe:
			if m.SenderID != c.SelfID {
				continue
			}
		case convstore.SenderPartner:
			if m.SenderID == c.SelfID {
				continue
			}
		}
		if !c.Range.Contains(m.Timestamp) {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(m.Content), q) {
			continue
		}
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}
