package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/matheus3301/dmchat/internal/lock"
	"github.com/matheus3301/dmchat/internal/session"
	"github.com/matheus3301/dmchat/internal/store"
)

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	jsonFlag := flag.Bool("json", false, "output in JSON format")
	flag.Parse()

	resolved, err := session.Resolve(*profileFlag)
	if err != nil {
		fail(err)
	}
	profile := resolved.Name

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	if err := session.EnsureDir(profile); err != nil {
		fail(err)
	}
	db, err := store.OpenArchive(session.ArchivePath(profile))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: cannot open archive for profile %q: %v\n", profile, err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	self := resolved.Config.UserID
	switch args[0] {
	case "status":
		cmdStatus(db, profile, *jsonFlag)
	case "seed":
		cmdSeed(db, self)
	case "conversations":
		cmdConversations(db, self, *jsonFlag)
	case "messages":
		need(args, 2, "dmctl messages <partner>")
		cmdMessages(db, self, args[1], *jsonFlag)
	case "search":
		need(args, 2, "dmctl search <query>")
		cmdSearch(db, self, strings.Join(args[1:], " "), *jsonFlag)
	case "send":
		need(args, 3, "dmctl send <partner> <text>")
		cmdSend(db, self, args[1], strings.Join(args[2:], " "), *jsonFlag)
	case "presence":
		need(args, 3, "dmctl presence <partner> <on|off>")
		cmdPresence(db, args[1], args[2])
	case "block", "unblock":
		need(args, 2, "dmctl "+args[0]+" <partner>")
		cmdBlock(db, self, args[1], args[0] == "block")
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: dmctl [--profile <name>] [--json] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  status                    Show archive status")
	fmt.Fprintln(os.Stderr, "  seed                      Load demo contacts and messages")
	fmt.Fprintln(os.Stderr, "  conversations             List conversations")
	fmt.Fprintln(os.Stderr, "  messages <partner>        Show the latest messages with partner")
	fmt.Fprintln(os.Stderr, "  search <query>            Search the whole archive")
	fmt.Fprintln(os.Stderr, "  send <partner> <text>     Deliver a message from partner to you")
	fmt.Fprintln(os.Stderr, "  presence <partner> on|off Set a partner's online flag")
	fmt.Fprintln(os.Stderr, "  block|unblock <partner>   Block or unblock a partner")
}

type statusInfo struct {
	Profile       string `json:"profile"`
	Archive       string `json:"archive"`
	SchemaVersion uint   `json:"schema_version"`
	Contacts      int64  `json:"contacts"`
	Messages      int64  `json:"messages"`
	HolderPID     int    `json:"holder_pid,omitempty"`
}

func cmdStatus(db *store.DB, profile string, jsonOut bool) {
	info := statusInfo{
		Profile:   profile,
		Archive:   session.ArchivePath(profile),
		HolderPID: lock.Holder(session.Dir(profile)),
	}
	var err error
	if info.SchemaVersion, err = db.SchemaVersion(); err != nil {
		fail(err)
	}
	if info.Contacts, err = db.ContactCount(); err != nil {
		fail(err)
	}
	if info.Messages, err = db.MessageCount(); err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(info)
		return
	}
	fmt.Printf("Profile:  %s\n", info.Profile)
	fmt.Printf("Archive:  %s (schema v%d)\n", info.Archive, info.SchemaVersion)
	fmt.Printf("Contacts: %d\n", info.Contacts)
	fmt.Printf("Messages: %d\n", info.Messages)
	if info.HolderPID > 0 {
		fmt.Printf("In use by dmtui (pid %d)\n", info.HolderPID)
	}
}

func cmdSeed(db *store.DB, self string) {
	n, err := db.SeedDemo(self, time.Now())
	if err != nil {
		fail(err)
	}
	fmt.Printf("Seeded %d messages.\n", n)
}

func cmdConversations(db *store.DB, self string, jsonOut bool) {
	convs, err := db.ListConversations(self, 100, 0)
	if err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(convs)
		return
	}
	if len(convs) == 0 {
		fmt.Println("No conversations found.")
		return
	}
	for _, c := range convs {
		name := c.Name
		if c.IsDeleted {
			name += " (deactivated)"
		}
		fmt.Printf("%-8s %-28s %3d unread  %s\n", c.UserID, name, c.UnreadCount, formatMillis(c.LastMessageAt))
	}
}

func cmdMessages(db *store.DB, self, partner string, jsonOut bool) {
	msgs, err := db.ListConversationMessages(self, partner, 20, 0)
	if err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(msgs)
		return
	}
	for _, m := range msgs {
		who := m.SenderID
		if who == self {
			who = "you"
		}
		text := m.Content
		if m.RecallType != "" {
			text = "(recalled)"
		} else if len(m.Attachments) > 0 && text == "" {
			text = fmt.Sprintf("[%d attachment(s)]", len(m.Attachments))
		}
		fmt.Printf("#%-6d %s %-6s %s\n", m.ID, formatMillis(m.Timestamp), who, text)
	}
}

func cmdSearch(db *store.DB, self, query string, jsonOut bool) {
	results, err := db.SearchMessages(self, query, "", 50)
	if err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(results)
		return
	}
	if len(results) == 0 {
		fmt.Println("No matches.")
		return
	}
	for _, r := range results {
		partner := r.Message.SenderID
		if partner == self {
			partner = r.Message.ReceiverID
		}
		fmt.Printf("%-8s #%-6d %s\n", partner, r.Message.ID, r.Snippet)
	}
}

// cmdSend archives a message as if partner had sent it. A running dmtui
// picks it up as a realtime push.
func cmdSend(db *store.DB, self, partner, text string, jsonOut bool) {
	m := &store.Message{
		ClientMsgID: uuid.NewString(),
		SenderID:    partner,
		ReceiverID:  self,
		Content:     text,
		Timestamp:   time.Now().UnixMilli(),
	}
	id, err := db.InsertMessage(m)
	if err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(m)
		return
	}
	fmt.Printf("Delivered message #%d from %s.\n", id, partner)
}

func cmdPresence(db *store.DB, partner, state string) {
	var online bool
	switch state {
	case "on":
		online = true
	case "off":
	default:
		fail(fmt.Errorf("presence must be on or off, got %q", state))
	}
	if err := db.SetOnline(partner, online); err != nil {
		fail(err)
	}
	fmt.Printf("%s is now %s.\n", partner, state)
}

func cmdBlock(db *store.DB, self, partner string, block bool) {
	var err error
	if block {
		err = db.Block(self, partner)
	} else {
		err = db.Unblock(self, partner)
	}
	if err != nil {
		fail(err)
	}
	fmt.Println("OK")
}

func need(args []string, n int, usage string) {
	if len(args) < n {
		fmt.Fprintf(os.Stderr, "usage: %s\n", usage)
		os.Exit(1)
	}
}

func formatMillis(ms int64) string {
	if ms == 0 {
		return "-"
	}
	return time.UnixMilli(ms).Format("2006-01-02 15:04")
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

func outputJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "json encode error: %v\n", err)
	}
}
