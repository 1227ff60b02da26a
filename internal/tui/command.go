package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/matheus3301/dmchat/internal/chat"
	"github.com/matheus3301/dmchat/internal/convstore"
	"github.com/matheus3301/dmchat/internal/search"
)

// Command represents a parsed command.
type Command struct {
	Name string
	Args string
}

// ParseCommand parses a command string (without the leading ':').
func ParseCommand(input string) Command {
	input = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(input), ":"))
	parts := strings.SplitN(input, " ", 2)
	cmd := Command{Name: strings.ToLower(parts[0])}
	if len(parts) > 1 {
		cmd.Args = strings.TrimSpace(parts[1])
	}
	return cmd
}

// Fields splits the arguments on whitespace.
func (c Command) Fields() []string {
	return strings.Fields(c.Args)
}

// ParseMode parses the argument of :mode.
func ParseMode(arg string) (convstore.FilterMode, error) {
	switch strings.ToLower(strings.TrimSpace(arg)) {
	case "", "all":
		return convstore.ModeAll, nil
	case "unread":
		return convstore.ModeUnread, nil
	case "saved":
		return convstore.ModeSaved, nil
	}
	return "", chat.Invalid("unknown mode %q (all, unread, saved)", arg)
}

// ParseSender parses the argument of :from.
func ParseSender(arg string) (convstore.SenderFilter, error) {
	switch strings.ToLower(strings.TrimSpace(arg)) {
	case "", "all", "any":
		return convstore.SenderAll, nil
	case "me", "mine":
		return convstore.SenderMe, nil
	case "them", "partner":
		return convstore.SenderPartner, nil
	}
	return "", chat.Invalid("unknown sender %q (all, me, them)", arg)
}

// ParseListFilter parses the argument of :list.
func ParseListFilter(arg string) (convstore.ListFilter, error) {
	switch strings.ToLower(strings.TrimSpace(arg)) {
	case "", "all":
		return convstore.ListAll, nil
	case "unread":
		return convstore.ListUnread, nil
	}
	return "", chat.Invalid("unknown list filter %q (all, unread)", arg)
}

// ParseDates parses the arguments of :dates. No argument clears the range;
// "-" leaves a bound open.
func ParseDates(args []string, loc *time.Location) (convstore.DateRange, error) {
	if len(args) > 2 {
		return convstore.DateRange{}, chat.Invalid("usage: :dates [start] [end]")
	}
	bound := func(i int) string {
		if i >= len(args) || args[i] == "-" {
			return ""
		}
		return args[i]
	}
	dr, err := search.ParseDateRange(bound(0), bound(1), loc)
	if err != nil {
		return convstore.DateRange{}, fmt.Errorf("dates: %w", err)
	}
	return dr, nil
}
