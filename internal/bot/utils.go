package bot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lithammer/dedent"
)

func formatReplyText(text string, a ...any) string {
	return fmt.Sprintf(strings.TrimSpace(dedent.Dedent(text)), a...)
}

// parseCommand splits "/cmd@bot arg1 arg2" into "cmd" and its arguments.
func parseCommand(s string) (string, []string) {
	parts := strings.Fields(s)
	if len(parts) == 0 {
		return "", nil
	}
	name := strings.TrimPrefix(parts[0], "/")
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name = name[:i]
	}
	return strings.ToLower(name), parts[1:]
}

// commandText returns everything after the command word, keeping newlines.
func commandText(s string) string {
	s = strings.TrimSpace(s)
	i := strings.IndexAny(s, " \n\t")
	if i < 0 {
		return ""
	}
	return strings.TrimSpace(s[i:])
}

func parseChannelID(s string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return id, err == nil && id != 0
}

func orEmpty(s string) string {
	if s == "" {
		return MsgFieldEmpty
	}
	return s
}
