package dialogue

import (
	"strings"
	"unicode"
)

type commandKind int

const (
	cmdCorrect commandKind = iota + 1
	cmdConfirm
)

type command struct {
	kind  commandKind
	field string
	value string
}

var (
	correctPrefixes = []string{"修改", "更正", "correct", "/correct"}
	confirmWords    = []string{"確認", "確認提交", "確定", "沒錯", "confirm", "override", "/confirm"}
	pairSeparators  = []string{"：", ":", "=", "→", "->"}
)

// parseCommand recognises the deterministic commands that bypass extraction:
// "修改 <欄位> <值>" or "correct <field> <value>", and a bare "確認" / "confirm".
func parseCommand(text string) (command, bool) {
	text = strings.TrimSpace(text)
	lower := strings.ToLower(text)
	for _, w := range confirmWords {
		if lower == w {
			return command{kind: cmdConfirm}, true
		}
	}

	for _, p := range correctPrefixes {
		if !strings.HasPrefix(lower, p) {
			continue
		}
		rest := text[len(p):]
		if rest != "" {
			r := []rune(rest)[0]
			if !unicode.IsSpace(r) && r != ':' && r != '：' {
				continue
			}
		}
		rest = strings.TrimLeft(rest, " \t　:：")
		field, value := splitCorrection(rest)
		return command{kind: cmdCorrect, field: field, value: value}, true
	}
	return command{}, false
}

func splitCorrection(s string) (string, string) {
	s = strings.TrimSpace(s)
	at, width := strings.IndexFunc(s, unicode.IsSpace), 1
	if at >= 0 {
		width = len(string([]rune(s[at:])[0]))
	}
	for _, sep := range pairSeparators {
		if i := strings.Index(s, sep); i > 0 && (at < 0 || i < at) {
			at, width = i, len(sep)
		}
	}
	if at < 0 {
		return s, ""
	}
	return strings.TrimSpace(s[:at]), strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(s[at+width:]), ":：="))
}
