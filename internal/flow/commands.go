package flow

import "strings"

// Command identifies one slash-command.
type Command string

// The command table. Parsing is exact-match on the normalized token.
const (
	CmdMenu        Command = "menu"
	CmdProgress    Command = "progresso"
	CmdLanguage    Command = "idioma"
	CmdPersonalize Command = "personalizar"
	CmdStatus      Command = "status"
	CmdNextLesson  Command = "proxima"
	CmdLesson      Command = "aula"
	CmdHelp        Command = "ajuda"
	CmdVocabulary  Command = "vocabulario"
	CmdLevel       Command = "nivel"
	CmdStreak      Command = "streak"
)

var commandTable = map[string]Command{
	"/menu":         CmdMenu,
	"/progresso":    CmdProgress,
	"/idioma":       CmdLanguage,
	"/personalizar": CmdPersonalize,
	"/status":       CmdStatus,
	"/proxima":      CmdNextLesson,
	"/aula":         CmdLesson,
	"/ajuda":        CmdHelp,
	"/vocabulario":  CmdVocabulary,
	"/nivel":        CmdLevel,
	"/streak":       CmdStreak,
}

// testAllowedCommands may interrupt an active adaptive test for unpaid
// users. Everything else gets a test-progress reply instead.
var testAllowedCommands = map[Command]bool{
	CmdPersonalize: true,
	CmdStatus:      true,
	CmdHelp:        true,
}

// ParseCommand matches a message body against the command table. Diacritics
// and case are folded so "/Próxima" still matches.
func ParseCommand(body string) (Command, bool) {
	token := strings.TrimSpace(body)
	if !strings.HasPrefix(token, "/") {
		return "", false
	}
	if i := strings.IndexAny(token, " \t\n"); i > 0 {
		token = token[:i]
	}
	cmd, ok := commandTable["/"+Normalize(token)]
	return cmd, ok
}

// AllowedDuringTest reports whether the command may interrupt an active
// test for an unpaid user.
func AllowedDuringTest(cmd Command) bool { return testAllowedCommands[cmd] }
