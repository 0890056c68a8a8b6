package vim

import (
	"fmt"
	"strings"
	"unicode"
)

// CommandKind is the verb of a parsed command line.
type CommandKind int

const (
	CmdNoOp CommandKind = iota
	CmdUnknown
	CmdSession
	CmdUser
	CmdReboot
	CmdPoweroff
	CmdHelp
	CmdLogin
	CmdCancel
	CmdQuit
	CmdNext
	CmdBack
	CmdSkip
	CmdStart
	CmdApply
	CmdFinish
)

var commandNames = map[CommandKind]string{
	CmdNoOp:     "noop",
	CmdUnknown:  "unknown",
	CmdSession:  "session",
	CmdUser:     "user",
	CmdReboot:   "reboot",
	CmdPoweroff: "poweroff",
	CmdHelp:     "help",
	CmdLogin:    "login",
	CmdCancel:   "cancel",
	CmdQuit:     "quit",
	CmdNext:     "next",
	CmdBack:     "back",
	CmdSkip:     "skip",
	CmdStart:    "start",
	CmdApply:    "apply",
	CmdFinish:   "finish",
}

func (k CommandKind) String() string {
	if s, ok := commandNames[k]; ok {
		return s
	}
	return fmt.Sprintf("command(%d)", int(k))
}

// verbs maps every accepted spelling to its command. Verbs are matched
// exactly; "q" is the short form of login, not quit.
var verbs = map[string]CommandKind{
	"session":  CmdSession,
	"s":        CmdSession,
	"user":     CmdUser,
	"u":        CmdUser,
	"reboot":   CmdReboot,
	"rb":       CmdReboot,
	"poweroff": CmdPoweroff,
	"po":       CmdPoweroff,
	"shutdown": CmdPoweroff,
	"help":     CmdHelp,
	"h":        CmdHelp,
	"?":        CmdHelp,
	"q":        CmdLogin,
	"login":    CmdLogin,
	"l":        CmdLogin,
	"cancel":   CmdCancel,
	"c":        CmdCancel,
	"quit":     CmdQuit,
	"exit":     CmdQuit,
	"next":     CmdNext,
	"n":        CmdNext,
	"back":     CmdBack,
	"b":        CmdBack,
	"skip":     CmdSkip,
	"start":    CmdStart,
	"run":      CmdStart,
	"apply":    CmdApply,
	"submit":   CmdApply,
	"install":  CmdApply,
	"finish":   CmdFinish,
	"done":     CmdFinish,
}

// Command is a parsed command line. Arg holds the trimmed remainder after
// the verb; for CmdUnknown it holds the unrecognized verb.
type Command struct {
	Kind CommandKind
	Arg  string
}

func (c Command) String() string {
	if c.Arg == "" {
		return c.Kind.String()
	}
	return c.Kind.String() + " " + c.Arg
}

// ParseCommand parses the text typed after ":". A leading ":" is tolerated.
// Blank input is CmdNoOp and any unrecognized verb is CmdUnknown; parsing
// never fails.
func ParseCommand(line string) Command {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, ":")
	line = strings.TrimSpace(line)
	if line == "" {
		return Command{Kind: CmdNoOp}
	}

	verb, arg := line, ""
	if i := strings.IndexFunc(line, unicode.IsSpace); i >= 0 {
		verb, arg = line[:i], strings.TrimSpace(line[i:])
	}

	kind, ok := verbs[verb]
	if !ok {
		return Command{Kind: CmdUnknown, Arg: verb}
	}
	return Command{Kind: kind, Arg: arg}
}
