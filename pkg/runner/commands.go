package runner

import (
	"strconv"
	"strings"

	"github.com/aretw0/chatsim/pkg/domain"
)

// InputKind classifies a typed line.
type InputKind int

const (
	InputText InputKind = iota
	InputPress
	InputClick
	InputSimulate
	InputReturn
	InputAppFirst
	InputHelp
	InputQuit
)

// Input is a decoded terminal line.
type Input struct {
	Kind  InputKind
	Value string
	Index int
	IDs   []string
}

// ParseLine decodes one line typed by the user.
func ParseLine(line string) Input {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "/") {
		return Input{Kind: InputText, Value: line}
	}

	cmd, arg, _ := strings.Cut(trimmed[1:], " ")
	arg = strings.TrimSpace(arg)

	if n, err := strconv.Atoi(cmd); err == nil && arg == "" {
		return Input{Kind: InputPress, Index: n}
	}

	switch strings.ToLower(cmd) {
	case "quit", "exit", "q":
		return Input{Kind: InputQuit}
	case "help", "?":
		return Input{Kind: InputHelp}
	case "appfirst":
		return Input{Kind: InputAppFirst}
	case "click":
		if arg != "" {
			return Input{Kind: InputClick, Value: arg}
		}
	case "simulate":
		if arg != "" {
			return Input{Kind: InputSimulate, Value: arg}
		}
	case "return":
		if ids := domain.SplitList(arg); len(ids) > 0 {
			return Input{Kind: InputReturn, IDs: ids}
		}
	default:
		return Input{Kind: InputText, Value: line}
	}
	return Input{Kind: InputHelp}
}

const usage = `Commands:
  /<n>            press button n
  /click <action> dispatch a raw action
  /simulate <id>  connect an integration locally
  /return <ids>   report an external return (comma-separated)
  /appfirst       try the app-first flow instead
  /quit           leave
`
