package navigator

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"obex-browser/internal/listing"
)

// ActionKind is the decision taken for one line of user input.
type ActionKind int

const (
	Invalid ActionKind = iota
	Quit
	GoUp
	Descend
	DownloadFile
)

func (k ActionKind) String() string {
	switch k {
	case Quit:
		return "quit"
	case GoUp:
		return "up"
	case Descend:
		return "descend"
	case DownloadFile:
		return "download"
	default:
		return "invalid"
	}
}

const (
	quitInput = "exit"
	upInput   = ".."
)

// Action is the result of ApplyChoice. Path is the remote path the action
// targets: the new folder for GoUp and Descend, the object for DownloadFile.
type Action struct {
	Kind   ActionKind
	Name   string
	Path   string
	Reason string
}

// State is the navigator's position on the remote device. The root is "".
type State struct {
	Path string
}

// Apply returns the state after a. Only GoUp and Descend move.
func (s State) Apply(a Action) State {
	switch a.Kind {
	case GoUp, Descend:
		return State{Path: a.Path}
	default:
		return s
	}
}

// ApplyChoice maps one input line to an Action. It never changes s; an
// Invalid action carries a reason suitable for showing to the user.
func (s State) ApplyChoice(entries []listing.Entry, input string) Action {
	input = strings.TrimSpace(input)
	switch input {
	case quitInput:
		return Action{Kind: Quit}
	case upInput:
		return Action{Kind: GoUp, Path: Parent(s.Path)}
	case "":
		return Action{Kind: Invalid, Reason: "empty input"}
	}

	if !isDigits(input) {
		return Action{Kind: Invalid, Reason: fmt.Sprintf("%q is not a number", input)}
	}
	n, err := strconv.Atoi(input)
	if err != nil || n < 1 || n > len(entries) {
		return Action{Kind: Invalid, Reason: fmt.Sprintf("choose a number between 1 and %d", len(entries))}
	}

	e := entries[n-1]
	a := Action{Kind: DownloadFile, Name: e.Name, Path: Join(s.Path, e.Name)}
	if e.IsDir() {
		a.Kind = Descend
	}
	return a
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

// Join appends name to dir with POSIX semantics; Join("", name) is name.
func Join(dir, name string) string {
	return path.Join(dir, name)
}

// Parent returns the folder containing p. The parent of the root is the root.
func Parent(p string) string {
	p = strings.TrimRight(p, "/")
	if p == "" {
		return ""
	}
	switch dir := path.Dir(p); dir {
	case ".", "/":
		return ""
	default:
		return dir
	}
}
