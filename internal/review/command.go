package review

import (
	"fmt"
	"strconv"
	"strings"
)

// Command is a review screen command.
type Command int

const (
	CmdNone Command = iota
	CmdNext
	CmdPrev
	CmdGoto
	CmdToggle
	CmdList
	CmdStats
	CmdExport
	CmdChart
	CmdHelp
	CmdQuit
)

// CommandFromWord maps the first word of an input line to a command.
func CommandFromWord(word string) Command {
	switch strings.ToLower(word) {
	case "next", "n":
		return CmdNext
	case "prev", "p":
		return CmdPrev
	case "goto", "g":
		return CmdGoto
	case "toggle", "t":
		return CmdToggle
	case "list", "l":
		return CmdList
	case "stats", "s":
		return CmdStats
	case "export", "e":
		return CmdExport
	case "chart", "c":
		return CmdChart
	case "help", "h", "?":
		return CmdHelp
	case "quit", "q", "exit":
		return CmdQuit
	default:
		return CmdNone
	}
}

// Input is a parsed input line.
type Input struct {
	Cmd  Command
	Args []string
}

// ParseInput splits line into a command and its arguments.
func ParseInput(line string) (Input, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Input{}, nil
	}
	cmd := CommandFromWord(fields[0])
	if cmd == CmdNone {
		return Input{}, fmt.Errorf("unknown command %q, type help for a list", fields[0])
	}
	return Input{Cmd: cmd, Args: fields[1:]}, nil
}

// intArg parses the i-th argument. ok is false when it is absent.
func (in Input) intArg(i int) (n int, ok bool, err error) {
	if i >= len(in.Args) {
		return 0, false, nil
	}
	n, err = strconv.Atoi(in.Args[i])
	if err != nil {
		return 0, true, fmt.Errorf("%q is not a number", in.Args[i])
	}
	return n, true, nil
}

// stringArg returns the i-th argument or def.
func (in Input) stringArg(i int, def string) string {
	if i >= len(in.Args) {
		return def
	}
	return in.Args[i]
}

const helpText = `Commands:
  next [n]        move the window forward by n sequences (default: one page)
  prev [n]        move the window back by n sequences
  goto N          show the window around sequence N
  toggle N        accept or reject the seizure event starting at sequence N
  list            list detected seizure events
  stats           show review statistics
  export [path]   write predictions and corrections as CSV
  chart [path]    render the current window as PNG
  help            show this help
  quit            leave the review`
