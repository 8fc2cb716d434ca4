// Package protocol implements the line codec for the package index wire
// protocol. A request is a single newline-terminated line of the form
//
//	<COMMAND>|<name>|<deps>
//
// where COMMAND is INDEX, REMOVE or QUERY (uppercase only), name is a
// non-empty token with no whitespace, and deps is an optional comma-separated
// list of tokens. The codec is pure: it performs no I/O.
package protocol

import (
	"errors"
	"fmt"
	"strings"
)

// Command identifies one of the three wire commands.
type Command string

const (
	CmdIndex  Command = "INDEX"
	CmdRemove Command = "REMOVE"
	CmdQuery  Command = "QUERY"
)

// Response is one of the three wire response codes.
type Response string

const (
	RespOK    Response = "OK"
	RespFail  Response = "FAIL"
	RespError Response = "ERROR"
)

// Line returns the response as a newline-terminated wire line.
func (r Response) Line() []byte {
	return []byte(string(r) + "\n")
}

// FromResult maps a store operation result onto a wire response.
func FromResult(ok bool) Response {
	if ok {
		return RespOK
	}
	return RespFail
}

// Request is a parsed wire command.
type Request struct {
	Command Command
	Name    string
	Deps    []string
}

// ErrMalformed is wrapped by every parse failure.
var ErrMalformed = errors.New("malformed request")

const whitespace = " \t\r\n\v\f"

// Parse decodes a single request line. The line terminator must already be
// stripped by the caller. Any failure wraps ErrMalformed and maps to an
// ERROR response.
func Parse(line string) (Request, error) {
	fields := strings.Split(line, "|")
	if len(fields) != 3 {
		return Request{}, fmt.Errorf("%w: want 2 separators, got %d", ErrMalformed, len(fields)-1)
	}

	cmd := Command(fields[0])
	switch cmd {
	case CmdIndex, CmdRemove, CmdQuery:
	default:
		return Request{}, fmt.Errorf("%w: unknown command %q", ErrMalformed, fields[0])
	}

	name := fields[1]
	if name == "" {
		return Request{}, fmt.Errorf("%w: empty package name", ErrMalformed)
	}
	if strings.ContainsAny(name, whitespace) {
		return Request{}, fmt.Errorf("%w: whitespace in package name %q", ErrMalformed, name)
	}

	rawDeps := fields[2]
	if rawDeps == "" {
		return Request{Command: cmd, Name: name}, nil
	}
	if cmd != CmdIndex {
		return Request{}, fmt.Errorf("%w: %s does not take dependencies", ErrMalformed, cmd)
	}

	deps := strings.Split(rawDeps, ",")
	for _, d := range deps {
		if d == "" {
			return Request{}, fmt.Errorf("%w: empty dependency name", ErrMalformed)
		}
		if strings.ContainsAny(d, whitespace) {
			return Request{}, fmt.Errorf("%w: whitespace in dependency %q", ErrMalformed, d)
		}
	}

	return Request{Command: cmd, Name: name, Deps: deps}, nil
}
