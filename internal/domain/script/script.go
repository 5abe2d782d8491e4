// Package script models the generated helper artifacts as structured
// command sequences instead of interpolated text blobs. A sequence is
// validated before rendering, so a malformed command is a build-time
// failure rather than a broken shell script on the host.
package script

import (
	"errors"
	"fmt"
	"strings"
)

// Errors for sequence validation.
var (
	ErrEmptySequence = errors.New("sequence has no commands")
	ErrEmptyProgram  = errors.New("command program cannot be empty")
	ErrUnsafeToken   = errors.New("command token contains newline or NUL")
)

// Command is a single program invocation within a sequence.
type Command struct {
	Comment      string   // optional, rendered above the command
	Program      string
	Args         []string
	AllowFailure bool // best-effort commands do not abort the sequence
}

// Sequence is an ordered list of commands, optionally nested.
type Sequence struct {
	Name     string
	Commands []Command
	Children []Sequence
}

// Validate checks every command in the sequence and its children.
func (s Sequence) Validate() error {
	if len(s.Commands) == 0 && len(s.Children) == 0 {
		return fmt.Errorf("%w: %s", ErrEmptySequence, s.Name)
	}
	for _, c := range s.Commands {
		if strings.TrimSpace(c.Program) == "" {
			return fmt.Errorf("%w (sequence %s)", ErrEmptyProgram, s.Name)
		}
		for _, tok := range append([]string{c.Program}, c.Args...) {
			if strings.ContainsAny(tok, "\n\x00") {
				return fmt.Errorf("%w: %q (sequence %s)", ErrUnsafeToken, tok, s.Name)
			}
		}
	}
	for _, child := range s.Children {
		if err := child.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Render produces a POSIX shell script for the sequence. The script aborts
// on the first failing command unless that command is marked best-effort.
func (s Sequence) Render() (string, error) {
	if err := s.Validate(); err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("#!/bin/sh\n")
	if s.Name != "" {
		fmt.Fprintf(&b, "# %s\n", s.Name)
	}
	b.WriteString("set -eu\n\n")
	s.render(&b)
	return b.String(), nil
}

func (s Sequence) render(b *strings.Builder) {
	for _, c := range s.Commands {
		if c.Comment != "" {
			fmt.Fprintf(b, "# %s\n", c.Comment)
		}
		b.WriteString(renderCommand(c))
		b.WriteString("\n")
	}
	for _, child := range s.Children {
		if child.Name != "" {
			fmt.Fprintf(b, "\n# %s\n", child.Name)
		}
		child.render(b)
	}
}

// renderCommand renders one command with shell-safe quoting.
func renderCommand(c Command) string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, quote(c.Program))
	for _, a := range c.Args {
		parts = append(parts, quote(a))
	}
	line := strings.Join(parts, " ")
	if c.AllowFailure {
		line += " || true"
	}
	return line
}

// quote single-quotes a token when it contains shell metacharacters.
func quote(tok string) string {
	if tok == "" {
		return "''"
	}
	if !strings.ContainsAny(tok, " \t\"'`$&|;<>()*?[]#~%{}\\") {
		return tok
	}
	return "'" + strings.ReplaceAll(tok, "'", `'\''`) + "'"
}
