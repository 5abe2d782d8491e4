// Package prompt provides the interactive prompt gateway. It is the single
// place the provisioner touches the terminal: plain questions, yes/no
// confirmations, destructive-action gating, and masked secret entry.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/gameforge/quartermaster/internal/ports"
)

// defaultMaxAttempts bounds re-prompting for required fields.
const defaultMaxAttempts = 3

// Gateway implements ports.Prompter against an input/output stream pair.
// When the input is a terminal, secrets are read in raw mode so no
// character is ever echoed.
type Gateway struct {
	in          io.Reader
	reader      *bufio.Reader
	out         io.Writer
	maxAttempts int
}

// GatewayOption configures the gateway.
type GatewayOption func(*Gateway)

// WithStreams sets the input and output streams (default: stdin/stdout).
func WithStreams(in io.Reader, out io.Writer) GatewayOption {
	return func(g *Gateway) {
		g.in = in
		g.out = out
	}
}

// WithMaxAttempts sets the retry budget for required fields.
func WithMaxAttempts(n int) GatewayOption {
	return func(g *Gateway) {
		g.maxAttempts = n
	}
}

// NewGateway creates a Gateway.
func NewGateway(opts ...GatewayOption) *Gateway {
	g := &Gateway{
		in:          os.Stdin,
		out:         os.Stdout,
		maxAttempts: defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.reader = bufio.NewReader(g.in)
	return g
}

// Ask prompts for a required plain-text value, re-prompting on empty input
// until the retry budget is exhausted.
func (g *Gateway) Ask(prompt string) (string, error) {
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		fmt.Fprintf(g.out, "%s: ", prompt)
		line, err := g.readLine()
		if err != nil {
			return "", fmt.Errorf("%w: %v", ports.ErrPromptAbandoned, err)
		}
		if line != "" {
			return line, nil
		}
		fmt.Fprintln(g.out, "A value is required.")
	}
	return "", ports.ErrPromptAbandoned
}

// AskOptional prompts once and accepts empty input.
func (g *Gateway) AskOptional(prompt string) (string, error) {
	fmt.Fprintf(g.out, "%s: ", prompt)
	line, err := g.readLine()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ports.ErrPromptAbandoned, err)
	}
	return line, nil
}

// Secret prompts for a masked value. Nothing is echoed; backspace removes
// the last captured character. Empty input re-prompts like Ask.
func (g *Gateway) Secret(prompt string) (string, error) {
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		fmt.Fprintf(g.out, "%s: ", prompt)
		secret, err := g.readMasked()
		fmt.Fprintln(g.out)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ports.ErrPromptAbandoned, err)
		}
		if secret != "" {
			return secret, nil
		}
		fmt.Fprintln(g.out, "A value is required.")
	}
	return "", ports.ErrPromptAbandoned
}

// Confirm prompts for a yes/no answer. Returns true for "y" or "yes"
// (case-insensitive); anything else, including end of input, is a no.
func (g *Gateway) Confirm(prompt string) (bool, error) {
	fmt.Fprintf(g.out, "%s [y/N]: ", prompt)
	line, err := g.readLine()
	if err != nil {
		return false, nil //nolint:nilerr // end of input means "no"
	}
	answer := strings.ToLower(line)
	return answer == "y" || answer == "yes", nil
}

// ConfirmDestructive gates an irreversible operation behind the exact
// literal "yes". A single-letter "y" or a capitalized "Yes" does not pass;
// the extra friction is deliberate.
func (g *Gateway) ConfirmDestructive(prompt string) (bool, error) {
	fmt.Fprintf(g.out, "%s (type 'yes' to confirm): ", prompt)
	line, err := g.readLine()
	if err != nil {
		return false, nil //nolint:nilerr // end of input means "no"
	}
	return line == "yes", nil
}

// readLine reads one trimmed line from the input stream.
func (g *Gateway) readLine() (string, error) {
	line, err := g.reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// readMasked captures a secret character by character. When the input is a
// terminal it is switched to raw mode for the duration so the characters
// are never echoed. The same keystroke handling applies either way:
// enter terminates, backspace drops the last captured character, control
// characters are ignored.
func (g *Gateway) readMasked() (string, error) {
	if f, ok := g.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd := int(f.Fd())
		oldState, err := term.MakeRaw(fd)
		if err != nil {
			return "", err
		}
		defer func() { _ = term.Restore(fd, oldState) }()
		return captureMasked(f)
	}
	return captureMasked(g.reader)
}

// captureMasked consumes the keystroke stream until enter.
func captureMasked(r io.Reader) (string, error) {
	var captured []byte
	buf := make([]byte, 1)

	for {
		n, err := r.Read(buf)
		if n == 0 {
			if errors.Is(err, io.EOF) {
				if len(captured) > 0 {
					return string(captured), nil
				}
				return "", io.ErrUnexpectedEOF
			}
			if err != nil {
				return "", err
			}
			continue
		}

		switch c := buf[0]; {
		case c == '\r' || c == '\n':
			return string(captured), nil
		case c == 0x7f || c == '\b':
			if len(captured) > 0 {
				captured = captured[:len(captured)-1]
			}
		case c == 0x03: // Ctrl-C
			return "", errors.New("interrupted")
		case c < 0x20: // other control characters
			// ignored
		default:
			captured = append(captured, c)
		}
	}
}

// Ensure Gateway implements ports.Prompter.
var _ ports.Prompter = (*Gateway)(nil)
