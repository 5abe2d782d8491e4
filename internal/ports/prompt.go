package ports

import "errors"

// ErrPromptAbandoned is returned when interactive input exhausted its retry
// budget or the input stream ended before a usable answer was captured.
var ErrPromptAbandoned = errors.New("prompt abandoned")

// Prompter solicits interactive input from the operator. It is the only
// component allowed to touch the terminal; steps never read stdin directly.
type Prompter interface {
	// Ask prompts for a required plain-text value. Empty input is re-prompted
	// up to the configured retry budget, then ErrPromptAbandoned is returned.
	Ask(prompt string) (string, error)

	// AskOptional prompts for a plain-text value and accepts empty input.
	AskOptional(prompt string) (string, error)

	// Secret prompts for a masked value. Input is consumed character by
	// character, never echoed, and backspace removes the last captured
	// character. Empty input is re-prompted like Ask.
	Secret(prompt string) (string, error)

	// Confirm prompts for a yes/no answer and returns true for y/yes.
	Confirm(prompt string) (bool, error)

	// ConfirmDestructive gates an irreversible operation. It returns true
	// only when the exact literal "yes" is supplied; any other answer,
	// including "y" and "Yes", returns false.
	ConfirmDestructive(prompt string) (bool, error)
}
