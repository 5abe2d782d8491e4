package mocks

import (
	"sync"

	"github.com/gameforge/quartermaster/internal/ports"
)

// Prompter is a scripted test double for ports.Prompter. Each Ask/Secret
// call consumes the next queued answer; an exhausted queue returns
// ports.ErrPromptAbandoned, matching the gateway's behavior at end of
// input.
type Prompter struct {
	mu            sync.Mutex
	answers       []string
	secrets       []string
	confirmations []bool
	destructive   []string
	Prompts       []string
}

// NewPrompter creates a new Prompter mock.
func NewPrompter() *Prompter {
	return &Prompter{}
}

// QueueAnswer queues a plain-text answer.
func (m *Prompter) QueueAnswer(answer string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answers = append(m.answers, answer)
}

// QueueSecret queues a masked answer.
func (m *Prompter) QueueSecret(secret string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secrets = append(m.secrets, secret)
}

// QueueConfirmation queues a yes/no answer.
func (m *Prompter) QueueConfirmation(confirmed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.confirmations = append(m.confirmations, confirmed)
}

// QueueDestructiveAnswer queues the literal typed at a destructive gate.
func (m *Prompter) QueueDestructiveAnswer(answer string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.destructive = append(m.destructive, answer)
}

// Ask returns the next queued plain-text answer.
func (m *Prompter) Ask(prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Prompts = append(m.Prompts, prompt)
	if len(m.answers) == 0 {
		return "", ports.ErrPromptAbandoned
	}
	answer := m.answers[0]
	m.answers = m.answers[1:]
	return answer, nil
}

// AskOptional returns the next queued answer, or empty when none remain.
func (m *Prompter) AskOptional(prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Prompts = append(m.Prompts, prompt)
	if len(m.answers) == 0 {
		return "", nil
	}
	answer := m.answers[0]
	m.answers = m.answers[1:]
	return answer, nil
}

// Secret returns the next queued masked answer.
func (m *Prompter) Secret(prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Prompts = append(m.Prompts, prompt)
	if len(m.secrets) == 0 {
		return "", ports.ErrPromptAbandoned
	}
	secret := m.secrets[0]
	m.secrets = m.secrets[1:]
	return secret, nil
}

// Confirm returns the next queued yes/no answer, defaulting to no.
func (m *Prompter) Confirm(prompt string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Prompts = append(m.Prompts, prompt)
	if len(m.confirmations) == 0 {
		return false, nil
	}
	confirmed := m.confirmations[0]
	m.confirmations = m.confirmations[1:]
	return confirmed, nil
}

// ConfirmDestructive passes only for the exact literal "yes", matching
// the real gateway.
func (m *Prompter) ConfirmDestructive(prompt string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Prompts = append(m.Prompts, prompt)
	if len(m.destructive) == 0 {
		return false, nil
	}
	answer := m.destructive[0]
	m.destructive = m.destructive[1:]
	return answer == "yes", nil
}

// Ensure Prompter implements ports.Prompter.
var _ ports.Prompter = (*Prompter)(nil)
