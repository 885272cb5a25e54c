// Package vault gates the privacy tab behind a shared passcode.
package vault

import (
	"crypto/subtle"
	"sync"

	"PhotoCurator/internal/view"
)

// DefaultPasscode is used when none is configured.
const DefaultPasscode = "1234"

// State is the position of the gate.
type State string

const (
	StateLocked           State = "locked"
	StateAwaitingPasscode State = "awaiting_passcode"
	StateUnlocked         State = "unlocked"
)

// Gate tracks the active tab together with the vault state, since leaving
// the privacy tab relocks the vault.
type Gate struct {
	mu       sync.Mutex
	passcode string
	state    State
	tab      view.Tab
	input    string
}

// NewGate returns a locked gate showing the all tab.
func NewGate(passcode string) *Gate {
	if passcode == "" {
		passcode = DefaultPasscode
	}
	return &Gate{passcode: passcode, state: StateLocked, tab: view.TabAll}
}

// SelectTab requests a tab. Asking for privacy while locked prompts for the
// passcode and keeps the current tab; the returned value is the tab in effect.
func (g *Gate) SelectTab(tab view.Tab) view.Tab {
	g.mu.Lock()
	defer g.mu.Unlock()

	if tab == view.TabPrivacy && g.state != StateUnlocked {
		g.state = StateAwaitingPasscode
		return g.tab
	}
	if tab != view.TabPrivacy {
		g.state = StateLocked
		g.input = ""
	}
	g.tab = tab
	return g.tab
}

// SetPasscodeInput replaces the pending passcode input.
func (g *Gate) SetPasscodeInput(value string) {
	g.mu.Lock()
	g.input = value
	g.mu.Unlock()
}

// pendingInput returns the unsubmitted passcode.
func (g *Gate) pendingInput() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.input
}

// Submit checks the pending input. The input is cleared either way.
func (g *Gate) Submit() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	code := g.input
	g.input = ""
	if g.state != StateAwaitingPasscode {
		return g.state == StateUnlocked
	}
	if subtle.ConstantTimeCompare([]byte(code), []byte(g.passcode)) != 1 {
		g.state = StateLocked
		return false
	}
	g.state = StateUnlocked
	g.tab = view.TabPrivacy
	return true
}

// Unlock is SetPasscodeInput followed by Submit.
func (g *Gate) Unlock(code string) bool {
	g.SetPasscodeInput(code)
	return g.Submit()
}

// Cancel abandons a passcode prompt.
func (g *Gate) Cancel() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == StateAwaitingPasscode {
		g.state = StateLocked
	}
	g.input = ""
}

// State returns the gate position.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Tab returns the active tab.
func (g *Gate) Tab() view.Tab {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.tab
}

// Unlocked reports whether sensitive items may be shown.
func (g *Gate) Unlocked() bool {
	return g.State() == StateUnlocked
}
