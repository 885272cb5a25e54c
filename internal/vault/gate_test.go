package vault

import (
	"testing"

	"pgregory.net/rapid"

	"PhotoCurator/internal/view"
)

func TestSelectPrivacyWhileLockedPrompts(t *testing.T) {
	t.Parallel()

	g := NewGate("")
	g.SelectTab(view.TabEmotion)
	if got := g.SelectTab(view.TabPrivacy); got != view.TabEmotion {
		t.Fatalf("tab changed to %s while locked", got)
	}
	if g.State() != StateAwaitingPasscode {
		t.Fatalf("expected prompt, got %s", g.State())
	}
}

func TestCorrectPasscodeUnlocks(t *testing.T) {
	t.Parallel()

	g := NewGate("4321")
	g.SelectTab(view.TabPrivacy)
	g.SetPasscodeInput("4321")
	if !g.Submit() {
		t.Fatal("correct passcode rejected")
	}
	if g.State() != StateUnlocked || g.Tab() != view.TabPrivacy {
		t.Fatalf("unexpected state %s tab %s", g.State(), g.Tab())
	}
	if g.pendingInput() != "" {
		t.Fatal("input not cleared")
	}
}

func TestIncorrectPasscodeLocksAndClears(t *testing.T) {
	t.Parallel()

	g := NewGate("")
	g.SelectTab(view.TabPrivacy)
	g.SetPasscodeInput("0000")
	if g.Submit() {
		t.Fatal("wrong passcode accepted")
	}
	if g.State() != StateLocked || g.Tab() != view.TabAll {
		t.Fatalf("unexpected state %s tab %s", g.State(), g.Tab())
	}
	if g.pendingInput() != "" {
		t.Fatal("input not cleared")
	}
}

func TestSubmitWithoutPromptDoesNotUnlock(t *testing.T) {
	t.Parallel()

	g := NewGate("")
	g.SetPasscodeInput(DefaultPasscode)
	if g.Submit() || g.Unlocked() {
		t.Fatal("gate unlocked without a prompt")
	}
}

func TestLeavingPrivacyRelocks(t *testing.T) {
	t.Parallel()

	g := NewGate("")
	g.SelectTab(view.TabPrivacy)
	g.Unlock(DefaultPasscode)
	g.SelectTab(view.TabAll)
	if g.Unlocked() {
		t.Fatal("vault still unlocked after leaving privacy")
	}
	if got := g.SelectTab(view.TabPrivacy); got != view.TabAll {
		t.Fatalf("privacy reopened without passcode: %s", got)
	}
}

func TestCancelReturnsToLocked(t *testing.T) {
	t.Parallel()

	g := NewGate("")
	g.SelectTab(view.TabPrivacy)
	g.SetPasscodeInput("12")
	g.Cancel()
	if g.State() != StateLocked || g.pendingInput() != "" {
		t.Fatalf("cancel left state %s input %q", g.State(), g.pendingInput())
	}
}

func TestLockedGateNeverShowsPrivacy(t *testing.T) {
	tabs := []view.Tab{view.TabAll, view.TabMemories, view.TabPrivacy, view.TabEmotion}

	rapid.Check(t, func(t *rapid.T) {
		g := NewGate("9999")
		steps := rapid.IntRange(1, 30).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			switch rapid.IntRange(0, 2).Draw(t, "op") {
			case 0:
				before := g.Tab()
				tab := rapid.SampledFrom(tabs).Draw(t, "tab")
				wasUnlocked := g.Unlocked()
				got := g.SelectTab(tab)
				if tab == view.TabPrivacy && !wasUnlocked && got != before {
					t.Fatalf("locked privacy request changed tab %s -> %s", before, got)
				}
			case 1:
				g.Unlock(rapid.SampledFrom([]string{"9999", "0000", ""}).Draw(t, "code"))
			case 2:
				g.Cancel()
			}
			if g.Tab() == view.TabPrivacy && !g.Unlocked() {
				t.Fatal("privacy tab active while locked")
			}
			if g.pendingInput() != "" {
				t.Fatal("input left behind")
			}
		}
	})
}
