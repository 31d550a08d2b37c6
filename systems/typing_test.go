package systems

import (
	"testing"

	"github.com/pthm-cable/ambient/components"
)

func TestTypingCycle(t *testing.T) {
	tt := &components.TypedText{
		Lines:             []string{"ab", "xyz"},
		TicksPerChar:      3,
		HoldTicks:         4,
		EraseTicksPerChar: 1,
	}

	// One character every three ticks
	for tick := 1; tick <= 6; tick++ {
		AdvanceTyping(tt)
		if want := tick / 3; tt.Visible != want {
			t.Fatalf("tick %d: visible %d, want %d", tick, tt.Visible, want)
		}
	}
	if tt.State != components.Holding || tt.Text() != "ab" {
		t.Fatalf("expected holding full line, got %s %q", tt.State, tt.Text())
	}

	for i := 0; i < 4; i++ {
		AdvanceTyping(tt)
	}
	if tt.State != components.Erasing {
		t.Fatalf("expected erasing after hold, got %s", tt.State)
	}

	AdvanceTyping(tt)
	if tt.Text() != "a" {
		t.Errorf("expected one character erased, got %q", tt.Text())
	}
	AdvanceTyping(tt)
	if tt.State != components.Typing || tt.Line != 1 || tt.Visible != 0 {
		t.Fatalf("expected next line typing, got %s line %d visible %d", tt.State, tt.Line, tt.Visible)
	}

	// Wraps back to the first line
	for i := 0; i < 1000 && tt.Line == 1; i++ {
		AdvanceTyping(tt)
	}
	if tt.Line != 0 {
		t.Errorf("expected to cycle back to line 0, got %d", tt.Line)
	}
}

func TestTypingEmpty(t *testing.T) {
	tt := &components.TypedText{TicksPerChar: 1, EraseTicksPerChar: 1}
	for i := 0; i < 10; i++ {
		AdvanceTyping(tt)
	}
	if tt.Text() != "" || tt.Visible != 0 {
		t.Errorf("empty typed line changed: %+v", tt)
	}
}
