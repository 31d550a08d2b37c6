package systems

import (
	"unicode/utf8"

	"github.com/pthm-cable/ambient/components"
)

// AdvanceTyping moves a typed line one tick through
// Typing -> Holding -> Erasing -> Typing (next line).
func AdvanceTyping(t *components.TypedText) {
	if len(t.Lines) == 0 {
		return
	}
	n := utf8.RuneCountInString(t.Current())
	t.Ticks++

	switch t.State {
	case components.Typing:
		if t.Visible >= n {
			t.State, t.Ticks = components.Holding, 0
			return
		}
		if t.Ticks >= t.TicksPerChar {
			t.Visible++
			t.Ticks = 0
			if t.Visible >= n {
				t.State = components.Holding
			}
		}
	case components.Holding:
		if t.Ticks >= t.HoldTicks {
			t.State, t.Ticks = components.Erasing, 0
		}
	case components.Erasing:
		if t.Visible <= 0 {
			nextLine(t)
			return
		}
		if t.Ticks >= t.EraseTicksPerChar {
			t.Visible--
			t.Ticks = 0
			if t.Visible <= 0 {
				nextLine(t)
			}
		}
	}
}

func nextLine(t *components.TypedText) {
	t.Line = (t.Line + 1) % len(t.Lines)
	t.Visible = 0
	t.Ticks = 0
	t.State = components.Typing
}
