// Package escutil builds the fixed ESC/POS byte sequences used to toggle
// text emphasis on a thermal printer.
package escutil

import (
	"errors"
	"fmt"
)

const (
	ESC byte = 0x1B
	GS  byte = 0x1D
	DLE byte = 0x10
	LF  byte = 0x0A
)

// Toggle is a text attribute switch understood by the printer.
type Toggle int

const (
	ToggleBoldOn Toggle = iota
	ToggleBoldOff
	ToggleUnderlineOn
	ToggleUnderlineTwoDotOn
	ToggleUnderlineOff
)

// ErrUnsupportedToggle is returned for a Toggle outside the enumeration.
var ErrUnsupportedToggle = errors.New("unsupported toggle")

var sequences = map[Toggle][3]byte{
	ToggleBoldOn:            {ESC, 'E', 0x01},
	ToggleBoldOff:           {ESC, 'E', 0x00},
	ToggleUnderlineOn:       {ESC, '-', 0x01},
	ToggleUnderlineTwoDotOn: {ESC, '-', 0x02},
	ToggleUnderlineOff:      {ESC, '-', 0x00},
}

// String returns the toggle name
func (t Toggle) String() string {
	switch t {
	case ToggleBoldOn:
		return "bold on"
	case ToggleBoldOff:
		return "bold off"
	case ToggleUnderlineOn:
		return "underline on"
	case ToggleUnderlineTwoDotOn:
		return "underline two dot on"
	case ToggleUnderlineOff:
		return "underline off"
	}
	return fmt.Sprintf("toggle(%d)", int(t))
}

// Sequence returns a fresh copy of the bytes for t.
func Sequence(t Toggle) ([]byte, error) {
	seq, ok := sequences[t]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedToggle, t)
	}
	out := make([]byte, len(seq))
	copy(out, seq[:])
	return out, nil
}

func mustSequence(t Toggle) []byte {
	seq, err := Sequence(t)
	if err != nil {
		panic(err)
	}
	return seq
}

// BoldOn returns ESC E 1
func BoldOn() []byte { return mustSequence(ToggleBoldOn) }

// BoldOff returns ESC E 0
func BoldOff() []byte { return mustSequence(ToggleBoldOff) }

// UnderlineWithOneDotWidthOn returns ESC - 1
func UnderlineWithOneDotWidthOn() []byte { return mustSequence(ToggleUnderlineOn) }

// UnderlineWithTwoDotWidthOn returns ESC - 2
func UnderlineWithTwoDotWidthOn() []byte { return mustSequence(ToggleUnderlineTwoDotOn) }

// UnderlineOff returns ESC - 0
func UnderlineOff() []byte { return mustSequence(ToggleUnderlineOff) }
