package question

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownMode is returned whenever a grading mode value is outside the
// closed set below. Callers must not default it to another mode.
var ErrUnknownMode = errors.New("unknown grading mode")

type Mode int

const (
	ModeUnknown Mode = iota
	ModeSingle
	ModeMultiplePartial
	ModeMultipleAllOrNothing
)

// Persisted values of the "single" column.
const (
	flagPartial      = 0
	flagSingle       = 1
	flagAllOrNothing = 2
)

// Exchange tags used by the XML format.
const (
	TagSingle       = "true"
	TagPartial      = "false"
	TagAllOrNothing = "aon"
)

func (m Mode) String() string {
	switch m {
	case ModeSingle:
		return "single"
	case ModeMultiplePartial:
		return "multiple_partial"
	case ModeMultipleAllOrNothing:
		return "multiple_all_or_nothing"
	default:
		return "unknown"
	}
}

func (m Mode) Valid() bool {
	switch m {
	case ModeSingle, ModeMultiplePartial, ModeMultipleAllOrNothing:
		return true
	}
	return false
}

// Multiple reports whether the mode allows more than one selection.
func (m Mode) Multiple() bool {
	return m == ModeMultiplePartial || m == ModeMultipleAllOrNothing
}

// Flag is the integer stored alongside the question options.
func (m Mode) Flag() (int, error) {
	switch m {
	case ModeSingle:
		return flagSingle, nil
	case ModeMultiplePartial:
		return flagPartial, nil
	case ModeMultipleAllOrNothing:
		return flagAllOrNothing, nil
	}
	return 0, fmt.Errorf("%w: %d", ErrUnknownMode, int(m))
}

func ModeFromFlag(f int) (Mode, error) {
	switch f {
	case flagSingle:
		return ModeSingle, nil
	case flagPartial:
		return ModeMultiplePartial, nil
	case flagAllOrNothing:
		return ModeMultipleAllOrNothing, nil
	}
	return ModeUnknown, fmt.Errorf("%w: flag %d", ErrUnknownMode, f)
}

func (m Mode) Tag() (string, error) {
	switch m {
	case ModeSingle:
		return TagSingle, nil
	case ModeMultiplePartial:
		return TagPartial, nil
	case ModeMultipleAllOrNothing:
		return TagAllOrNothing, nil
	}
	return "", fmt.Errorf("%w: %d", ErrUnknownMode, int(m))
}

// ParseModeTag accepts the exchange tag plus the boolean spellings older
// exports used for single/multiple.
func ParseModeTag(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case TagAllOrNothing:
		return ModeMultipleAllOrNothing, nil
	case "true", "1":
		return ModeSingle, nil
	case "false", "0":
		return ModeMultiplePartial, nil
	}
	return ModeUnknown, fmt.Errorf("%w: tag %q", ErrUnknownMode, s)
}

// ParseMode accepts either the mode name (as produced by String) or an
// exchange tag.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "single":
		return ModeSingle, nil
	case "multiple_partial", "partial":
		return ModeMultiplePartial, nil
	case "multiple_all_or_nothing", "all_or_nothing":
		return ModeMultipleAllOrNothing, nil
	}
	return ParseModeTag(s)
}

func (m Mode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMode, int(m))
	}
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
