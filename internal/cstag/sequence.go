package cstag

import (
	"fmt"
	"strings"
)

// Sequence applies the script to target and returns the upper-case query
// sequence it encodes. target must start at the script's first target base.
//
//	MustParse(":4*nt-tc:2+g:2").Sequence("CGGANTCCAAT") // "CGGATCAGAT"
func (s Script) Sequence(target string) (string, error) {
	if need := s.TargetLen(); len(target) < need {
		return "", fmt.Errorf("%w: need %d bases, have %d", ErrTargetTooShort, need, len(target))
	}

	var b strings.Builder
	b.Grow(s.QueryLen())
	pos := 0
	for _, op := range s {
		switch op.Kind() {
		case Identity:
			b.WriteString(target[pos : pos+op.RunLength()])
			pos += op.RunLength()
		case Substitution:
			b.WriteByte(op.Alt())
			pos++
		case Insertion:
			b.WriteString(op.Bases())
		case Deletion:
			pos += len(op.Bases())
		default:
			internalError("unrecognized operation kind %v", op.Kind())
		}
	}
	return strings.ToUpper(b.String()), nil
}

// CSToSequence parses cs and applies it to target.
func CSToSequence(cs, target string) (string, error) {
	s, err := Parse(cs)
	if err != nil {
		return "", err
	}
	return s.Sequence(target)
}
