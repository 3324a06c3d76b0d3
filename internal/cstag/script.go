package cstag

import (
	"fmt"
	"strings"
)

// Script is an ordered cs edit script.
type Script []Op

// Parse splits cs into its operations. The empty string is a valid script
// with no operations.
func Parse(cs string) (Script, error) {
	var s Script
	for i := 0; i < len(cs); {
		op, next, ok := lexOp(cs, i)
		if !ok {
			return nil, fmt.Errorf("%w: %q at offset %d", ErrInvalidCS, cs, i)
		}
		s = append(s, op)
		i = next
	}
	return s, nil
}

// MustParse is like Parse but panics if cs is malformed.
func MustParse(cs string) Script {
	s, err := Parse(cs)
	if err != nil {
		panic(err)
	}
	return s
}

// Split splits cs into its operations under the given policy. With Ignore,
// a malformed cs yields ok == false and no error. An unrecognized policy is
// always an error.
//
//	Split(":32*nt*na:10-gga:5+aaa:10", Raise)
//	// [":32" "*nt" "*na" ":10" "-gga" ":5" "+aaa" ":10"]
func Split(cs string, policy InvalidPolicy) (Script, bool, error) {
	s, err := Parse(cs)
	ok, err := policy.apply(err)
	if !ok {
		return nil, false, err
	}
	return s, true, nil
}

// String joins the operations back into a cs string.
func (s Script) String() string {
	var b strings.Builder
	for _, op := range s {
		b.WriteString(op.String())
	}
	return b.String()
}

// Tokens returns the textual form of each operation.
func (s Script) Tokens() []string {
	toks := make([]string, len(s))
	for i, op := range s {
		toks[i] = op.String()
	}
	return toks
}

// TargetLen returns the number of target bases consumed by the script.
func (s Script) TargetLen() int {
	var n int
	for _, op := range s {
		n += op.TargetLen()
	}
	return n
}

// QueryLen returns the number of query bases produced by the script.
func (s Script) QueryLen() int {
	var n int
	for _, op := range s {
		switch op.Kind() {
		case Identity:
			n += op.RunLength()
		case Substitution:
			n++
		case Insertion:
			n += len(op.Bases())
		case Deletion:
		default:
			internalError("unrecognized operation kind %v", op.Kind())
		}
	}
	return n
}
