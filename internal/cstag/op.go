// Package cstag decodes the short form of the minimap2 "cs" alignment tag.
//
// A cs string is a run-length-encoded edit script describing how a query
// differs from a target over an aligned region. The package splits cs strings
// into operations, indexes them by target coordinate, extracts the portion of
// the script covering a target interval, and derives sequences, mutation
// descriptions and mutation counts from a script.
package cstag

import (
	"errors"
	"fmt"
	"strconv"
)

// Kind is the type of a single cs operation.
type Kind uint8

// Operation kinds.
const (
	Identity     Kind = iota + 1 // ":" followed by a run length
	Substitution                 // "*" followed by target and query base
	Insertion                    // "+" followed by bases absent from the target
	Deletion                     // "-" followed by bases absent from the query
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case Identity:
		return "identity"
	case Substitution:
		return "substitution"
	case Insertion:
		return "insertion"
	case Deletion:
		return "deletion"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Errors reported for malformed input.
var (
	ErrInvalidCS       = errors.New("invalid cs string")
	ErrInvalidOp       = errors.New("invalid cs operation")
	ErrInvalidPolicy   = errors.New("invalid policy")
	ErrInvalidInterval = errors.New("invalid feature interval")
	ErrUnmapped        = errors.New("alignment is unmapped")
	ErrInvalidRecord   = errors.New("invalid alignment record")
	ErrSpanMismatch    = errors.New("cs target span does not match alignment end")
	ErrTargetTooShort  = errors.New("target sequence shorter than cs target span")
)

// InvalidPolicy selects what validating functions do with malformed text.
type InvalidPolicy int

const (
	// Raise reports malformed text as an error.
	Raise InvalidPolicy = iota
	// Ignore reports malformed text as absent (ok == false) without an error.
	Ignore
)

func (p InvalidPolicy) String() string {
	switch p {
	case Raise:
		return "raise"
	case Ignore:
		return "ignore"
	}
	return fmt.Sprintf("InvalidPolicy(%d)", int(p))
}

// ParsePolicy converts "raise" or "ignore" to an InvalidPolicy.
func ParsePolicy(s string) (InvalidPolicy, error) {
	switch s {
	case "raise", "":
		return Raise, nil
	case "ignore":
		return Ignore, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidPolicy, s)
}

// apply maps a validation error to the (ok, err) pair the policy asks for.
func (p InvalidPolicy) apply(err error) (bool, error) {
	switch p {
	case Raise:
		if err != nil {
			return false, err
		}
		return true, nil
	case Ignore:
		return err == nil, nil
	}
	return false, fmt.Errorf("%w: %v", ErrInvalidPolicy, p)
}

// Op is a single cs operation. The zero value is not a valid operation.
type Op struct {
	kind  Kind
	n     int    // identity run length
	ref   byte   // substitution target base
	alt   byte   // substitution query base
	bases string // insertion or deletion bases
	text  string // textual form as parsed
}

// NewIdentity returns an identity run of n target bases.
func NewIdentity(n int) Op {
	return Op{kind: Identity, n: n, text: ":" + strconv.Itoa(n)}
}

// NewSubstitution returns a substitution of target base ref by query base alt.
func NewSubstitution(ref, alt byte) Op {
	return Op{kind: Substitution, ref: ref, alt: alt, text: string([]byte{'*', ref, alt})}
}

// NewInsertion returns an insertion of bases into the query.
func NewInsertion(bases string) Op {
	return Op{kind: Insertion, bases: bases, text: "+" + bases}
}

// NewDeletion returns a deletion of target bases from the query.
func NewDeletion(bases string) Op {
	return Op{kind: Deletion, bases: bases, text: "-" + bases}
}

// Kind returns the operation kind.
func (o Op) Kind() Kind { return o.kind }

// RunLength returns the run length of an identity operation, 0 otherwise.
func (o Op) RunLength() int { return o.n }

// Ref returns the target base of a substitution.
func (o Op) Ref() byte { return o.ref }

// Alt returns the query base of a substitution.
func (o Op) Alt() byte { return o.alt }

// Bases returns the inserted or deleted bases.
func (o Op) Bases() string { return o.bases }

// String returns the operation as it appears in a cs string.
func (o Op) String() string { return o.text }

// TargetLen returns the number of target bases the operation consumes.
func (o Op) TargetLen() int {
	switch o.kind {
	case Identity:
		return o.n
	case Substitution:
		return 1
	case Insertion:
		return 0
	case Deletion:
		return len(o.bases)
	}
	internalError("unrecognized operation kind %v", o.kind)
	return 0
}

// IsMutation reports whether the operation changes the query relative to the
// target. Substitutions of the ambiguous target base n are not mutations.
func (o Op) IsMutation() bool {
	switch o.kind {
	case Identity:
		return false
	case Substitution:
		return o.ref != 'n'
	case Insertion, Deletion:
		return true
	}
	internalError("unrecognized operation kind %v", o.kind)
	return false
}

func isBase(c byte) bool {
	switch c {
	case 'a', 'c', 'g', 't', 'n':
		return true
	}
	return false
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// lexOp reads the operation starting at cs[i]. It returns the operation and
// the offset just past it, or ok == false when no operation starts at i.
func lexOp(cs string, i int) (op Op, next int, ok bool) {
	if i >= len(cs) {
		return Op{}, i, false
	}
	switch cs[i] {
	case ':':
		j := i + 1
		for j < len(cs) && isDigit(cs[j]) {
			j++
		}
		if j == i+1 {
			return Op{}, i, false
		}
		n, err := strconv.Atoi(cs[i+1 : j])
		if err != nil {
			return Op{}, i, false
		}
		return Op{kind: Identity, n: n, text: cs[i:j]}, j, true
	case '*':
		if i+3 > len(cs) || !isBase(cs[i+1]) || !isBase(cs[i+2]) {
			return Op{}, i, false
		}
		return Op{kind: Substitution, ref: cs[i+1], alt: cs[i+2], text: cs[i : i+3]}, i + 3, true
	case '+', '-':
		j := i + 1
		for j < len(cs) && isBase(cs[j]) {
			j++
		}
		if j == i+1 {
			return Op{}, i, false
		}
		kind := Insertion
		if cs[i] == '-' {
			kind = Deletion
		}
		return Op{kind: kind, bases: cs[i+1 : j], text: cs[i:j]}, j, true
	}
	return Op{}, i, false
}

// ParseOp parses a single cs operation. Text holding more than one operation
// is rejected.
func ParseOp(tok string) (Op, error) {
	op, next, ok := lexOp(tok, 0)
	if !ok || next != len(tok) {
		return Op{}, fmt.Errorf("%w: %q", ErrInvalidOp, tok)
	}
	return op, nil
}

// OpKind returns the kind of the single operation tok. With Ignore, malformed
// text yields ok == false and no error.
func OpKind(tok string, policy InvalidPolicy) (Kind, bool, error) {
	op, err := ParseOp(tok)
	ok, err := policy.apply(err)
	if !ok {
		return 0, false, err
	}
	return op.Kind(), true, nil
}

// OpTargetLen returns the target length of the single operation tok, under
// the same policy rules as OpKind.
func OpTargetLen(tok string, policy InvalidPolicy) (int, bool, error) {
	op, err := ParseOp(tok)
	ok, err := policy.apply(err)
	if !ok {
		return 0, false, err
	}
	return op.TargetLen(), true, nil
}

// internalError aborts on a broken invariant.
func internalError(format string, args ...any) {
	panic("cstag: internal error: " + fmt.Sprintf(format, args...))
}
