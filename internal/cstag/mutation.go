package cstag

import (
	"strconv"
	"strings"
)

// MutationString describes the script's mutations as space-separated tokens
// such as "A5T ins7ACG del19to24". Positions are 1-based target positions
// plus offset; deletion ends are inclusive. Substitutions of the ambiguous
// target base n are omitted.
//
//	MustParse(":4*at-tc:2+ga:6").MutationString(2) // "A7T del8to9 ins12GA"
func (s Script) MutationString(offset int) string {
	pos := 1 + offset
	var muts []string
	for _, op := range s {
		switch op.Kind() {
		case Identity:
			pos += op.RunLength()
		case Substitution:
			if op.Ref() != 'n' {
				muts = append(muts, strings.ToUpper(string(op.Ref())+strconv.Itoa(pos)+string(op.Alt())))
			}
			pos++
		case Insertion:
			muts = append(muts, "ins"+strconv.Itoa(pos)+strings.ToUpper(op.Bases()))
		case Deletion:
			n := len(op.Bases())
			muts = append(muts, "del"+strconv.Itoa(pos)+"to"+strconv.Itoa(pos+n-1))
			pos += n
		default:
			internalError("unrecognized operation kind %v", op.Kind())
		}
	}
	return strings.Join(muts, " ")
}

// NtMutationCount returns the number of mutated nucleotides. Indels count
// their length; substitutions of the ambiguous base n count zero.
func (s Script) NtMutationCount() int {
	var count int
	for _, op := range s {
		switch op.Kind() {
		case Identity:
		case Substitution:
			if op.Ref() != 'n' {
				count++
			}
		case Insertion, Deletion:
			count += len(op.Bases())
		default:
			internalError("unrecognized operation kind %v", op.Kind())
		}
	}
	return count
}

// OpMutationCount returns the number of mutation operations, counting each
// indel once regardless of length.
func (s Script) OpMutationCount() int {
	var count int
	for _, op := range s {
		if op.IsMutation() {
			count++
		}
	}
	return count
}

// CSToMutationString parses cs and describes its mutations.
func CSToMutationString(cs string, offset int) (string, error) {
	s, err := Parse(cs)
	if err != nil {
		return "", err
	}
	return s.MutationString(offset), nil
}

// CSToNtMutationCount parses cs and counts its mutated nucleotides.
func CSToNtMutationCount(cs string) (int, error) {
	s, err := Parse(cs)
	if err != nil {
		return 0, err
	}
	return s.NtMutationCount(), nil
}

// CSToOpMutationCount parses cs and counts its mutation operations.
func CSToOpMutationCount(cs string) (int, error) {
	s, err := Parse(cs)
	if err != nil {
		return 0, err
	}
	return s.OpMutationCount(), nil
}
