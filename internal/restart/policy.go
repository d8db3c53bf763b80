package restart

import (
	"fmt"
	"strconv"
	"strings"
)

// Policy is a tagged restart-policy variant. The zero value is the default
// heuristic (restart on nonzero exit). Only one variant can be active because
// the fields are unexported and the constructors below are the only way to
// build a non-default value.
type Policy struct {
	mode  mode
	codes []int
}

type mode int

const (
	modeDefault mode = iota
	modeAlways
	modeNever
	modeIfCodeIn
	modeIfCodeNotIn
)

// Default applies the baseline heuristic: restart iff the exit code is nonzero.
func Default() Policy { return Policy{} }

// Always restarts the command regardless of the exit code.
func Always() Policy { return Policy{mode: modeAlways} }

// Never restarts the command regardless of the exit code.
func Never() Policy { return Policy{mode: modeNever} }

// IfCodeIn restarts only when the exit code is one of codes.
func IfCodeIn(codes ...int) Policy {
	return Policy{mode: modeIfCodeIn, codes: append([]int(nil), codes...)}
}

// IfCodeNotIn restarts only when the exit code is not one of codes.
func IfCodeNotIn(codes ...int) Policy {
	return Policy{mode: modeIfCodeNotIn, codes: append([]int(nil), codes...)}
}

func (p Policy) String() string {
	switch p.mode {
	case modeAlways:
		return "always"
	case modeNever:
		return "never"
	case modeIfCodeIn:
		return fmt.Sprintf("if-code-in(%s)", joinCodes(p.codes))
	case modeIfCodeNotIn:
		return fmt.Sprintf("if-code-not-in(%s)", joinCodes(p.codes))
	default:
		return "default"
	}
}

func joinCodes(codes []int) string {
	parts := make([]string, 0, len(codes))
	for _, c := range codes {
		parts = append(parts, strconv.Itoa(c))
	}
	return strings.Join(parts, ",")
}
