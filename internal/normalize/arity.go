package normalize

import (
	"strconv"
	"strings"

	"github.com/sourceplane/obconsole/internal/model"
)

// Unbounded is the Max of an arity without upper limit
const Unbounded = -1

// Arity is the occurrence bound [Min, Max] of a job argument
type Arity struct {
	Min int
	Max int
}

// IsFlag reports whether the argument takes no value
func (a Arity) IsFlag() bool {
	return a.Min == 0 && a.Max == 0
}

// IsSingle reports whether the argument takes exactly one value
func (a Arity) IsSingle() bool {
	return a.Min == 1 && a.Max == 1
}

// IsUnbounded reports whether any number of values above Min is accepted
func (a Arity) IsUnbounded() bool {
	return a.Max == Unbounded
}

// Allows reports whether n values satisfy the bound
func (a Arity) Allows(n int) bool {
	if n < a.Min {
		return false
	}
	return a.IsUnbounded() || n <= a.Max
}

// Clamp returns n limited to Max
func (a Arity) Clamp(n int) int {
	if !a.IsUnbounded() && n > a.Max {
		return a.Max
	}
	return n
}

// String renders the bound the way it is declared
func (a Arity) String() string {
	switch {
	case a.IsUnbounded() && a.Min == 0:
		return "*"
	case a.IsUnbounded() && a.Min == 1:
		return "+"
	case a.IsUnbounded():
		return strconv.Itoa(a.Min) + "+"
	case a.Min == a.Max:
		return strconv.Itoa(a.Min)
	}
	return strconv.Itoa(a.Min) + "-" + strconv.Itoa(a.Max)
}

var restrictive = Arity{Min: 0, Max: 0}

// ParameterCount maps an arity specification to its occurrence bound.
// Malformed input yields [0,0] instead of an error.
func ParameterCount(count model.ArgCount) Arity {
	spec := strings.TrimSpace(string(count))
	switch spec {
	case "":
		return restrictive
	case "*":
		return Arity{Min: 0, Max: Unbounded}
	case "+":
		return Arity{Min: 1, Max: Unbounded}
	}

	if n, err := strconv.Atoi(spec); err == nil {
		if n < 0 {
			return restrictive
		}
		return Arity{Min: n, Max: n}
	}

	bounds := strings.Split(spec, "-")
	if len(bounds) != 2 {
		return restrictive
	}
	lo, err := strconv.Atoi(strings.TrimSpace(bounds[0]))
	if err != nil {
		return restrictive
	}
	hi, err := strconv.Atoi(strings.TrimSpace(bounds[1]))
	if err != nil {
		return restrictive
	}
	lo, hi = max(lo, 0), max(hi, 0)
	if lo > hi {
		lo, hi = hi, lo
	}
	return Arity{Min: lo, Max: hi}
}

// ArgumentCount is ParameterCount applied to a job argument
func ArgumentCount(arg *model.JobArgument) Arity {
	return ParameterCount(arg.Count)
}
