package table

import (
	"strings"

	"github.com/halvard/murre/internal/icerrors"
)

// Report collects every shift/reduce conflict that precedence and
// associativity do not settle, and every reduce/reduce conflict, found
// while constructing a parsing table. Shift/reduce conflicts settled by
// precedence are not recorded, so an empty Report means every conflict,
// if there was any, was settled that way; a non-empty one still comes with a
// usable table, built by applying the resolution rules in §4.4 (the
// table is never left with a missing entry because of a conflict).
type Report struct {
	ShiftReduce  []*icerrors.ShiftReduceConflict
	ReduceReduce []*icerrors.ReduceReduceConflict
}

// Empty reports whether the grammar was conflict-free.
func (r *Report) Empty() bool {
	return r == nil || (len(r.ShiftReduce) == 0 && len(r.ReduceReduce) == 0)
}

// NumberOfIssues returns the total count of shift/reduce and
// reduce/reduce conflicts recorded.
func (r *Report) NumberOfIssues() int {
	if r == nil {
		return 0
	}
	return len(r.ShiftReduce) + len(r.ReduceReduce)
}

// String renders every conflict, one per line: all shift/reduce
// conflicts in discovery order, then all reduce/reduce conflicts in
// discovery order. The two kinds are not interleaved, so the lines do not
// show the order in which conflicts of different kinds were found.
func (r *Report) String() string {
	if r.Empty() {
		return ""
	}
	var lines []string
	for _, c := range r.ShiftReduce {
		lines = append(lines, c.Error())
	}
	for _, c := range r.ReduceReduce {
		lines = append(lines, c.Error())
	}
	return strings.Join(lines, "\n")
}

// Error lets a non-empty Report be returned directly where an error is
// expected, mirroring pog's prepare() returning a falsy-but-inspectable
// report object.
func (r *Report) Error() string {
	return r.String()
}
