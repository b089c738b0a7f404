// Package invocation reconciles caller-supplied named arguments against a
// procedure's declared parameters and produces the executable invocation
// statement together with the canonical argument order.
package invocation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sprocketdb/sprocket/internal/catalog"
)

// PositionalSuffix is appended to every formal parameter name when a
// procedure is generated, and stripped again to recover the caller-facing
// argument name from the stored catalog name.
const PositionalSuffix = "_outer"

// Query is an executable invocation statement. Text contains one positional
// placeholder per entry of ParameterOrder, in that exact order; callers must
// bind their argument values in the same order.
type Query struct {
	Text           string
	ParameterOrder []string
}

// MismatchError reports supplied argument names that disagree with the
// procedure's declared parameter set.
type MismatchError struct {
	Procedure  string
	Missing    []string
	Unexpected []string
}

func (e *MismatchError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing %v", e.Missing))
	}
	if len(e.Unexpected) > 0 {
		parts = append(parts, fmt.Sprintf("unexpected %v", e.Unexpected))
	}
	return fmt.Sprintf("arguments for procedure %q do not match declared parameters: %s",
		e.Procedure, strings.Join(parts, ", "))
}

// PublicName recovers the caller-facing argument name from a stored catalog
// parameter name: the positional suffix is stripped first, then the leading
// @ sigil.
func PublicName(stored string) string {
	return strings.TrimPrefix(strings.TrimSuffix(stored, PositionalSuffix), "@")
}

// Build reconciles the supplied named arguments against the procedure
// metadata and emits the invocation statement. The catalog declaration order
// of the input parameters is authoritative: it becomes ParameterOrder and the
// placeholder order in Text, regardless of the order arguments were supplied
// in. Supplied names must equal the declared set exactly; any disagreement
// returns *MismatchError.
func Build(md *catalog.Metadata, args map[string]interface{}) (*Query, error) {
	inList := make([]string, 0, len(md.InputParams))
	for _, p := range md.InputParams {
		inList = append(inList, PublicName(p.Name))
	}

	// A single nil-valued argument is the no-arguments call pattern.
	if len(args) == 1 {
		for _, v := range args {
			if v == nil {
				args = nil
			}
		}
	}

	declared := make(map[string]bool, len(inList))
	for _, name := range inList {
		declared[name] = true
	}

	var unexpected []string
	for name := range args {
		if !declared[name] {
			unexpected = append(unexpected, name)
		}
	}
	var missing []string
	for _, name := range inList {
		if _, ok := args[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(unexpected) > 0 || len(missing) > 0 {
		sort.Strings(unexpected)
		sort.Strings(missing)
		return nil, &MismatchError{Procedure: md.Name, Missing: missing, Unexpected: unexpected}
	}

	var b strings.Builder
	b.WriteString("exec ")
	b.WriteString(md.Name)
	for i, name := range inList {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(" @")
		b.WriteString(name)
		b.WriteString(PositionalSuffix)
		b.WriteString(" = ?")
	}

	return &Query{Text: b.String(), ParameterOrder: inList}, nil
}

// OrderArgs reorders the supplied argument values to match ParameterOrder.
// Build has already verified that every name is present.
func (q *Query) OrderArgs(args map[string]interface{}) []interface{} {
	ordered := make([]interface{}, 0, len(q.ParameterOrder))
	for _, name := range q.ParameterOrder {
		ordered = append(ordered, args[name])
	}
	return ordered
}
