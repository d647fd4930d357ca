// Package filter compiles user supplied expressions that decide whether a
// tracker torrent should be downloaded.
//
// Expressions use the expr language and must evaluate to a boolean. The
// following variables describe the torrent:
//
//	Name, SmallDescr, Category   string
//	Size, Seeders, Leechers      int
//	Discount                     string (FREE, PERCENT_50, NORMAL, ...)
//	DiscountEnd                  time (zero when there is no end)
//	HasDiscountEnd               bool
//
// Helpers: GiB(n), MiB(n), hoursUntil(t), icontains(s, sub), lower(s),
// upper(s), now(). The contains, startsWith and endsWith operators of the
// language are case sensitive; icontains is not.
//
//	Discount == "FREE" and Size < GiB(20) and Seeders > 5
//	icontains(Name, "2160p") and (not HasDiscountEnd or hoursUntil(DiscountEnd) > 12)
//	Name contains "REMUX" or SmallDescr endsWith "DIY"
package filter

import (
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/s0up4200/mtstation/mteam"
)

// Filter is a compiled expression
type Filter struct {
	expression string
	program    *vm.Program
	clock      func() time.Time
}

// Compile compiles an expression into a Filter
func Compile(expression string) (*Filter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, &CompileError{Expression: expression, Err: ErrEmptyExpression}
	}

	// Type check against a zero torrent so misspelled helpers fail early
	program, err := expr.Compile(expression,
		expr.Env(environment(&mteam.Detail{}, time.Now())),
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	)
	if err != nil {
		return nil, &CompileError{Expression: expression, Err: err}
	}

	return &Filter{
		expression: expression,
		program:    program,
		clock:      time.Now,
	}, nil
}

// Evaluate runs the filter against a torrent detail. tid identifies the
// torrent in errors when d is nil.
func (f *Filter) Evaluate(tid string, d *mteam.Detail) (bool, error) {
	if d == nil {
		return false, &MatchError{Expression: f.expression, TID: tid, Err: ErrNoDetail}
	}

	result, err := expr.Run(f.program, environment(d, f.clock()))
	if err != nil {
		return false, &MatchError{
			Expression: f.expression,
			TID:        tid,
			Name:       d.Name,
			Err:        err,
		}
	}

	// AsBool guarantees the result type
	return result.(bool), nil
}

// Expression returns the original expression
func (f *Filter) Expression() string {
	return f.expression
}

// String implements fmt.Stringer
func (f *Filter) String() string {
	return f.expression
}

func environment(d *mteam.Detail, now time.Time) map[string]any {
	end, ok, err := d.DiscountEnd()
	if err != nil {
		ok = false
		end = time.Time{}
	}

	env := make(map[string]any, 24)
	addHelperFunctions(env, now)

	env["Name"] = d.Name
	env["SmallDescr"] = d.SmallDescr
	env["Category"] = d.Category
	env["Size"] = int(d.Size)
	env["Discount"] = d.Status.Discount
	env["DiscountEnd"] = end
	env["HasDiscountEnd"] = ok
	env["Seeders"] = int(d.Status.Seeders)
	env["Leechers"] = int(d.Status.Leechers)

	return env
}

func addHelperFunctions(env map[string]any, now time.Time) {
	// Size helpers
	env["GiB"] = func(n float64) int {
		return int(n * (1 << 30))
	}
	env["MiB"] = func(n float64) int {
		return int(n * (1 << 20))
	}
	// Date helpers
	env["hoursUntil"] = func(t time.Time) float64 {
		if t.IsZero() {
			return 0
		}
		return t.Sub(now).Hours()
	}
	env["now"] = func() time.Time {
		return now
	}
	// String helpers
	env["icontains"] = func(str, substr string) bool {
		return strings.Contains(strings.ToLower(str), strings.ToLower(substr))
	}
	env["lower"] = strings.ToLower
	env["upper"] = strings.ToUpper
}
