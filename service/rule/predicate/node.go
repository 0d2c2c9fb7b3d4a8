package predicate

import (
	"fmt"
	"strings"

	"github.com/viant/mission/model/document"
)

// Env resolves field paths used as call arguments
type Env interface {
	Lookup(path string) (interface{}, bool)
}

// Node represents a parsed predicate
type Node interface {
	Eval(env Env) bool
	String() string
}

// ArgKind describes argument literal kind
type ArgKind int

// Argument kinds
const (
	ArgPath ArgKind = iota
	ArgString
	ArgNumber
)

// Arg represents call argument
type Arg struct {
	Kind   ArgKind
	Text   string
	Number float64
}

func (a Arg) String() string {
	if a.Kind == ArgString {
		return fmt.Sprintf("%q", a.Text)
	}
	return a.Text
}

// Call represents function call predicate
type Call struct {
	Name string
	Args []Arg
}

// Eval evaluates call against env
func (c *Call) Eval(env Env) bool {
	fn, ok := functions[c.Name]
	if !ok {
		return false
	}
	value, found := env.Lookup(c.Args[0].Text)
	return fn.eval(value, found, c.Args[1:])
}

func (c *Call) String() string {
	args := make([]string, len(c.Args))
	for i, arg := range c.Args {
		args[i] = arg.String()
	}
	return c.Name + "(" + strings.Join(args, ", ") + ")"
}

// And is true when both operands are true
type And struct{ Left, Right Node }

// Eval evaluates conjunction
func (n *And) Eval(env Env) bool { return n.Left.Eval(env) && n.Right.Eval(env) }

func (n *And) String() string { return "(" + n.Left.String() + " && " + n.Right.String() + ")" }

// Or is true when any operand is true
type Or struct{ Left, Right Node }

// Eval evaluates disjunction
func (n *Or) Eval(env Env) bool { return n.Left.Eval(env) || n.Right.Eval(env) }

func (n *Or) String() string { return "(" + n.Left.String() + " || " + n.Right.String() + ")" }

// Not negates operand
type Not struct{ Node Node }

// Eval evaluates negation
func (n *Not) Eval(env Env) bool { return !n.Node.Eval(env) }

func (n *Not) String() string { return "!" + n.Node.String() }

type function struct {
	minArgs int
	maxArgs int
	numeric bool
	eval    func(value interface{}, found bool, args []Arg) bool
}

var functions = map[string]*function{
	"contains": {minArgs: 2, maxArgs: -1, eval: containsAny},
	"equals":   {minArgs: 2, maxArgs: 2, eval: equals},
	"below":    {minArgs: 2, maxArgs: 2, numeric: true, eval: compare(func(a, b float64) bool { return a < b })},
	"above":    {minArgs: 2, maxArgs: 2, numeric: true, eval: compare(func(a, b float64) bool { return a > b })},
	"longer":   {minArgs: 2, maxArgs: 2, numeric: true, eval: lengthCompare(func(a, b float64) bool { return a > b })},
	"shorter":  {minArgs: 2, maxArgs: 2, numeric: true, eval: lengthCompare(func(a, b float64) bool { return a < b })},
	"exists":   {minArgs: 1, maxArgs: 1, eval: func(_ interface{}, found bool, _ []Arg) bool { return found }},
}

// Functions returns supported function names
func Functions() []string {
	return []string{"above", "below", "contains", "equals", "exists", "longer", "shorter"}
}

func containsAny(value interface{}, found bool, args []Arg) bool {
	if !found || value == nil {
		return false
	}
	var texts []string
	switch actual := value.(type) {
	case string:
		texts = []string{actual}
	case []interface{}:
		for _, item := range actual {
			if text, ok := item.(string); ok {
				texts = append(texts, text)
			}
		}
	case []string:
		texts = actual
	case map[string]interface{}:
		texts = []string{document.Document(actual).Text()}
	case document.Document:
		texts = []string{actual.Text()}
	default:
		texts = []string{fmt.Sprint(actual)}
	}
	for _, text := range texts {
		text = strings.ToLower(text)
		for _, arg := range args {
			if arg.Text != "" && strings.Contains(text, strings.ToLower(arg.Text)) {
				return true
			}
		}
	}
	return false
}

func equals(value interface{}, found bool, args []Arg) bool {
	if !found {
		return false
	}
	expected := args[0]
	if expected.Kind == ArgNumber {
		actual, ok := document.AsFloat(value)
		return ok && actual == expected.Number
	}
	return fmt.Sprint(value) == expected.Text
}

func compare(op func(a, b float64) bool) func(value interface{}, found bool, args []Arg) bool {
	return func(value interface{}, found bool, args []Arg) bool {
		if !found {
			return false
		}
		actual, ok := document.AsFloat(value)
		return ok && op(actual, args[0].Number)
	}
}

func lengthCompare(op func(a, b float64) bool) func(value interface{}, found bool, args []Arg) bool {
	return func(value interface{}, found bool, args []Arg) bool {
		if !found || value == nil {
			return false
		}
		var size int
		switch actual := value.(type) {
		case string:
			size = len([]rune(actual))
		case []interface{}:
			size = len(actual)
		default:
			size = len([]rune(fmt.Sprint(actual)))
		}
		return op(float64(size), args[0].Number)
	}
}
