package predicate

import (
	"github.com/viant/parsly"
	"github.com/viant/parsly/matcher"
)

// Token codes
const (
	whitespaceCode = iota
	identifierCode
	stringCode
	numberCode
	openParenCode
	closeParenCode
	commaCode
	notCode
	andCode
	orCode
)

var (
	whitespaceToken = parsly.NewToken(whitespaceCode, "Whitespace", matcher.NewWhiteSpace())
	identifierToken = parsly.NewToken(identifierCode, "Identifier", &identifierMatcher{})
	stringToken     = parsly.NewToken(stringCode, "String", &quotedMatcher{})
	numberToken     = parsly.NewToken(numberCode, "Number", &numberMatcher{})
	openParenToken  = parsly.NewToken(openParenCode, "(", matcher.NewByte('('))
	closeParenToken = parsly.NewToken(closeParenCode, ")", matcher.NewByte(')'))
	commaToken      = parsly.NewToken(commaCode, ",", matcher.NewByte(','))
	notToken        = parsly.NewToken(notCode, "!", &notMatcher{})
	andToken        = parsly.NewToken(andCode, "&&", &operatorMatcher{operator: "&&"})
	orToken         = parsly.NewToken(orCode, "||", &operatorMatcher{operator: "||"})
)

// identifierMatcher matches function names and dotted field paths
type identifierMatcher struct{}

func (m *identifierMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	size := cursor.InputSize
	if pos >= size {
		return 0
	}
	if !isLetter(input[pos]) && input[pos] != '_' {
		return 0
	}
	matched := 1
	for i := pos + 1; i < size; i++ {
		if isLetter(input[i]) || isDigit(input[i]) || input[i] == '_' || input[i] == '.' || input[i] == '-' {
			matched++
			continue
		}
		break
	}
	return matched
}

// quotedMatcher matches single or double quoted text with backslash escapes
type quotedMatcher struct{}

func (m *quotedMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	size := cursor.InputSize
	if pos >= size {
		return 0
	}
	quote := input[pos]
	if quote != '"' && quote != '\'' {
		return 0
	}
	for i := pos + 1; i < size; i++ {
		switch input[i] {
		case '\\':
			i++
		case quote:
			return i - pos + 1
		}
	}
	return 0
}

// numberMatcher matches optionally signed decimal numbers
type numberMatcher struct{}

func (m *numberMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	size := cursor.InputSize
	i := pos
	if i < size && (input[i] == '-' || input[i] == '+') {
		i++
	}
	digits := 0
	dot := false
	for ; i < size; i++ {
		if isDigit(input[i]) {
			digits++
			continue
		}
		if input[i] == '.' && !dot {
			dot = true
			continue
		}
		break
	}
	if digits == 0 {
		return 0
	}
	return i - pos
}

// notMatcher matches a single '!' that does not start '!='
type notMatcher struct{}

func (m *notMatcher) Match(cursor *parsly.Cursor) int {
	pos := cursor.Pos
	if pos >= cursor.InputSize || cursor.Input[pos] != '!' {
		return 0
	}
	if pos+1 < cursor.InputSize && cursor.Input[pos+1] == '=' {
		return 0
	}
	return 1
}

// operatorMatcher matches a fixed multi byte operator
type operatorMatcher struct {
	operator string
}

func (m *operatorMatcher) Match(cursor *parsly.Cursor) int {
	pos := cursor.Pos
	if pos+len(m.operator) > cursor.InputSize {
		return 0
	}
	if string(cursor.Input[pos:pos+len(m.operator)]) != m.operator {
		return 0
	}
	return len(m.operator)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
