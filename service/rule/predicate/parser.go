package predicate

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/viant/parsly"
)

// ErrMalformed is returned for predicates that cannot be parsed or use
// unknown functions or wrong arguments
var ErrMalformed = errors.New("predicate: malformed expression")

type parser struct {
	cursor *parsly.Cursor
}

// Parse parses predicate text
func Parse(text string) (Node, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty expression", ErrMalformed)
	}
	p := &parser{cursor: parsly.NewCursor("", []byte(text), 0)}
	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	p.cursor.MatchOne(whitespaceToken)
	if p.cursor.Pos < p.cursor.InputSize {
		return nil, fmt.Errorf("%w: unexpected %q at %d", ErrMalformed, string(p.cursor.Input[p.cursor.Pos:]), p.cursor.Pos)
	}
	return node, nil
}

func (p *parser) malformed(tokens ...*parsly.Token) error {
	return fmt.Errorf("%w: %v", ErrMalformed, p.cursor.NewError(tokens...))
}

func (p *parser) parseOr() (Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		pos := p.cursor.Pos
		matched := p.cursor.MatchAfterOptional(whitespaceToken, orToken)
		if matched.Code != orToken.Code {
			p.cursor.Pos = pos
			return left, nil
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &Or{Left: left, Right: right}
	}
}

func (p *parser) parseAnd() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		pos := p.cursor.Pos
		matched := p.cursor.MatchAfterOptional(whitespaceToken, andToken)
		if matched.Code != andToken.Code {
			p.cursor.Pos = pos
			return left, nil
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &And{Left: left, Right: right}
	}
}

func (p *parser) parseUnary() (Node, error) {
	matched := p.cursor.MatchAfterOptional(whitespaceToken, notToken, openParenToken, identifierToken)
	switch matched.Code {
	case notToken.Code:
		node, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Not{Node: node}, nil
	case openParenToken.Code:
		node, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if matched = p.cursor.MatchAfterOptional(whitespaceToken, closeParenToken); matched.Code != closeParenToken.Code {
			return nil, p.malformed(closeParenToken)
		}
		return node, nil
	case identifierToken.Code:
		return p.parseCall(matched.Text(p.cursor))
	}
	return nil, p.malformed(notToken, openParenToken, identifierToken)
}

func (p *parser) parseCall(name string) (Node, error) {
	call := &Call{Name: strings.ToLower(name)}
	fn, ok := functions[call.Name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown function %v", ErrMalformed, name)
	}
	if matched := p.cursor.MatchAfterOptional(whitespaceToken, openParenToken); matched.Code != openParenToken.Code {
		return nil, p.malformed(openParenToken)
	}
	matched := p.cursor.MatchAfterOptional(whitespaceToken, closeParenToken, stringToken, numberToken, identifierToken)
	for matched.Code != closeParenToken.Code {
		arg, err := p.argument(matched)
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, arg)
		matched = p.cursor.MatchAfterOptional(whitespaceToken, commaToken, closeParenToken)
		switch matched.Code {
		case commaToken.Code:
			matched = p.cursor.MatchAfterOptional(whitespaceToken, stringToken, numberToken, identifierToken)
		case closeParenToken.Code:
		default:
			return nil, p.malformed(commaToken, closeParenToken)
		}
	}
	if err := validate(call, fn); err != nil {
		return nil, err
	}
	return call, nil
}

func (p *parser) argument(matched *parsly.TokenMatch) (Arg, error) {
	text := matched.Text(p.cursor)
	switch matched.Code {
	case stringCode:
		return Arg{Kind: ArgString, Text: unquote(text)}, nil
	case numberCode:
		number, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Arg{}, fmt.Errorf("%w: invalid number %v", ErrMalformed, text)
		}
		return Arg{Kind: ArgNumber, Text: text, Number: number}, nil
	case identifierCode:
		return Arg{Kind: ArgPath, Text: text}, nil
	}
	return Arg{}, p.malformed(stringToken, numberToken, identifierToken)
}

func validate(call *Call, fn *function) error {
	count := len(call.Args)
	if count < fn.minArgs || (fn.maxArgs >= 0 && count > fn.maxArgs) {
		return fmt.Errorf("%w: %v: unexpected argument count %d", ErrMalformed, call.Name, count)
	}
	if call.Args[0].Kind != ArgPath {
		return fmt.Errorf("%w: %v: first argument must be a field", ErrMalformed, call.Name)
	}
	if fn.numeric && call.Args[1].Kind != ArgNumber {
		return fmt.Errorf("%w: %v: expected numeric argument", ErrMalformed, call.Name)
	}
	return nil
}

func unquote(text string) string {
	if len(text) < 2 {
		return text
	}
	body := text[1 : len(text)-1]
	if !strings.Contains(body, "\\") {
		return body
	}
	var builder strings.Builder
	for i := 0; i < len(body); i++ {
		if body[i] == '\\' && i+1 < len(body) {
			i++
			switch body[i] {
			case 'n':
				builder.WriteByte('\n')
			case 't':
				builder.WriteByte('\t')
			default:
				builder.WriteByte(body[i])
			}
			continue
		}
		builder.WriteByte(body[i])
	}
	return builder.String()
}
