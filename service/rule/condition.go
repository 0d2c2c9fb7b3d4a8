package rule

import (
	"fmt"
	"strings"

	"github.com/viant/mission/model/document"
	"github.com/viant/mission/service/approval"
	"github.com/viant/mission/service/rule/predicate"
)

const (
	contentPrefix = "content."
	metaPrefix    = "meta."
	defaultScore  = "score"
)

// subject exposes request content and metadata to conditions
type subject struct {
	request *approval.Request
	content document.Document
	meta    document.Document
}

func newSubject(request *approval.Request) *subject {
	return &subject{request: request, content: request.Content, meta: request.Meta()}
}

// Lookup resolves content or metadata path
func (s *subject) Lookup(path string) (interface{}, bool) {
	switch {
	case strings.HasPrefix(path, metaPrefix):
		return s.meta.Lookup(path[len(metaPrefix):])
	case strings.HasPrefix(path, contentPrefix):
		return s.content.Lookup(path[len(contentPrefix):])
	case path == "content":
		return map[string]interface{}(s.content), s.content != nil
	}
	return s.content.Lookup(path)
}

func (s *subject) text(field string) (string, bool) {
	if field == "" || field == "content" {
		return s.content.Text(), true
	}
	value, ok := s.Lookup(field)
	if !ok || value == nil {
		return "", false
	}
	switch actual := value.(type) {
	case string:
		return actual, true
	case map[string]interface{}:
		return document.Document(actual).Text(), true
	case document.Document:
		return actual.Text(), true
	case []interface{}:
		return document.Document{"items": actual}.Text(), true
	}
	return fmt.Sprint(value), true
}

func malformed(condition *Condition, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %v: %s", approval.ErrRuleMalformed, condition.Kind, fmt.Sprintf(format, args...))
}

// holds evaluates condition; a non nil error means the condition is malformed
func (c *Condition) holds(s *subject) (bool, error) {
	switch c.Kind {
	case KindContainsKeyword:
		if len(c.Keywords) == 0 {
			return false, malformed(c, "keywords were empty")
		}
		text, ok := s.text(c.Field)
		if !ok {
			return false, nil
		}
		if !c.CaseSensitive {
			text = strings.ToLower(text)
		}
		for _, keyword := range c.Keywords {
			if keyword == "" {
				continue
			}
			if !c.CaseSensitive {
				keyword = strings.ToLower(keyword)
			}
			if strings.Contains(text, keyword) {
				return true, nil
			}
		}
		return false, nil
	case KindScoreBelow, KindScoreAbove:
		if c.Threshold == nil {
			return false, malformed(c, "threshold was empty")
		}
		field := c.Field
		if field == "" {
			field = defaultScore
		}
		value, ok := s.Lookup(field)
		if !ok {
			return false, nil
		}
		score, ok := document.AsFloat(value)
		if !ok {
			return false, nil
		}
		if c.Kind == KindScoreBelow {
			return score < *c.Threshold, nil
		}
		return score > *c.Threshold, nil
	case KindFieldEquals:
		if c.Field == "" {
			return false, malformed(c, "field was empty")
		}
		value, ok := s.Lookup(c.Field)
		if !ok || value == nil {
			return false, nil
		}
		actual := fmt.Sprint(value)
		if c.CaseSensitive {
			return actual == c.Value, nil
		}
		return strings.EqualFold(actual, c.Value), nil
	case KindContentType:
		if c.Value == "" {
			return false, malformed(c, "value was empty")
		}
		return strings.EqualFold(s.request.ContentType, c.Value), nil
	case KindLengthAbove:
		if c.Threshold == nil {
			return false, malformed(c, "threshold was empty")
		}
		text, ok := s.text(c.Field)
		if !ok {
			return false, nil
		}
		return float64(len([]rune(text))) > *c.Threshold, nil
	case KindExpr:
		node, err := predicate.Parse(c.Expr)
		if err != nil {
			return false, malformed(c, "%v", err)
		}
		return node.Eval(s), nil
	}
	return false, malformed(c, "unknown condition kind")
}
