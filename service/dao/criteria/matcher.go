package criteria

import (
	"github.com/viant/mission/service/dao"
)

// Fields exposes named record values used by list filters.
type Fields func(name string) (string, bool)

// Match returns true when every parameter matches the corresponding record
// field. Parameters naming unknown fields are ignored.
func Match(fields Fields, parameters []*dao.Parameter) bool {
	for _, parameter := range parameters {
		if parameter == nil {
			continue
		}
		actual, ok := fields(parameter.Name)
		if !ok {
			continue
		}
		if !MatchValue(actual, parameter.Value) {
			return false
		}
	}
	return true
}

// MatchValue matches actual against string or []string expectation.
func MatchValue(actual string, expected interface{}) bool {
	switch candidate := expected.(type) {
	case string:
		return actual == candidate
	case []string:
		for _, s := range candidate {
			if actual == s {
				return true
			}
		}
		return false
	}
	return true
}
