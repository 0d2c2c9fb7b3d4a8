package definition

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/viant/mission/internal/clock"
	"github.com/viant/mission/internal/yml"
	"github.com/viant/mission/service/rule"
)

// DecodeRules decodes a rule set. The document is either a sequence of rules
// or a mapping with an optional clientId applied to every rule and a rules
// sequence. Rules are active unless active: false is set.
func DecodeRules(encoded []byte) ([]*rule.Rule, error) {
	var node yaml.Node
	if err := yaml.Unmarshal([]byte(expandEnv(string(encoded))), &node); err != nil {
		return nil, fmt.Errorf("invalid rule set: %w", err)
	}
	root := (*yml.Node)(&node).Root()
	clientID := ""
	items := root
	if root.Kind == yaml.MappingNode {
		if value := root.Lookup("clientId"); value != nil {
			clientID = value.Value
		}
		if items = root.Lookup("rules"); items == nil {
			return nil, nil
		}
	}
	if items.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("invalid rule set: rules: expected sequence")
	}
	var ret []*rule.Rule
	seen := map[string]bool{}
	err := items.Items(func(index int, value *yml.Node) error {
		aRule := &rule.Rule{}
		if err := value.Decode(aRule); err != nil {
			return fmt.Errorf("rule #%d: %w", index, err)
		}
		if !value.Has("active") {
			aRule.Active = true
		}
		if aRule.ClientID == "" {
			aRule.ClientID = clientID
		}
		if aRule.Name == "" {
			aRule.Name = aRule.ID
		}
		aRule.Action.Verdict = strings.ToLower(aRule.Action.Verdict)
		aRule.CreatedAt = clock.Now()
		if err := aRule.Validate(); err != nil {
			return fmt.Errorf("rule #%d: %w", index, err)
		}
		if seen[aRule.ID] {
			return fmt.Errorf("rule #%d: duplicate id %v", index, aRule.ID)
		}
		seen[aRule.ID] = true
		ret = append(ret, aRule)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}
