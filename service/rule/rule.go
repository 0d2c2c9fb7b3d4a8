package rule

import (
	"fmt"
	"strings"
	"time"
)

// Kind identifies a condition predicate
type Kind string

// Supported condition kinds
const (
	KindContainsKeyword Kind = "contains_keyword"
	KindScoreBelow      Kind = "score_below"
	KindScoreAbove      Kind = "score_above"
	KindFieldEquals     Kind = "field_equals"
	KindContentType     Kind = "content_type"
	KindLengthAbove     Kind = "length_above"
	KindExpr            Kind = "expr"
)

// Condition represents a single predicate over request content and metadata.
// Field paths address content by default; "content." and "meta." prefixes
// select the source explicitly.
type Condition struct {
	Kind          Kind     `json:"kind" yaml:"kind"`
	Field         string   `json:"field,omitempty" yaml:"field,omitempty"`
	Value         string   `json:"value,omitempty" yaml:"value,omitempty"`
	Keywords      []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	Threshold     *float64 `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	Expr          string   `json:"expr,omitempty" yaml:"expr,omitempty"`
	CaseSensitive bool     `json:"caseSensitive,omitempty" yaml:"caseSensitive,omitempty"`
}

// Action verdicts
const (
	ActionApprove = "approve"
	ActionReject  = "reject"
	ActionReview  = "review"
)

// Action represents the rule outcome when it fires
type Action struct {
	Verdict string `json:"verdict" yaml:"verdict"`
	Reason  string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Rule represents an auto-approval rule owned by a client. An empty
// AgentType matches every agent.
type Rule struct {
	ID         string       `json:"id" yaml:"id"`
	Name       string       `json:"name" yaml:"name"`
	ClientID   string       `json:"clientId" yaml:"clientId"`
	AgentType  string       `json:"agentType,omitempty" yaml:"agentType,omitempty"`
	Priority   int          `json:"priority,omitempty" yaml:"priority,omitempty"`
	Conditions []*Condition `json:"conditions" yaml:"conditions"`
	Action     Action       `json:"action" yaml:"action"`
	Active     bool         `json:"active" yaml:"active"`
	Version    int          `json:"version" yaml:"version"`
	CreatedAt  time.Time    `json:"createdAt" yaml:"createdAt"`
}

// Applies reports whether the rule is scoped to client and agent type
func (r *Rule) Applies(clientID, agentType string) bool {
	if r.ClientID != "" && r.ClientID != clientID {
		return false
	}
	return r.AgentType == "" || strings.EqualFold(r.AgentType, agentType)
}

// Validate checks rule structure; conditions are checked by the engine
func (r *Rule) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("rule id was empty")
	}
	switch strings.ToLower(r.Action.Verdict) {
	case ActionApprove, ActionReject, ActionReview:
	default:
		return fmt.Errorf("rule %v: unsupported action %q", r.ID, r.Action.Verdict)
	}
	return nil
}

// GetVersion returns record version used for optimistic concurrency
func (r *Rule) GetVersion() int { return r.Version }

// SetVersion sets record version
func (r *Rule) SetVersion(version int) { r.Version = version }

// Clone creates a deep copy
func (r *Rule) Clone() *Rule {
	if r == nil {
		return nil
	}
	clone := *r
	clone.Conditions = make([]*Condition, len(r.Conditions))
	for i, condition := range r.Conditions {
		if condition == nil {
			continue
		}
		c := *condition
		c.Keywords = append([]string(nil), condition.Keywords...)
		if condition.Threshold != nil {
			threshold := *condition.Threshold
			c.Threshold = &threshold
		}
		clone.Conditions[i] = &c
	}
	return &clone
}

// Threshold returns a pointer to value, handy for condition literals
func Threshold(value float64) *float64 {
	return &value
}
