package policy

import (
	"context"
	"strings"
)

// Failure policies.
const (
	// FailFast stops dispatching as soon as one task fails permanently.
	FailFast = "fail-fast"
	// Continue lets independent branches finish before the mission fails.
	Continue = "continue"
)

// GateAll gates every task type.
const GateAll = "*"

// Policy is the serialisable scheduling policy of a mission.
//
//   - Gated lists task types whose output must pass the approval gateway
//     (GateAll gates everything, empty gates nothing).
//   - Ungated lists task types exempt from gating, it has priority over Gated.
//   - Failure is FailFast (default) or Continue.
//
// A nil *Policy gates nothing and fails fast.
type Policy struct {
	Gated   []string `json:"gated,omitempty" yaml:"gated,omitempty" mapstructure:"gated"`
	Ungated []string `json:"ungated,omitempty" yaml:"ungated,omitempty" mapstructure:"ungated"`
	Failure string   `json:"failure,omitempty" yaml:"failure,omitempty" mapstructure:"failure"`
}

// RequiresApproval reports whether taskType output is gated. Task types match
// case-insensitively.
func (p *Policy) RequiresApproval(taskType string) bool {
	if p == nil {
		return false
	}
	normalized := strings.ToLower(taskType)
	for _, candidate := range p.Ungated {
		if normalized == strings.ToLower(candidate) {
			return false
		}
	}
	for _, candidate := range p.Gated {
		if candidate == GateAll || normalized == strings.ToLower(candidate) {
			return true
		}
	}
	return false
}

// IsFailFast reports whether failures stop the whole mission.
func (p *Policy) IsFailFast() bool {
	if p == nil {
		return true
	}
	return !strings.EqualFold(p.Failure, Continue)
}

// Clone returns a copy of the policy.
func (p *Policy) Clone() *Policy {
	if p == nil {
		return nil
	}
	return &Policy{
		Gated:   append([]string(nil), p.Gated...),
		Ungated: append([]string(nil), p.Ungated...),
		Failure: p.Failure,
	}
}

// Merge returns override on top of p: non-empty override fields win.
func (p *Policy) Merge(override *Policy) *Policy {
	if override == nil {
		return p.Clone()
	}
	ret := p.Clone()
	if ret == nil {
		return override.Clone()
	}
	if len(override.Gated) > 0 {
		ret.Gated = append([]string(nil), override.Gated...)
	}
	if len(override.Ungated) > 0 {
		ret.Ungated = append([]string(nil), override.Ungated...)
	}
	if override.Failure != "" {
		ret.Failure = override.Failure
	}
	return ret
}

// Validate checks the failure mode.
func (p *Policy) Validate() error {
	if p == nil || p.Failure == "" {
		return nil
	}
	switch strings.ToLower(p.Failure) {
	case FailFast, Continue:
		return nil
	}
	return &InvalidError{Failure: p.Failure}
}

// InvalidError reports an unknown failure policy.
type InvalidError struct {
	Failure string
}

func (e *InvalidError) Error() string {
	return "unsupported failure policy: " + e.Failure
}

// ---------------------------------------------------------------------------
// Context helpers
// ---------------------------------------------------------------------------

type ctxKeyT struct{}

var ctxKey ctxKeyT

// WithPolicy embeds policy in ctx.
func WithPolicy(ctx context.Context, p *Policy) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey, p)
}

// FromContext extracts the policy or nil.
func FromContext(ctx context.Context) *Policy {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxKey).(*Policy); ok {
		return v
	}
	return nil
}
