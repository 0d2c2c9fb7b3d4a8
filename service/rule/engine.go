package rule

import (
	"fmt"
	"sort"
	"strings"

	"github.com/viant/mission/service/approval"
)

// VerdictKind represents engine decision
type VerdictKind string

// Verdict kinds
const (
	AutoApproved       VerdictKind = "autoApproved"
	Rejected           VerdictKind = "rejected"
	PendingHumanReview VerdictKind = "pendingHumanReview"
)

// Verdict represents the outcome of rule evaluation. Malformed lists rules
// skipped because a condition could not be evaluated.
type Verdict struct {
	Kind      VerdictKind
	RuleID    string
	Reason    string
	Malformed []string
	Errors    []error
}

// Order returns active rules scoped to client and agent type in evaluation
// order: ascending priority, then ascending id.
func Order(clientID, agentType string, rules []*Rule) []*Rule {
	ret := make([]*Rule, 0, len(rules))
	for _, candidate := range rules {
		if candidate == nil || !candidate.Active || !candidate.Applies(clientID, agentType) {
			continue
		}
		ret = append(ret, candidate)
	}
	sort.SliceStable(ret, func(i, j int) bool {
		if ret[i].Priority != ret[j].Priority {
			return ret[i].Priority < ret[j].Priority
		}
		return ret[i].ID < ret[j].ID
	})
	return ret
}

// Evaluate returns the verdict of the first firing rule, or
// PendingHumanReview when none fires. All conditions of a rule must hold.
// Malformed rules never fire.
func Evaluate(request *approval.Request, rules []*Rule) *Verdict {
	verdict := &Verdict{Kind: PendingHumanReview}
	if request == nil {
		return verdict
	}
	s := newSubject(request)
	for _, candidate := range Order(request.ClientID, request.AgentType, rules) {
		fired, err := fires(candidate, s)
		if err != nil {
			verdict.Malformed = append(verdict.Malformed, candidate.ID)
			verdict.Errors = append(verdict.Errors, fmt.Errorf("rule %v: %w", candidate.ID, err))
			continue
		}
		if !fired {
			continue
		}
		verdict.RuleID = candidate.ID
		verdict.Reason = candidate.Action.Reason
		switch strings.ToLower(candidate.Action.Verdict) {
		case ActionApprove:
			verdict.Kind = AutoApproved
		case ActionReject:
			verdict.Kind = Rejected
			if verdict.Reason == "" {
				verdict.Reason = fmt.Sprintf("rejected by rule %v", candidate.ID)
			}
		default:
			verdict.Kind = PendingHumanReview
		}
		return verdict
	}
	return verdict
}

func fires(candidate *Rule, s *subject) (bool, error) {
	if err := candidate.Validate(); err != nil {
		return false, fmt.Errorf("%w: %v", approval.ErrRuleMalformed, err)
	}
	if len(candidate.Conditions) == 0 {
		return false, fmt.Errorf("%w: no conditions", approval.ErrRuleMalformed)
	}
	result := true
	for _, condition := range candidate.Conditions {
		if condition == nil {
			return false, fmt.Errorf("%w: nil condition", approval.ErrRuleMalformed)
		}
		holds, err := condition.holds(s)
		if err != nil {
			return false, err
		}
		if !holds {
			result = false
		}
	}
	return result, nil
}
