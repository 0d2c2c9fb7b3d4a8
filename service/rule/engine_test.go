package rule

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/mission/model/document"
	"github.com/viant/mission/model/mission"
	"github.com/viant/mission/service/approval"
)

func newRequest(content document.Document) *approval.Request {
	task := mission.NewTask("t1", "writer", "blog", nil).WithContentType("article")
	task.MissionID = "m1"
	task.ClientID = "acme"
	return approval.NewRequest("r1", task, content)
}

func newRule(id string, priority int, verdict string, conditions ...*Condition) *Rule {
	return &Rule{ID: id, ClientID: "acme", Priority: priority, Active: true, Action: Action{Verdict: verdict}, Conditions: conditions}
}

func TestEvaluate(t *testing.T) {
	content := document.Document{
		"title": "Weekly digest",
		"body":  "Our product is the BEST, buy now",
		"score": 0.72,
		"meta":  map[string]interface{}{"lang": "en"},
	}
	var testCases = []struct {
		description string
		rules       []*Rule
		expectKind  VerdictKind
		expectRule  string
		malformed   []string
	}{
		{
			description: "no rules",
			expectKind:  PendingHumanReview,
		},
		{
			description: "keyword reject",
			rules:       []*Rule{newRule("ban", 1, ActionReject, &Condition{Kind: KindContainsKeyword, Keywords: []string{"buy now"}})},
			expectKind:  Rejected,
			expectRule:  "ban",
		},
		{
			description: "case sensitive keyword does not match",
			rules:       []*Rule{newRule("ban", 1, ActionReject, &Condition{Kind: KindContainsKeyword, Keywords: []string{"best"}, CaseSensitive: true})},
			expectKind:  PendingHumanReview,
		},
		{
			description: "all conditions must hold",
			rules: []*Rule{newRule("quality", 1, ActionApprove,
				&Condition{Kind: KindScoreAbove, Threshold: Threshold(0.7)},
				&Condition{Kind: KindContentType, Value: "newsletter"},
			)},
			expectKind: PendingHumanReview,
		},
		{
			description: "and of conditions",
			rules: []*Rule{newRule("quality", 1, ActionApprove,
				&Condition{Kind: KindScoreAbove, Threshold: Threshold(0.7)},
				&Condition{Kind: KindContentType, Value: "ARTICLE"},
				&Condition{Kind: KindFieldEquals, Field: "meta.agentType", Value: "writer"},
				&Condition{Kind: KindFieldEquals, Field: "content.meta.lang", Value: "en"},
				&Condition{Kind: KindLengthAbove, Field: "body", Threshold: Threshold(10)},
			)},
			expectKind: AutoApproved,
			expectRule: "quality",
		},
		{
			description: "first match wins by priority",
			rules: []*Rule{
				newRule("a-approve", 5, ActionApprove, &Condition{Kind: KindScoreAbove, Threshold: Threshold(0.5)}),
				newRule("z-reject", 1, ActionReject, &Condition{Kind: KindScoreBelow, Threshold: Threshold(0.9)}),
			},
			expectKind: Rejected,
			expectRule: "z-reject",
		},
		{
			description: "equal priority ordered by id",
			rules: []*Rule{
				newRule("b", 0, ActionReject, &Condition{Kind: KindScoreAbove, Threshold: Threshold(0.5)}),
				newRule("a", 0, ActionApprove, &Condition{Kind: KindScoreAbove, Threshold: Threshold(0.5)}),
			},
			expectKind: AutoApproved,
			expectRule: "a",
		},
		{
			description: "inactive and foreign rules are skipped",
			rules: []*Rule{
				{ID: "off", ClientID: "acme", Action: Action{Verdict: ActionReject}, Conditions: []*Condition{{Kind: KindScoreAbove, Threshold: Threshold(0)}}},
				{ID: "other", ClientID: "globex", Active: true, Action: Action{Verdict: ActionReject}, Conditions: []*Condition{{Kind: KindScoreAbove, Threshold: Threshold(0)}}},
				{ID: "agent", ClientID: "acme", AgentType: "designer", Active: true, Action: Action{Verdict: ActionReject}, Conditions: []*Condition{{Kind: KindScoreAbove, Threshold: Threshold(0)}}},
			},
			expectKind: PendingHumanReview,
		},
		{
			description: "malformed rules do not fire",
			rules: []*Rule{
				newRule("bad-kind", 1, ActionApprove, &Condition{Kind: "sentiment_above"}),
				newRule("bad-expr", 2, ActionApprove, &Condition{Kind: KindExpr, Expr: "contains(body"}),
				newRule("bad-threshold", 3, ActionApprove, &Condition{Kind: KindScoreAbove}),
				newRule("empty", 4, ActionApprove),
				newRule("bad-action", 5, "publish", &Condition{Kind: KindScoreAbove, Threshold: Threshold(0)}),
			},
			expectKind: PendingHumanReview,
			malformed:  []string{"bad-kind", "bad-expr", "bad-threshold", "empty", "bad-action"},
		},
		{
			description: "malformed condition poisons rule even after false condition",
			rules: []*Rule{
				newRule("mixed", 1, ActionReject, &Condition{Kind: KindScoreAbove, Threshold: Threshold(0.99)}, &Condition{Kind: KindFieldEquals}),
				newRule("ok", 2, ActionApprove, &Condition{Kind: KindScoreAbove, Threshold: Threshold(0.1)}),
			},
			expectKind: AutoApproved,
			expectRule: "ok",
			malformed:  []string{"mixed"},
		},
		{
			description: "expression",
			rules: []*Rule{newRule("expr", 1, ActionReject,
				&Condition{Kind: KindExpr, Expr: `contains(body, "buy now") && equals(meta.clientId, "acme") && !below(score, 0.5)`})},
			expectKind: Rejected,
			expectRule: "expr",
		},
		{
			description: "review action",
			rules:       []*Rule{newRule("sensitive", 1, ActionReview, &Condition{Kind: KindContainsKeyword, Field: "title", Keywords: []string{"digest"}})},
			expectKind:  PendingHumanReview,
			expectRule:  "sensitive",
		},
	}

	for _, testCase := range testCases {
		request := newRequest(content)
		verdict := Evaluate(request, testCase.rules)
		assert.Equal(t, testCase.expectKind, verdict.Kind, testCase.description)
		assert.Equal(t, testCase.expectRule, verdict.RuleID, testCase.description)
		assert.EqualValues(t, testCase.malformed, verdict.Malformed, testCase.description)
		for _, err := range verdict.Errors {
			assert.True(t, errors.Is(err, approval.ErrRuleMalformed), testCase.description)
		}
		assert.Equal(t, approval.StatusPending, request.Status, "evaluation must not mutate request")
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	rules := []*Rule{
		newRule("r3", 0, ActionApprove, &Condition{Kind: KindScoreAbove, Threshold: Threshold(0.1)}),
		newRule("r1", 0, ActionReject, &Condition{Kind: KindContainsKeyword, Keywords: []string{"spam"}}),
		newRule("r2", 0, ActionReject, &Condition{Kind: KindScoreBelow, Threshold: Threshold(0.5)}),
	}
	request := newRequest(document.Document{"body": "no spam here", "score": 0.3})
	first := Evaluate(request, rules)
	for i := 0; i < 20; i++ {
		assert.EqualValues(t, first, Evaluate(request, rules))
	}
	assert.Equal(t, "r1", first.RuleID)

	reversed := []*Rule{rules[2], rules[1], rules[0]}
	assert.EqualValues(t, first, Evaluate(request, reversed))
}

func TestEvaluate_RejectReason(t *testing.T) {
	rules := []*Rule{newRule("ban", 1, ActionReject, &Condition{Kind: KindContainsKeyword, Keywords: []string{"casino"}})}
	verdict := Evaluate(newRequest(document.Document{"body": "Casino night"}), rules)
	require.Equal(t, Rejected, verdict.Kind)
	assert.Equal(t, "rejected by rule ban", verdict.Reason)
}

func TestOrder(t *testing.T) {
	rules := []*Rule{
		newRule("c", 2, ActionApprove),
		newRule("b", 1, ActionApprove),
		newRule("a", 2, ActionApprove),
	}
	var ids []string
	for _, candidate := range Order("acme", "writer", rules) {
		ids = append(ids, candidate.ID)
	}
	assert.EqualValues(t, []string{"b", "a", "c"}, ids)
}
