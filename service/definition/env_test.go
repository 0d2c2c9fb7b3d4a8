package definition

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandEnv(t *testing.T) {
	var testCases = []struct {
		description string
		env         map[string]string
		input       string
		expect      string
	}{
		{description: "no expressions", input: "just a plain string", expect: "just a plain string"},
		{description: "single", env: map[string]string{"MISSION_CLIENT": "acme"}, input: "client: ${env.MISSION_CLIENT}", expect: "client: acme"},
		{description: "multiple", env: map[string]string{"A": "1", "B": "2"}, input: "${env.A}-${env.B}-${env.A}", expect: "1-2-1"},
		{description: "unset", input: "unset=${env.MISSION_NOT_SET}-end", expect: "unset=-end"},
		{description: "missing brace", env: map[string]string{"X": "x"}, input: "start ${env.X and ${env.Y} end", expect: "start ${env.X and  end"},
		{description: "invalid key", input: "keep ${env.a-b}", expect: "keep ${env.a-b}"},
	}
	for _, testCase := range testCases {
		for k, v := range testCase.env {
			t.Setenv(k, v)
		}
		assert.Equal(t, testCase.expect, expandEnv(testCase.input), testCase.description)
	}
}
