package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAbbreviate(t *testing.T) {
	var testCases = []struct {
		description string
		text        string
		limit       int
		expect      string
	}{
		{description: "short", text: "hello", limit: 10, expect: "hello"},
		{description: "whitespace", text: "a \n\t b", limit: 10, expect: "a b"},
		{description: "long", text: "abcdefghijkl", limit: 8, expect: "abcde..."},
	}
	for _, testCase := range testCases {
		assert.Equal(t, testCase.expect, abbreviate(testCase.text, testCase.limit), testCase.description)
	}
}
