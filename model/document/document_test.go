package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocument_Lookup(t *testing.T) {
	doc := Document{
		"title": "Launch plan",
		"score": 0.42,
		"meta":  map[string]interface{}{"channel": "email", "tries": 3},
		"items": []interface{}{map[string]interface{}{"name": "first"}},
	}

	var testCases = []struct {
		description string
		path        string
		expected    interface{}
		found       bool
	}{
		{description: "top level", path: "title", expected: "Launch plan", found: true},
		{description: "nested", path: "meta.channel", expected: "email", found: true},
		{description: "slice index", path: "items.0.name", expected: "first", found: true},
		{description: "missing", path: "meta.unknown", found: false},
		{description: "index out of range", path: "items.3.name", found: false},
		{description: "empty path", path: "", found: false},
	}

	for _, testCase := range testCases {
		actual, ok := doc.Lookup(testCase.path)
		assert.EqualValues(t, testCase.found, ok, testCase.description)
		if testCase.found {
			assert.EqualValues(t, testCase.expected, actual, testCase.description)
		}
	}

	score, ok := doc.Float("score")
	assert.True(t, ok)
	assert.EqualValues(t, 0.42, score)
	tries, ok := doc.Float("meta.tries")
	assert.True(t, ok)
	assert.EqualValues(t, 3, tries)
}

func TestDocument_TextAndClone(t *testing.T) {
	doc := Document{
		"b":    "second",
		"a":    "first",
		"tags": []interface{}{"x", "y"},
		"n":    1,
	}
	assert.Equal(t, "first\nsecond\nx\ny", doc.Text())

	clone := doc.Clone()
	clone["tags"].([]interface{})[0] = "changed"
	assert.Equal(t, "x", doc["tags"].([]interface{})[0])

	merged := doc.Merge(Document{"c": "third"})
	assert.Equal(t, "third", merged["c"])
	_, has := doc["c"]
	assert.False(t, has)
}
