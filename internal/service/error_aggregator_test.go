package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateViolationsAllValid(t *testing.T) {
	results := []FileValidation{
		{Title: "People"},
		{Title: "Places", Violations: nil},
	}
	assert.Nil(t, AggregateViolations(results))
	assert.Nil(t, AggregateViolations(nil))
}

func TestAggregateViolationsReport(t *testing.T) {
	results := []FileValidation{
		{Title: "People", Violations: []string{"People: missing column 'id'"}},
		{Title: "Places"},
		{Title: "Things", Violations: []string{"a", "b"}},
	}

	messages := AggregateViolations(results)
	require.Len(t, messages, 3)
	assert.Equal(t, "Dataset files is invalid", messages[0])
	assert.Equal(t, "Your file 'People' does not match the schema you provided", messages[1])
	assert.Equal(t, "Your file 'Things' does not match the schema you provided", messages[2])
}

func TestAggregateViolationsOrderFollowsSubmission(t *testing.T) {
	results := []FileValidation{
		{Title: "B", Violations: []string{"x"}},
		{Title: "A", Violations: []string{"y"}},
	}

	messages := AggregateViolations(results)
	require.Len(t, messages, 3)
	assert.Equal(t, "Your file 'B' does not match the schema you provided", messages[1])
	assert.Equal(t, "Your file 'A' does not match the schema you provided", messages[2])
}

func TestAggregateViolationsDeterministic(t *testing.T) {
	results := []FileValidation{
		{Title: "One", Violations: []string{"v"}},
		{Title: "Two", Violations: []string{"w"}},
	}

	first := AggregateViolations(results)
	second := AggregateViolations(results)
	assert.Equal(t, first, second)
}
