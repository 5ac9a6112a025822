package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func trackedCandidate(services, results int, hasSummary bool) *Candidate {
	c := &Candidate{}
	for i := 0; i < services; i++ {
		id := string(rune('a' + i))
		c.AssignedServices = append(c.AssignedServices, AssignedService{ServiceID: id, ServiceName: "Check " + id})
		if i < results {
			c.ServiceResults = append(c.ServiceResults, ServiceResult{ServiceID: id, Status: ResultStatusPass})
		}
	}
	if hasSummary {
		c.SummaryResult = &SummaryResultDoc{OverallStatus: ResultStatusPass}
	}
	return c
}

func TestCompletion(t *testing.T) {
	t.Run("All results plus summary is complete", func(t *testing.T) {
		c := trackedCandidate(2, 2, true)
		assert.True(t, c.IsComplete())
		assert.Equal(t, 100, c.CompletionPercentage())
	})

	t.Run("Missing summary is incomplete", func(t *testing.T) {
		c := trackedCandidate(2, 2, false)
		assert.False(t, c.IsComplete())
		// 2 of 3 units done, the summary being the third.
		assert.Equal(t, 67, c.CompletionPercentage())
	})

	t.Run("Missing service result is incomplete even with summary", func(t *testing.T) {
		c := trackedCandidate(2, 1, true)
		assert.False(t, c.IsComplete())
		assert.Equal(t, 67, c.CompletionPercentage())
	})

	t.Run("Nothing uploaded", func(t *testing.T) {
		c := trackedCandidate(2, 0, false)
		assert.False(t, c.IsComplete())
		assert.Equal(t, 0, c.CompletionPercentage())
		assert.Equal(t, 0, c.CompletedServiceCount())
	})

	t.Run("Result for unassigned service does not count", func(t *testing.T) {
		c := trackedCandidate(1, 1, true)
		c.ServiceResults = append(c.ServiceResults, ServiceResult{ServiceID: "zz", Status: ResultStatusPass})
		assert.True(t, c.IsComplete())
		assert.Equal(t, 1, c.CompletedServiceCount())
	})
}

func TestAssignmentLookups(t *testing.T) {
	c := trackedCandidate(2, 1, false)

	assert.True(t, c.IsAssigned("a"))
	assert.False(t, c.IsAssigned("zz"))

	result := c.ResultForService("a")
	assert.NotNil(t, result)
	assert.Equal(t, ResultStatusPass, result.Status)
	assert.Nil(t, c.ResultForService("b"))
}

func TestValidResultStatus(t *testing.T) {
	assert.True(t, ValidResultStatus(ResultStatusPass))
	assert.True(t, ValidResultStatus(ResultStatusFail))
	assert.True(t, ValidResultStatus(ResultStatusPending))
	assert.False(t, ValidResultStatus("ok"))
	assert.False(t, ValidResultStatus(""))
}
