package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssembleKeepsCollectionOrder(t *testing.T) {
	ids := []string{"carol", "alice", "bob"}
	results := []AttributeResult{
		{Identifier: "bob", Followers: Count(7)},
		{Identifier: "carol", Followers: Count(12345)},
		{Identifier: "alice"},
	}

	records := Assemble(ids, results, "https://www.instagram.com")
	require.Len(t, records, 3)

	assert.Equal(t, "carol", records[0].Username)
	assert.Equal(t, int64(12345), *records[0].FollowersCount)
	assert.Equal(t, "https://www.instagram.com/carol/", records[0].ProfileURL)

	assert.Equal(t, "alice", records[1].Username)
	assert.Nil(t, records[1].FollowersCount)

	assert.Equal(t, int64(7), *records[2].FollowersCount)
}

func TestAssembleMissingResult(t *testing.T) {
	records := Assemble([]string{"dave"}, nil, "https://www.instagram.com")
	require.Len(t, records, 1)
	assert.Nil(t, records[0].FollowersCount)
	assert.Equal(t, "https://www.instagram.com/dave/", records[0].ProfileURL)
}

func TestAssembleCopiesCounts(t *testing.T) {
	n := Count(5)
	records := Assemble([]string{"eve"}, []AttributeResult{{Identifier: "eve", Followers: n}}, "https://x.test")
	*n = 99
	assert.Equal(t, int64(5), *records[0].FollowersCount)
}

func TestZeroIsAValue(t *testing.T) {
	r := AttributeResult{Identifier: "new", Followers: Count(0)}
	assert.True(t, r.Resolved())
	assert.False(t, AttributeResult{Identifier: "x"}.Resolved())
}
