package familyview

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/sharedspace/internal/model"
)

func familyIDs(families []model.Family) []string {
	out := []string{}
	for _, f := range families {
		out = append(out, f.ID)
	}
	return out
}

func TestPartition(t *testing.T) {
	families := []model.Family{
		{ID: "owned-no-row", OwnerID: "me"},
		{ID: "owned-with-row", OwnerID: "me"},
		{ID: "joined", OwnerID: "other"},
		{ID: "invited", OwnerID: "other"},
		{ID: "stranger", OwnerID: "other"},
		{ID: "joined", OwnerID: "other"},
	}
	members := []model.FamilyMember{
		{FamilyID: "owned-with-row", Email: "me@x.io", Status: model.MemberStatusActive},
		{FamilyID: "joined", Email: "ME@x.io", Status: model.MemberStatusActive},
		{FamilyID: "invited", Email: "me@x.io", Status: model.MemberStatusInvited},
		{FamilyID: "stranger", Email: "someone@x.io", Status: model.MemberStatusActive},
	}

	mine, joined := Partition("me", " me@x.io", families, members)

	assert.Equal(t, []string{"owned-no-row", "owned-with-row"}, familyIDs(mine))
	assert.Equal(t, []string{"joined"}, familyIDs(joined))
}

func TestPartitionNeverDuplicates(t *testing.T) {
	families := []model.Family{{ID: "f1", OwnerID: "me"}}
	members := []model.FamilyMember{{FamilyID: "f1", Email: "me@x.io", Status: model.MemberStatusActive}}

	mine, joined := Partition("me", "me@x.io", families, members)
	assert.Len(t, mine, 1)
	assert.Empty(t, joined)
}

func TestSummarize(t *testing.T) {
	var members []model.FamilyMember
	for i := range 7 {
		members = append(members, model.FamilyMember{
			FamilyID: "f1",
			Email:    fmt.Sprintf("user%d@x.io", i),
			Status:   model.MemberStatusActive,
		})
	}
	members = append(members,
		model.FamilyMember{FamilyID: "f1", Email: "pending@x.io", Status: model.MemberStatusInvited},
		model.FamilyMember{FamilyID: "f2", Email: "elsewhere@x.io", Status: model.MemberStatusActive},
	)

	s := Summarize("f1", members)
	assert.Equal(t, 7, s.ActiveCount)
	assert.Equal(t, 1, s.PendingCount)
	assert.Len(t, s.Avatars, MaxAvatars)
	assert.Equal(t, 2, s.Overflow)

	small := Summarize("f2", members)
	assert.Equal(t, Summary{ActiveCount: 1, Avatars: []string{"E"}}, small)

	assert.Equal(t, Summary{}, Summarize("none", members))
}

func TestInitials(t *testing.T) {
	assert.Equal(t, "JD", model.FamilyMember{Email: "jane.doe@x.io"}.Initials())
	assert.Equal(t, "B", model.FamilyMember{Email: "bob@x.io"}.Initials())
	assert.Equal(t, "?", model.FamilyMember{Email: "@x.io"}.Initials())
}
