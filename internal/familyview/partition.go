package familyview

import (
	"github.com/nhle/sharedspace/internal/model"
)

// MaxAvatars is how many member badges a family card shows.
const MaxAvatars = 5

// Partition splits families into those owned by userID and those joined
// through an active member row with email. Ownership alone is enough for
// the first group; the second never repeats a family from the first.
func Partition(userID, email string, families []model.Family, members []model.FamilyMember) (mine, joined []model.Family) {
	email = model.NormalizeEmail(email)

	active := make(map[string]bool)
	for _, m := range members {
		if m.IsActive() && model.NormalizeEmail(m.Email) == email {
			active[m.FamilyID] = true
		}
	}

	seen := make(map[string]bool, len(families))
	for _, f := range families {
		if seen[f.ID] {
			continue
		}
		seen[f.ID] = true
		switch {
		case f.OwnerID == userID:
			mine = append(mine, f)
		case active[f.ID]:
			joined = append(joined, f)
		}
	}
	return mine, joined
}

// Summary aggregates a family's member rows for its card.
type Summary struct {
	ActiveCount  int
	PendingCount int
	// Avatars holds the initials of the first MaxAvatars active members.
	Avatars []string
	// Overflow is the number of active members beyond Avatars ("+N").
	Overflow int
}

// Summarize counts the rows of one family.
func Summarize(familyID string, members []model.FamilyMember) Summary {
	var s Summary
	for _, m := range members {
		if m.FamilyID != familyID {
			continue
		}
		switch {
		case m.IsActive():
			s.ActiveCount++
			if len(s.Avatars) < MaxAvatars {
				s.Avatars = append(s.Avatars, m.Initials())
			}
		case m.IsInvited():
			s.PendingCount++
		}
	}
	s.Overflow = s.ActiveCount - len(s.Avatars)
	return s
}

// Totals are the counters above the family lists.
type Totals struct {
	Owned          int
	Joined         int
	ActiveMembers  int
	PendingInvites int
}
