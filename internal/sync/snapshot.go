package sync

import (
	"slices"

	"github.com/nhle/sharedspace/internal/model"
)

// Snapshot is everything the tabs show for one signed-in user.
type Snapshot struct {
	// UserID is empty for the signed-out snapshot.
	UserID string

	// Tasks owned by the user, newest first.
	Tasks []model.Task

	// OwnedFamilies are families whose OwnerID is the user.
	OwnedFamilies []model.Family

	// MemberFamilies are families the user joined but does not own.
	MemberFamilies []model.Family

	// Members holds every member row (active and invited) of the owned
	// and member families.
	Members []model.FamilyMember

	// Preferences is nil when the user never saved settings.
	Preferences *model.Preferences
}

// Empty reports whether the snapshot belongs to nobody.
func (s Snapshot) Empty() bool { return s.UserID == "" }

// Clone returns a deep copy so each consumer owns its slices.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		UserID:         s.UserID,
		Tasks:          make([]model.Task, len(s.Tasks)),
		OwnedFamilies:  slices.Clone(s.OwnedFamilies),
		MemberFamilies: slices.Clone(s.MemberFamilies),
		Members:        make([]model.FamilyMember, len(s.Members)),
	}
	for i, t := range s.Tasks {
		out.Tasks[i] = CloneTask(t)
	}
	for i, m := range s.Members {
		out.Members[i] = cloneMember(m)
	}
	if s.Preferences != nil {
		p := *s.Preferences
		out.Preferences = &p
	}
	return out
}

// CloneTask copies t including its pointer fields.
func CloneTask(t model.Task) model.Task {
	if t.DueDate != nil {
		d := *t.DueDate
		t.DueDate = &d
	}
	if t.FamilyID != nil {
		f := *t.FamilyID
		t.FamilyID = &f
	}
	return t
}

func cloneMember(m model.FamilyMember) model.FamilyMember {
	if m.InvitedAt != nil {
		v := *m.InvitedAt
		m.InvitedAt = &v
	}
	if m.JoinedAt != nil {
		v := *m.JoinedAt
		m.JoinedAt = &v
	}
	return m
}
