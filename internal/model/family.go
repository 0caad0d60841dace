package model

import (
	"strings"
	"time"
)

// Family is a shared task space with one owner.
type Family struct {
	ID          string    `json:"id" bson:"_id"`
	Name        string    `json:"name" bson:"name"`
	Description string    `json:"description,omitempty" bson:"description"`
	OwnerID     string    `json:"owner_id" bson:"owner_id"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

// FamilyPatch is a partial update of a family's editable fields.
type FamilyPatch struct {
	Name        *string
	Description *string
}

// MemberRole is a stored label; it grants nothing by itself.
type MemberRole string

const (
	RoleOwner     MemberRole = "owner"
	RoleAdmin     MemberRole = "admin"
	RoleModerator MemberRole = "moderator"
	RoleMember    MemberRole = "member"
)

// Valid reports whether r is one of the known roles.
func (r MemberRole) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleModerator, RoleMember:
		return true
	}
	return false
}

// Invitable reports whether r can be chosen when inviting by email.
func (r MemberRole) Invitable() bool {
	return r == RoleMember || r == RoleModerator
}

// MemberStatus distinguishes joined members from pending invitations.
type MemberStatus string

const (
	MemberStatusActive  MemberStatus = "active"
	MemberStatusInvited MemberStatus = "invited"
)

// FamilyMember joins a user (or a not-yet-registered email) to a family.
// A row with status "invited" is a pending invitation.
type FamilyMember struct {
	ID        string       `json:"id" bson:"_id"`
	FamilyID  string       `json:"family_id" bson:"family_id"`
	UserID    string       `json:"user_id,omitempty" bson:"user_id"`
	Email     string       `json:"email" bson:"email"`
	Role      MemberRole   `json:"role" bson:"role"`
	Status    MemberStatus `json:"status" bson:"status"`
	InvitedAt *time.Time   `json:"invited_at,omitempty" bson:"invited_at,omitempty"`
	JoinedAt  *time.Time   `json:"joined_at,omitempty" bson:"joined_at,omitempty"`
}

// IsActive reports whether the member has joined.
func (m FamilyMember) IsActive() bool { return m.Status == MemberStatusActive }

// IsInvited reports whether the row is a pending invitation.
func (m FamilyMember) IsInvited() bool { return m.Status == MemberStatusInvited }

// Initials returns up to two upper-case initials for avatar badges,
// taken from the local part of the email.
func (m FamilyMember) Initials() string {
	local, _, _ := strings.Cut(m.Email, "@")
	var out []rune
	for _, part := range strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	}) {
		out = append(out, []rune(strings.ToUpper(part))[0])
		if len(out) == 2 {
			break
		}
	}
	if len(out) == 0 {
		return "?"
	}
	return string(out)
}

// MemberPatch is a partial update of a member row.
type MemberPatch struct {
	UserID   *string
	Role     *MemberRole
	Status   *MemberStatus
	JoinedAt *time.Time
}

// FamilyInvitation is the invitation view of a FamilyMember row.
type FamilyInvitation struct {
	ID        string
	FamilyID  string
	Email     string
	Role      MemberRole
	InvitedAt *time.Time
}

// Invitation returns the invitation view of an invited member row.
func (m FamilyMember) Invitation() (FamilyInvitation, bool) {
	if !m.IsInvited() {
		return FamilyInvitation{}, false
	}
	return FamilyInvitation{
		ID:        m.ID,
		FamilyID:  m.FamilyID,
		Email:     m.Email,
		Role:      m.Role,
		InvitedAt: m.InvitedAt,
	}, true
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
