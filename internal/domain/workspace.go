package domain

import "time"

const (
	WorkspaceRoleOwner  = "owner"
	WorkspaceRoleMember = "member"

	MembershipPending = "pending"
	MembershipActive  = "active"
)

type Workspace struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
}

// WorkspaceUser vincula un email con un workspace. Se crea al invitar y pasa
// a activo cuando el invitado acepta.
type WorkspaceUser struct {
	ID          string     `json:"id"`
	WorkspaceID string     `json:"workspaceId"`
	UserEmail   string     `json:"userEmail"`
	Role        string     `json:"role"`
	Status      string     `json:"status"`
	InvitedBy   string     `json:"invitedBy,omitempty"`
	JoinedAt    *time.Time `json:"joinedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func (m WorkspaceUser) Active() bool {
	return m.Status == MembershipActive
}

func (m WorkspaceUser) IsOwner() bool {
	return m.Role == WorkspaceRoleOwner
}
