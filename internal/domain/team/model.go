package team

import (
	"time"

	"team-checkin/backend/internal/utils"
)

const (
	RoleCoach   = "coach"
	RoleAthlete = "athlete"
)

type Team struct {
	ID        string    `firestore:"-" json:"id"`
	Name      string    `firestore:"name" json:"name"`
	JoinCode  string    `firestore:"joinCode" json:"joinCode,omitempty"`
	CreatedBy string    `firestore:"createdBy" json:"createdBy"`
	CreatedAt time.Time `firestore:"createdAt" json:"createdAt"`
	IsActive  bool      `firestore:"isActive" json:"isActive"`
}

type JoinCode struct {
	Code      string    `firestore:"joinCode" json:"joinCode"`
	TeamID    string    `firestore:"teamId" json:"teamId"`
	CreatedBy string    `firestore:"createdBy" json:"createdBy"`
	CreatedAt time.Time `firestore:"createdAt" json:"createdAt"`
	IsActive  bool      `firestore:"isActive" json:"isActive"`
}

type Membership struct {
	UID          string    `firestore:"-" json:"uid"`
	Role         string    `firestore:"role" json:"role"` // coach / athlete
	Name         string    `firestore:"name" json:"name"`
	Email        string    `firestore:"email" json:"email"`
	IsActive     bool      `firestore:"isActive" json:"isActive"`
	JoinedAt     time.Time `firestore:"joinedAt" json:"joinedAt"`
	JoinCodeUsed string    `firestore:"joinCodeUsed,omitempty" json:"joinCodeUsed,omitempty"`
}

func (m Membership) IsCoach() bool { return m.Role == RoleCoach }

// DisplayName falls back from name to email to uid.
func (m Membership) DisplayName() string {
	switch {
	case m.Name != "":
		return m.Name
	case m.Email != "":
		return m.Email
	}
	return m.UID
}

// Creator identifies the signed-in user a membership is written for.
type Creator struct {
	UID         string
	Email       string
	DisplayName string
}

type CreateTeamInput struct {
	Name string `json:"name"`
}

func (in *CreateTeamInput) Trim() {
	in.Name = utils.NormalizeName(in.Name)
}

type JoinTeamInput struct {
	Code string `json:"code"`
}

func (in *JoinTeamInput) Trim() {
	in.Code = utils.NormalizeCode(in.Code)
}

type CreateTeamResult struct {
	TeamID   string `json:"teamId"`
	JoinCode string `json:"joinCode"`
}
