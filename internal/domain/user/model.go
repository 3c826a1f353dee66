package user

import (
	"strings"
	"time"
)

type Profile struct {
	UID         string    `firestore:"-" json:"uid"`
	Email       string    `firestore:"email" json:"email"`
	DisplayName string    `firestore:"name" json:"displayName"`
	LastTeamID  *string   `firestore:"lastTeamId" json:"lastTeamId"`
	FCMTokens   []string  `firestore:"fcmTokens,omitempty" json:"-"`
	CreatedAt   time.Time `firestore:"createdAt" json:"createdAt"`
}

// Identity is what the identity provider tells us about the signed-in user.
type Identity struct {
	UID         string
	Email       string
	DisplayName string
}

type RegisterDeviceInput struct {
	Token string `json:"token"`
}

func (in *RegisterDeviceInput) Trim() {
	in.Token = strings.TrimSpace(in.Token)
}
