package services

import (
	"time"

	"github.com/sazinconstruction/adminkeeper/internal/server/models"
)

// UserView is returned by login, registration and profile updates. Email is
// transport-key ciphertext; the password is never part of a view.
type UserView struct {
	UID       string    `json:"uid"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	PhotoURL  string    `json:"photoURL"`
	CreatedAt time.Time `json:"createdAt"`
}

// Session is a UserView with the token to deliver to the client.
type Session struct {
	User      UserView
	Token     string
	ExpiresAt time.Time
}

// ProfileView is an account as shown to its owner or to another admin.
type ProfileView struct {
	UID    string               `json:"_id"`
	Name   string               `json:"name"`
	Email  string               `json:"email"`
	Status models.AccountStatus `json:"status"`
	Image  string               `json:"imageUrl"`
	models.Profile
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

// Upload is an optional image sent with a form.
type Upload struct {
	ContentType string
	Body        []byte
}
