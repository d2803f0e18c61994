package models

import (
	"crypto/rand"
	"math/big"
	"strings"
	"time"
)

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"not null;size:100" json:"name"`
	Email        string    `gorm:"uniqueIndex;not null;size:255" json:"email"`
	Phone        string    `gorm:"size:20" json:"phone,omitempty"`
	PasswordHash string    `gorm:"not null;size:255" json:"-"`
	Initials     string    `gorm:"size:2" json:"initials"`
	AvatarColor  string    `gorm:"size:7" json:"avatarColor"`
	FriendCode   string    `gorm:"uniqueIndex;size:10" json:"friendCode"`
	FCMToken     string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"-"`
}

// Response struct (what we return to clients)
type UserResponse struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"`
	Initials    string    `json:"initials"`
	AvatarColor string    `json:"avatarColor"`
	FriendCode  string    `json:"friendCode"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Phone:       u.Phone,
		Initials:    u.Initials,
		AvatarColor: u.AvatarColor,
		FriendCode:  u.FriendCode,
		CreatedAt:   u.CreatedAt,
	}
}

var avatarColors = []string{
	"#7c4dff", "#ff6b6b", "#4ecdc4", "#45b7d1",
	"#96ceb4", "#ffeaa7", "#dfe6e9", "#ff7675",
	"#74b9ff", "#a29bfe", "#fd79a8", "#00b894",
}

// Initials returns the upper-cased first letters of the first two words of name.
func Initials(name string) string {
	var b strings.Builder
	for _, word := range strings.Fields(name) {
		r := []rune(word)
		b.WriteString(strings.ToUpper(string(r[0])))
		if b.Len() >= 2 {
			break
		}
	}
	out := []rune(b.String())
	if len(out) > 2 {
		out = out[:2]
	}
	return string(out)
}

// AvatarColor picks a palette colour from the first character of name.
func AvatarColor(name string) string {
	if name == "" {
		return avatarColors[0]
	}
	return avatarColors[int([]rune(name)[0])%len(avatarColors)]
}

// NewFriendCode returns a random ten-digit code.
func NewFriendCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9_000_000_000))
	if err != nil {
		return "", err
	}
	return big.NewInt(0).Add(n, big.NewInt(1_000_000_000)).String(), nil
}

// PublicProfile is what other users see, e.g. when looking someone up by
// friend code.
type PublicProfile struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Initials    string `json:"initials"`
	AvatarColor string `json:"avatarColor"`
	FriendCode  string `json:"friendCode"`
}

func (u *User) ToPublicProfile() PublicProfile {
	return PublicProfile{
		ID:          u.ID,
		Name:        u.Name,
		Initials:    u.Initials,
		AvatarColor: u.AvatarColor,
		FriendCode:  u.FriendCode,
	}
}
