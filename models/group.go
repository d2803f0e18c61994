package models

import (
	"time"
)

const (
	DefaultGroupIcon        = "celebration"
	DefaultGroupIconBgColor = "#7c4dff"
)

type Group struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	Name        string        `gorm:"not null;size:100" json:"name"`
	Icon        string        `gorm:"size:50" json:"icon"`
	IconBgColor string        `gorm:"size:7" json:"iconBgColor"`
	CreatedByID uint          `gorm:"index" json:"createdById"`
	Members     []GroupMember `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE" json:"members"`
	CreatedAt   time.Time     `json:"createdAt"`
}

type GroupMember struct {
	GroupID  uint      `gorm:"primaryKey" json:"-"`
	UserID   uint      `gorm:"primaryKey" json:"id"`
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joinedAt"`
}

// HasMember reports whether userID created the group or is listed as a member.
func (g *Group) HasMember(userID uint) bool {
	if g.CreatedByID == userID {
		return true
	}
	for _, m := range g.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// Friend is a symmetric relationship; the user may appear on either side.
type Friend struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	UserID   uint      `gorm:"index;not null" json:"userId"`
	FriendID uint      `gorm:"index;not null" json:"friendId"`
	AddedAt  time.Time `gorm:"autoCreateTime" json:"addedAt"`
}

// Involves reports whether userID is on either side of the relationship.
func (f Friend) Involves(userID uint) bool {
	return f.UserID == userID || f.FriendID == userID
}

// Other returns the id on the opposite side from userID.
func (f Friend) Other(userID uint) uint {
	if f.UserID == userID {
		return f.FriendID
	}
	return f.UserID
}

// Request structs
type CreateGroupRequest struct {
	Name        string `json:"name" binding:"required"`
	Icon        string `json:"icon"`
	IconBgColor string `json:"iconBgColor"`
	MemberIDs   []uint `json:"memberIds"`
}

type AddFriendRequest struct {
	FriendCode string `json:"friendCode"`
	FriendID   uint   `json:"friendId"`
}

// Response structs
type GroupMemberResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Initials    string `json:"initials"`
	AvatarColor string `json:"avatarColor"`
}

type GroupResponse struct {
	ID          uint                  `json:"id"`
	Name        string                `json:"name"`
	Icon        string                `json:"icon"`
	IconBgColor string                `json:"iconBgColor"`
	CreatedByID uint                  `json:"createdById"`
	Members     []GroupMemberResponse `json:"members"`
	CreatedAt   time.Time             `json:"createdAt"`
}

type FriendResponse struct {
	ID          uint      `json:"id"`
	UserID      uint      `json:"userId"`
	Name        string    `json:"name"`
	Initials    string    `json:"initials"`
	AvatarColor string    `json:"avatarColor"`
	FriendCode  string    `json:"friendCode"`
	AddedAt     time.Time `json:"addedAt"`
}

type InviteFriendRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type UpdateGroupRequest struct {
	Name        *string `json:"name"`
	Icon        *string `json:"icon"`
	IconBgColor *string `json:"iconBgColor"`
}

// AddMemberRequest names a registered user by id, e-mail or friend code,
// tried in that order.
type AddMemberRequest struct {
	UserID     uint   `json:"userId"`
	Email      string `json:"email" binding:"omitempty,email"`
	FriendCode string `json:"friendCode"`
}

type FriendRequestStatus string

const (
	FriendRequestPending  FriendRequestStatus = "pending"
	FriendRequestAccepted FriendRequestStatus = "accepted"
	FriendRequestRejected FriendRequestStatus = "rejected"
)

// FriendRequest becomes a Friend once the recipient accepts it.
type FriendRequest struct {
	ID         uint                `gorm:"primaryKey" json:"id"`
	FromUserID uint                `gorm:"index;not null" json:"fromUserId"`
	ToUserID   uint                `gorm:"index;not null" json:"toUserId"`
	Status     FriendRequestStatus `gorm:"size:10;not null;default:pending" json:"status"`
	CreatedAt  time.Time           `json:"createdAt"`
	UpdatedAt  time.Time           `json:"-"`
}

type SendFriendRequestRequest struct {
	FriendCode string `json:"friendCode" binding:"required"`
}

type RespondFriendRequestRequest struct {
	Accept bool `json:"accept"`
}

type FriendRequestResponse struct {
	ID                  uint                `json:"id"`
	FromUserID          uint                `json:"fromUserId"`
	FromUserName        string              `json:"fromUserName"`
	FromUserInitials    string              `json:"fromUserInitials"`
	FromUserAvatarColor string              `json:"fromUserAvatarColor"`
	ToUserID            uint                `json:"toUserId"`
	Status              FriendRequestStatus `json:"status"`
	CreatedAt           time.Time           `json:"createdAt"`
}
