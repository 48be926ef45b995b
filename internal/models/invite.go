package models

import "time"

// Invite and join-request status machine: pending transitions exactly once
// to accepted or rejected.
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

// GroupInvite invites a user into a group.
type GroupInvite struct {
	ID        int        `db:"id" json:"id"`
	GroupID   int        `db:"group_id" json:"group_id"`
	InviterID int        `db:"inviter_id" json:"inviter_id"`
	InviteeID int        `db:"invitee_id" json:"invitee_id"`
	Status    string     `db:"status" json:"status"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	ExpiresAt *time.Time `db:"expires_at" json:"expires_at,omitempty"`
}

// JoinRequest asks group admins for membership.
type JoinRequest struct {
	ID        int       `db:"id" json:"id"`
	GroupID   int       `db:"group_id" json:"group_id"`
	UserID    int       `db:"user_id" json:"user_id"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
