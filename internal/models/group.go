package models

import (
	"time"

	"github.com/lib/pq"
)

// Group is a sport-scoped chat group. Members and Admins are aggregated from
// the group_members table; the creator is always an admin and admins are
// always members.
type Group struct {
	ID          int            `db:"id" json:"id"`
	Name        string         `db:"name" json:"name"`
	Description string         `db:"description" json:"description"`
	Sport       string         `db:"sport" json:"sport"`
	CreatorID   int            `db:"creator_id" json:"creator_id"`
	IsPrivate   bool           `db:"is_private" json:"is_private"`
	PhotoURL    *string        `db:"photo_url" json:"photo_url,omitempty"`
	MaxMembers  *int           `db:"max_members" json:"max_members,omitempty"`
	Rules       *string        `db:"rules" json:"rules,omitempty"`
	Tags        pq.StringArray `db:"tags" json:"tags"`
	Members     pq.Int64Array  `db:"members" json:"members"`
	Admins      pq.Int64Array  `db:"admins" json:"admins"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// HasMember reports whether userID is in the aggregated member list.
func (g Group) HasMember(userID int) bool {
	for _, id := range g.Members {
		if int(id) == userID {
			return true
		}
	}
	return false
}
