package model

import (
	"time"

	"gorm.io/gorm"
)

/*

User is the canonical profile row for an account.

Id: primary key, use to identify a user
CreatedAt: time when entity is created
DeletedAt: time when entity is deleted
Name: user's display name, denormalized into every activity they author
AvatarUrl: profile picture location

The follow graph (following/followers sets and their counters) is not stored
on this row. It lives in the graph store as per-user sets so that follow and
unfollow stay commutative atomic mutations instead of read-modify-write on a
profile row.

*/
type User struct {
	Id        string `gorm:"primaryKey"`
	CreatedAt time.Time
	DeletedAt gorm.DeletedAt
	Name      string
	AvatarUrl string
}
