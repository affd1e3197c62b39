package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ActivityKind is the closed enumeration of trackable actions.
type ActivityKind string

const (
	ActivityKindRecipeCreated     ActivityKind = "recipe_created"
	ActivityKindCollectionCreated ActivityKind = "collection_created"
	ActivityKindMenuCreated       ActivityKind = "menu_created"
)

// Valid reports whether k is one of the deployed activity kinds.
func (k ActivityKind) Valid() bool {
	switch k {
	case ActivityKindRecipeCreated, ActivityKindCollectionCreated, ActivityKindMenuCreated:
		return true
	}
	return false
}

/*

Activity is the canonical, append-only record of one trackable action.

Id: primary key, assigned at creation, stable for the activity's lifetime
CreatedAt: creation timestamp, the sole ordering key for feeds
AuthorID: user who performed the action
AuthorName: author's display name at creation time, denormalized so the feed
	renders without a join
Kind: which action was performed, see ActivityKind
EntityID/EntityTitle/EntitySlug: pointers to the created recipe, collection
	or menu, denormalized for the same reason
Payload: the exact serialized feed entry that was fanned out to followers,
	kept so a repair pass can replay byte-identical copies

An activity is never updated or deleted on the happy path. Corrections are
modeled as new activities.

*/
type Activity struct {
	Id          string `gorm:"primaryKey"`
	CreatedAt   time.Time
	AuthorID    string `gorm:"index"`
	AuthorName  string
	Kind        ActivityKind
	EntityID    string
	EntityTitle string
	EntitySlug  string
	Payload     datatypes.JSON
}

// NewActivity assigns the id and creation timestamp for a fresh activity.
func NewActivity(authorId, authorName string, kind ActivityKind, entityId, entityTitle, entitySlug string) *Activity {
	return &Activity{
		Id:          uuid.New().String(),
		CreatedAt:   time.Now().UTC(),
		AuthorID:    authorId,
		AuthorName:  authorName,
		Kind:        kind,
		EntityID:    entityId,
		EntityTitle: entityTitle,
		EntitySlug:  entitySlug,
	}
}

// FeedEntry builds the denormalized per-follower copy of this activity.
func (a *Activity) FeedEntry() *FeedEntry {
	return &FeedEntry{
		ActivityId:  a.Id,
		CreatedAt:   a.CreatedAt,
		AuthorId:    a.AuthorID,
		AuthorName:  a.AuthorName,
		Kind:        a.Kind,
		EntityId:    a.EntityID,
		EntityTitle: a.EntityTitle,
		EntitySlug:  a.EntitySlug,
	}
}
