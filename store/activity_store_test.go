package store

import (
	"context"
	"os"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/mealmuse/feedfan/model"
	"github.com/mealmuse/feedfan/utils"
	"github.com/mealmuse/feedfan/utils/dotenv"
)

func requireTestDB(t *testing.T) {
	t.Helper()
	dotenv.LoadDotEnvsInTests()
	if os.Getenv("DB_HOST") == "" {
		t.Skip("requires a postgres instance, set DB_HOST to run")
	}
}

func TestGormActivityStoreCreateAndGet(t *testing.T) {
	requireTestDB(t)
	db, _ := utils.CreateTempDB(t)
	ctx := context.Background()
	activities := NewGormActivityStore(db)

	activity := model.NewActivity("author", "Author", model.ActivityKindRecipeCreated, "recipe-1", "Shakshuka", "shakshuka")
	assert.Nil(t, activities.CreateActivity(ctx, activity))

	// re-creating the same id is a no-op success
	assert.Nil(t, activities.CreateActivity(ctx, activity))

	read, err := activities.GetActivity(ctx, activity.Id)
	assert.Nil(t, err)
	assert.Equal(t, activity.Id, read.Id)
	assert.Equal(t, model.ActivityKindRecipeCreated, read.Kind)

	_, err = activities.GetActivity(ctx, "unknown")
	assert.True(t, errors.Is(err, ErrActivityNotFound))
}

func TestGormUserStoreCreateAndGet(t *testing.T) {
	requireTestDB(t)
	db, _ := utils.CreateTempDB(t)
	ctx := context.Background()
	users := NewGormUserStore(db)

	user := &model.User{Id: "u1", Name: "Alice"}
	assert.Nil(t, users.CreateUser(ctx, user))

	read, err := users.GetUser(ctx, "u1")
	assert.Nil(t, err)
	assert.Equal(t, "Alice", read.Name)

	_, err = users.GetUser(ctx, "unknown")
	assert.True(t, errors.Is(err, ErrUserNotFound))
}
