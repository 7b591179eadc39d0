package profile

import (
	"context"
	"testing"
	"time"

	"UniPath/internal/apperr"
	"UniPath/internal/notification"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func fixedNow() time.Time {
	return time.Date(2025, time.April, 1, 12, 0, 0, 0, time.UTC)
}

func TestSaveProgram(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	sp := SavedProgram{ID: primitive.NewObjectID(), UniversityID: primitive.NewObjectID(), ProgramID: primitive.NewObjectID()}

	mt.Run("appends", func(mt *mtest.T) {
		repo := &ProfileRepository{collection: mt.Coll, now: fixedNow}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))
		require.NoError(mt, repo.SaveProgram(context.Background(), primitive.NewObjectID(), sp))
	})

	mt.Run("already saved is a conflict", func(mt *mtest.T) {
		repo := &ProfileRepository{collection: mt.Coll, now: fixedNow}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))
		err := repo.SaveProgram(context.Background(), primitive.NewObjectID(), sp)
		assert.True(mt, errors.Is(err, apperr.ErrConflict))
	})
}

func TestRemoveProgram(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("missing is not found", func(mt *mtest.T) {
		repo := &ProfileRepository{collection: mt.Coll, now: fixedNow}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))
		err := repo.RemoveProgram(context.Background(), primitive.NewObjectID(), primitive.NewObjectID())
		assert.True(mt, errors.Is(err, apperr.ErrNotFound))
	})
}

func TestForEachWithSavedPrograms(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("streams profiles", func(mt *mtest.T) {
		repo := &ProfileRepository{collection: mt.Coll, now: fixedNow}
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "user_id", Value: primitive.NewObjectID()}},
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "user_id", Value: primitive.NewObjectID()}},
		))

		var seen int
		err := repo.ForEachWithSavedPrograms(context.Background(), func(*Profile) error {
			seen++
			return nil
		})
		require.NoError(mt, err)
		assert.Equal(mt, 2, seen)
	})
}

func TestProfileHelpers(t *testing.T) {
	savedID := primitive.NewObjectID()
	p := &Profile{
		SavedPrograms: []SavedProgram{{ID: savedID}},
		DeadlineNotifications: []notification.Notification{
			{DedupKey: "deadline_alert:u:p:7"},
		},
	}
	assert.True(t, p.HasDedupKey("deadline_alert:u:p:7"))
	assert.False(t, p.HasDedupKey("deadline_alert:u:p:14"))

	_, ok := p.SavedProgram(savedID)
	assert.True(t, ok)
	_, ok = p.SavedProgram(primitive.NewObjectID())
	assert.False(t, ok)

	defaults := DefaultPreferences([]int{30, 14, 7, 1})
	assert.True(t, defaults.OnsiteAlerts)
	assert.True(t, defaults.EmailAlerts)
	assert.Equal(t, []int{30, 14, 7, 1}, defaults.TriggerOffsets)
}
