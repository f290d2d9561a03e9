package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"storefront/internal/domain"
	apperrors "storefront/internal/errors"
)

const ns = "storefront.users"

func userDoc(id primitive.ObjectID, active bool) bson.D {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "email", Value: "ada@example.com"},
		{Key: "password", Value: "$2a$12$hash"},
		{Key: "firstName", Value: "Ada"},
		{Key: "lastName", Value: "Lovelace"},
		{Key: "role", Value: "user"},
		{Key: "isActive", Value: active},
		{Key: "createdAt", Value: now},
		{Key: "updatedAt", Value: now},
	}
}

func newMockMT(t *testing.T) *mtest.T {
	return mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
}

func TestMongoUserRepository_Create(t *testing.T) {
	mt := newMockMT(t)

	mt.Run("lowercases email", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		repo := NewMongoUserRepository(mt.DB)

		created, err := repo.Create(context.Background(), &domain.User{
			Email:        "Ada@Example.COM",
			PasswordHash: "hash",
			Role:         domain.RoleUser,
			IsActive:     true,
		})

		require.NoError(mt, err)
		assert.Equal(mt, "ada@example.com", created.Email)
		assert.Len(mt, created.ID, 24)
	})

	mt.Run("duplicate email", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key error"}))
		repo := NewMongoUserRepository(mt.DB)

		_, err := repo.Create(context.Background(), &domain.User{Email: "ada@example.com"})

		ce, ok := apperrors.IsConflictError(err)
		require.True(mt, ok)
		assert.Equal(mt, "User with this email already exists", ce.Message)
	})
}

func TestMongoUserRepository_FindByEmail(t *testing.T) {
	mt := newMockMT(t)

	mt.Run("found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, userDoc(primitive.NewObjectID(), true)))
		repo := NewMongoUserRepository(mt.DB)

		user, err := repo.FindByEmail(context.Background(), " ADA@example.com ")

		require.NoError(mt, err)
		assert.Equal(mt, "$2a$12$hash", user.PasswordHash)
		assert.True(mt, user.IsActive)
	})

	mt.Run("missing", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		repo := NewMongoUserRepository(mt.DB)

		_, err := repo.FindByEmail(context.Background(), "ghost@example.com")

		_, ok := apperrors.IsNotFoundError(err)
		assert.True(mt, ok)
	})
}

func TestMongoUserRepository_FindMany(t *testing.T) {
	mt := newMockMT(t)

	mt.Run("search", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "n", Value: int32(1)}}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, userDoc(primitive.NewObjectID(), true)),
		)
		repo := NewMongoUserRepository(mt.DB)

		active := true
		users, total, err := repo.FindMany(context.Background(), domain.UserFilter{
			ListOptions: domain.DefaultListOptions(),
			IsActive:    &active,
			Search:      "ada.(",
		})

		require.NoError(mt, err)
		assert.Equal(mt, int64(1), total)
		assert.Len(mt, users, 1)
	})
}

func TestMongoUserRepository_Update(t *testing.T) {
	mt := newMockMT(t)

	mt.Run("updated", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "value", Value: userDoc(id, true)}})
		repo := NewMongoUserRepository(mt.DB)

		name := "Ada"
		user, err := repo.Update(context.Background(), id.Hex(), domain.UserUpdate{
			UserChanges: domain.UserChanges{FirstName: &name},
			UpdatedAt:   time.Now(),
		})

		require.NoError(mt, err)
		assert.Equal(mt, id.Hex(), user.ID)
	})

	mt.Run("missing", func(mt *mtest.T) {
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "value", Value: nil}})
		repo := NewMongoUserRepository(mt.DB)

		_, err := repo.Update(context.Background(), primitive.NewObjectID().Hex(), domain.UserUpdate{UpdatedAt: time.Now()})

		_, ok := apperrors.IsNotFoundError(err)
		assert.True(mt, ok)
	})
}

func TestMongoUserRepository_UpdateLastLogin(t *testing.T) {
	mt := newMockMT(t)

	mt.Run("matched", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))
		repo := NewMongoUserRepository(mt.DB)

		assert.NoError(mt, repo.UpdateLastLogin(context.Background(), primitive.NewObjectID().Hex(), time.Now()))
	})

	mt.Run("unmatched", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))
		repo := NewMongoUserRepository(mt.DB)

		err := repo.UpdateLastLogin(context.Background(), primitive.NewObjectID().Hex(), time.Now())
		_, ok := apperrors.IsNotFoundError(err)
		assert.True(mt, ok)
	})
}

func TestMongoUserRepository_Deactivate(t *testing.T) {
	mt := newMockMT(t)

	mt.Run("active user", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "value", Value: userDoc(id, false)}})
		repo := NewMongoUserRepository(mt.DB)

		user, err := repo.Deactivate(context.Background(), id.Hex(), time.Now())

		require.NoError(mt, err)
		assert.False(mt, user.IsActive)
	})

	mt.Run("already inactive", func(mt *mtest.T) {
		mt.AddMockResponses(
			bson.D{{Key: "ok", Value: 1}, {Key: "value", Value: nil}},
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "n", Value: int32(1)}}),
		)
		repo := NewMongoUserRepository(mt.DB)

		_, err := repo.Deactivate(context.Background(), primitive.NewObjectID().Hex(), time.Now())

		_, ok := apperrors.IsConflictError(err)
		assert.True(mt, ok, "expected ConflictError, got %v", err)
	})
}

func TestMongoUserRepository_Delete(t *testing.T) {
	mt := newMockMT(t)

	mt.Run("deleted", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))
		repo := NewMongoUserRepository(mt.DB)

		assert.NoError(mt, repo.Delete(context.Background(), primitive.NewObjectID().Hex()))
	})

	mt.Run("malformed id", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.DB)

		err := repo.Delete(context.Background(), "nope")
		_, ok := apperrors.IsNotFoundError(err)
		assert.True(mt, ok)
	})
}

func TestMongoUserRepository_Stats(t *testing.T) {
	mt := newMockMT(t)

	mt.Run("folds role buckets", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "user"}, {Key: "count", Value: int32(5)}, {Key: "active", Value: int32(4)}},
			bson.D{{Key: "_id", Value: "admin"}, {Key: "count", Value: int32(1)}, {Key: "active", Value: int32(1)}},
		))
		repo := NewMongoUserRepository(mt.DB)

		stats, err := repo.Stats(context.Background())

		require.NoError(mt, err)
		assert.Equal(mt, int64(6), stats.TotalUsers)
		assert.Equal(mt, int64(5), stats.ActiveUsers)
		assert.Equal(mt, int64(1), stats.InactiveUsers)
		assert.Equal(mt, int64(5), stats.RoleCounts[domain.RoleUser])
		assert.Zero(mt, stats.RoleCounts[domain.RoleModerator])
	})
}
