package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/domain"
	apperrors "storefront/internal/errors"
	"storefront/internal/infrastructure/mongodb"
)

const (
	userNotFound  = "User not found"
	duplicateUser = "User with this email already exists"
)

type userDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Email       string             `bson:"email"`
	Password    string             `bson:"password"`
	FirstName   string             `bson:"firstName"`
	LastName    string             `bson:"lastName"`
	Role        string             `bson:"role"`
	Phone       string             `bson:"phone,omitempty"`
	DateOfBirth *time.Time         `bson:"dateOfBirth,omitempty"`
	IsActive    bool               `bson:"isActive"`
	LastLoginAt *time.Time         `bson:"lastLoginAt,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func (d userDocument) toDomain() domain.User {
	return domain.User{
		ID:           d.ID.Hex(),
		Email:        d.Email,
		PasswordHash: d.Password,
		FirstName:    d.FirstName,
		LastName:     d.LastName,
		Role:         domain.Role(d.Role),
		Phone:        d.Phone,
		DateOfBirth:  d.DateOfBirth,
		IsActive:     d.IsActive,
		LastLoginAt:  d.LastLoginAt,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type MongoUserRepository struct {
	collection *mongo.Collection
}

func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{collection: db.Collection(mongodb.UsersCollection)}
}

// Create stores user with its email lowercased.
func (r *MongoUserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	doc := userDocument{
		Email:       strings.ToLower(user.Email),
		Password:    user.PasswordHash,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Role:        string(user.Role),
		Phone:       user.Phone,
		DateOfBirth: user.DateOfBirth,
		IsActive:    user.IsActive,
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}

	res, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperrors.NewConflictError(duplicateUser)
		}
		return nil, fmt.Errorf("inserting user: %w", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("inserting user: unexpected id type %T", res.InsertedID)
	}
	doc.ID = oid

	created := doc.toDomain()
	return &created, nil
}

func (r *MongoUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, ok := mongodb.ObjectID(id)
	if !ok {
		return nil, apperrors.NewNotFoundError(userNotFound)
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

// FindByEmail matches case-insensitively because emails are stored lowercased.
func (r *MongoUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var doc userDocument
	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.NewNotFoundError(userNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}

	user := doc.toDomain()
	return &user, nil
}

func (r *MongoUserRepository) FindMany(ctx context.Context, filter domain.UserFilter) ([]domain.User, int64, error) {
	query := bson.M{}
	if filter.Role != "" {
		query["role"] = string(filter.Role)
	}
	if filter.IsActive != nil {
		query["isActive"] = *filter.IsActive
	}
	if filter.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(filter.Search), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"firstName": pattern},
			bson.M{"lastName": pattern},
			bson.M{"email": pattern},
		}
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("counting users: %w", err)
	}

	dir := mongodb.SortDirection(filter.SortOrder)
	opts := options.Find().
		SetSort(bson.D{{Key: filter.SortBy, Value: dir}, {Key: "_id", Value: dir}}).
		SetSkip(filter.Skip()).
		SetLimit(int64(filter.Limit))

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("querying users: %w", err)
	}

	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decoding users: %w", err)
	}

	users := make([]domain.User, len(docs))
	for i, d := range docs {
		users[i] = d.toDomain()
	}

	return users, total, nil
}

func (r *MongoUserRepository) Update(ctx context.Context, id string, update domain.UserUpdate) (*domain.User, error) {
	oid, ok := mongodb.ObjectID(id)
	if !ok {
		return nil, apperrors.NewNotFoundError(userNotFound)
	}

	set := bson.M{"updatedAt": update.UpdatedAt}
	if update.FirstName != nil {
		set["firstName"] = *update.FirstName
	}
	if update.LastName != nil {
		set["lastName"] = *update.LastName
	}
	if update.Phone != nil {
		set["phone"] = *update.Phone
	}
	if update.DateOfBirth != nil {
		set["dateOfBirth"] = *update.DateOfBirth
	}
	if update.IsActive != nil {
		set["isActive"] = *update.IsActive
	}
	if update.PasswordHash != nil {
		set["password"] = *update.PasswordHash
	}
	if update.LastLoginAt != nil {
		set["lastLoginAt"] = *update.LastLoginAt
	}

	return r.findOneAndSet(ctx, bson.M{"_id": oid}, set)
}

func (r *MongoUserRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	oid, ok := mongodb.ObjectID(id)
	if !ok {
		return apperrors.NewNotFoundError(userNotFound)
	}

	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"lastLoginAt": at, "updatedAt": at}},
	)
	if err != nil {
		return fmt.Errorf("updating last login: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperrors.NewNotFoundError(userNotFound)
	}
	return nil
}

// Deactivate flips isActive only when it is still true; a user that is
// already inactive yields a ConflictError.
func (r *MongoUserRepository) Deactivate(ctx context.Context, id string, at time.Time) (*domain.User, error) {
	oid, ok := mongodb.ObjectID(id)
	if !ok {
		return nil, apperrors.NewNotFoundError(userNotFound)
	}

	user, err := r.findOneAndSet(ctx, bson.M{"_id": oid, "isActive": true}, bson.M{"isActive": false, "updatedAt": at})
	if _, ok := apperrors.IsNotFoundError(err); ok {
		n, cerr := r.collection.CountDocuments(ctx, bson.M{"_id": oid}, options.Count().SetLimit(1))
		if cerr != nil {
			return nil, fmt.Errorf("checking user existence: %w", cerr)
		}
		if n > 0 {
			return nil, apperrors.NewConflictError("Account is already deactivated")
		}
	}
	return user, err
}

func (r *MongoUserRepository) findOneAndSet(ctx context.Context, filter, set bson.M) (*domain.User, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc userDocument
	err := r.collection.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.NewNotFoundError(userNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("updating user: %w", err)
	}

	user := doc.toDomain()
	return &user, nil
}

func (r *MongoUserRepository) Delete(ctx context.Context, id string) error {
	oid, ok := mongodb.ObjectID(id)
	if !ok {
		return apperrors.NewNotFoundError(userNotFound)
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	if res.DeletedCount == 0 {
		return apperrors.NewNotFoundError(userNotFound)
	}
	return nil
}

type roleBucket struct {
	Role   string `bson:"_id"`
	Count  int64  `bson:"count"`
	Active int64  `bson:"active"`
}

func (r *MongoUserRepository) Stats(ctx context.Context) (*domain.UserStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":    "$role",
			"count":  bson.M{"$sum": 1},
			"active": bson.M{"$sum": bson.M{"$cond": bson.A{"$isActive", 1, 0}}},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregating user stats: %w", err)
	}

	var buckets []roleBucket
	if err := cursor.All(ctx, &buckets); err != nil {
		return nil, fmt.Errorf("decoding user stats: %w", err)
	}

	stats := &domain.UserStats{RoleCounts: make(map[domain.Role]int64)}
	for _, b := range buckets {
		stats.TotalUsers += b.Count
		stats.ActiveUsers += b.Active
		stats.RoleCounts[domain.Role(b.Role)] = b.Count
	}
	stats.InactiveUsers = stats.TotalUsers - stats.ActiveUsers

	return stats, nil
}
