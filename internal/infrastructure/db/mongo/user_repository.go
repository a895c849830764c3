package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/identity-mirror/idsync/internal/core/domain"
	"github.com/identity-mirror/idsync/internal/core/ports"
)

const collectionUsers = "users"

// UserRepository implements ports.UserRepository using MongoDB. Field names
// at the store boundary are fixed by the provider's payload shapes and must
// stay stable.
type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(collectionUsers)}
}

type mongoSyncedUser struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	ExternalID   string             `bson:"externalId"`
	FirstName    string             `bson:"firstName,omitempty"`
	LastName     string             `bson:"lastName,omitempty"`
	Username     string             `bson:"username,omitempty"`
	Email        string             `bson:"email,omitempty"`
	ImageURL     string             `bson:"imageUrl,omitempty"`
	Role         string             `bson:"role"`
	Address      *domain.Address    `bson:"address,omitempty"`
	LastSyncedAt time.Time          `bson:"lastSyncedAt"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

func (mu *mongoSyncedUser) toDomain() *domain.SyncedUser {
	return &domain.SyncedUser{
		ID:           mu.ID.Hex(),
		ExternalID:   mu.ExternalID,
		FirstName:    mu.FirstName,
		LastName:     mu.LastName,
		Username:     mu.Username,
		Email:        mu.Email,
		ImageURL:     mu.ImageURL,
		Role:         domain.Role(mu.Role),
		Address:      mu.Address,
		LastSyncedAt: mu.LastSyncedAt,
		CreatedAt:    mu.CreatedAt,
		UpdatedAt:    mu.UpdatedAt,
	}
}

// providerSet builds the $set document for provider-sourced fields. Role and
// address are locally authoritative and never appear here.
func providerSet(p domain.IdentityProfile, syncedAt time.Time) bson.M {
	return bson.M{
		"firstName":    p.FirstName,
		"lastName":     p.LastName,
		"username":     p.Username,
		"email":        p.Email,
		"imageUrl":     p.ImageURL,
		"lastSyncedAt": syncedAt.UTC(),
		"updatedAt":    syncedAt.UTC(),
	}
}

func (r *UserRepository) FindByExternalID(ctx context.Context, externalID string) (*domain.SyncedUser, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mu mongoSyncedUser
	err := r.col.FindOne(ctx, bson.M{"externalId": externalID}).Decode(&mu)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return mu.toDomain(), nil
}

// UpsertByExternalID is a single atomic findOneAndUpdate with upsert, the
// basis of handler idempotency: redelivering the same event converges on the
// same document.
func (r *UserRepository) UpsertByExternalID(ctx context.Context, p domain.IdentityProfile, syncedAt time.Time) (*domain.SyncedUser, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{
		"$set": providerSet(p, syncedAt),
		"$setOnInsert": bson.M{
			"externalId": p.ExternalID,
			"role":       string(domain.RoleUser),
			"createdAt":  syncedAt.UTC(),
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var mu mongoSyncedUser
	err := r.col.FindOneAndUpdate(ctx, bson.M{"externalId": p.ExternalID}, update, opts).Decode(&mu)
	if err != nil {
		return nil, err
	}
	return mu.toDomain(), nil
}

// UpdateByExternalID never upserts: an update for an unseen externalId is a
// consistency fault the caller must see.
func (r *UserRepository) UpdateByExternalID(ctx context.Context, p domain.IdentityProfile, syncedAt time.Time) (*domain.SyncedUser, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$set": providerSet(p, syncedAt)}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var mu mongoSyncedUser
	err := r.col.FindOneAndUpdate(ctx, bson.M{"externalId": p.ExternalID}, update, opts).Decode(&mu)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return mu.toDomain(), nil
}

func (r *UserRepository) DeleteByExternalID(ctx context.Context, externalID string) (*domain.SyncedUser, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mu mongoSyncedUser
	err := r.col.FindOneAndDelete(ctx, bson.M{"externalId": externalID}).Decode(&mu)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return mu.toDomain(), nil
}

func (r *UserRepository) UpdateRole(ctx context.Context, externalID string, role domain.Role) (*domain.SyncedUser, error) {
	return r.updateLocal(ctx, externalID, bson.M{"role": string(role)})
}

func (r *UserRepository) UpdateAddress(ctx context.Context, externalID string, address domain.Address) (*domain.SyncedUser, error) {
	return r.updateLocal(ctx, externalID, bson.M{"address": address})
}

func (r *UserRepository) updateLocal(ctx context.Context, externalID string, fields bson.M) (*domain.SyncedUser, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	fields["updatedAt"] = time.Now().UTC()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var mu mongoSyncedUser
	err := r.col.FindOneAndUpdate(ctx, bson.M{"externalId": externalID}, bson.M{"$set": fields}, opts).Decode(&mu)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return mu.toDomain(), nil
}

func (r *UserRepository) List(ctx context.Context, filter ports.ListUsersFilter) ([]*domain.SyncedUser, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := bson.M{}
	if filter.Role != "" {
		query["role"] = filter.Role
	}
	if filter.Search != "" {
		rx := primitive.Regex{Pattern: filter.Search, Options: "i"}
		query["$or"] = bson.A{
			bson.M{"username": rx},
			bson.M{"email": rx},
		}
	}

	total, err := r.col.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64((page - 1) * filter.Limit)).
		SetLimit(int64(filter.Limit))

	cur, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var users []*domain.SyncedUser
	for cur.Next(ctx) {
		var mu mongoSyncedUser
		if err := cur.Decode(&mu); err != nil {
			return nil, 0, err
		}
		users = append(users, mu.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// EnsureIndexes creates the indexes the sync pipeline depends on. The unique
// index on externalId backs the one-record-per-identity invariant.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "externalId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "email", Value: 1}}},
		{Keys: bson.D{{Key: "username", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
