// Package mongo is a MongoDB-backed UserStore.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vaweTech/authgate/internal/store/core"
)

const usersCollection = "users"

type Store struct {
	client *mongo.Client
	users  *mongo.Collection
}

// New connects to MongoDB and returns a UserStore over the users
// collection.
func New(ctx context.Context, uri, dbName string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Client().ApplyURI(uri).SetConnectTimeout(10 * time.Second)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	return &Store{
		client: client,
		users:  client.Database(dbName).Collection(usersCollection),
	}, nil
}

type userDoc struct {
	ID        string    `bson:"_id"`
	Email     string    `bson:"email"`
	Name      string    `bson:"name,omitempty"`
	Role      string    `bson:"role,omitempty"`
	CreatedAt time.Time `bson:"created_at,omitempty"`
}

func (s *Store) GetUserByID(ctx context.Context, uid string) (*core.User, error) {
	var doc userDoc
	err := s.users.FindOne(ctx, bson.M{"_id": uid}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("mongo get user: %w", err)
	}
	return &core.User{
		ID:        doc.ID,
		Email:     doc.Email,
		Name:      doc.Name,
		Role:      doc.Role,
		CreatedAt: doc.CreatedAt,
	}, nil
}

// Ping reports whether the deployment is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
