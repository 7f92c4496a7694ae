package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/raycity/authserver/config"
	"github.com/raycity/authserver/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultMongoTimeout = 10 * time.Second

// MongoStore persists credentials in a MongoDB collection. The client is
// opened once at construction and owned by the store for the process
// lifetime.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

type mongoUser struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Username     string             `bson:"username"`
	PasswordHash string             `bson:"passwordHash"`
	CreatedAt    time.Time          `bson:"createdAt"`
}

// NewMongoStore connects to MongoDB using the provided config.
func NewMongoStore(ctx context.Context, cfg config.MongoConfig) (*MongoStore, error) {
	if strings.TrimSpace(cfg.URI) == "" {
		return nil, errors.New("mongodb uri is required")
	}

	ctx, cancel := context.WithTimeout(ctx, defaultMongoTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return &MongoStore{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

// Init creates the unique username index. Uniqueness is then enforced by
// the store itself, closing the check-then-insert race between concurrent
// registrations.
func (s *MongoStore) Init(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// Exists reports whether a record with the given username exists.
func (s *MongoStore) Exists(ctx context.Context, username string) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return false, nil
	}

	err := s.collection.FindOne(ctx, bson.M{"username": username}).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Insert appends a new record stamped with the current time.
func (s *MongoStore) Insert(ctx context.Context, username, passwordHash string) (types.User, error) {
	doc := mongoUser{
		Username:     strings.TrimSpace(username),
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}

	result, err := s.collection.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return types.User{}, ErrDuplicateUsername
		}
		return types.User{}, err
	}

	id, _ := result.InsertedID.(primitive.ObjectID)
	return types.User{
		ID:           id.Hex(),
		Username:     doc.Username,
		PasswordHash: doc.PasswordHash,
		CreatedAt:    doc.CreatedAt,
	}, nil
}

// Find returns the record matching the username, or ErrNotFound.
func (s *MongoStore) Find(ctx context.Context, username string) (types.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return types.User{}, ErrNotFound
	}

	var doc mongoUser
	err := s.collection.FindOne(ctx, bson.M{"username": username}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	if doc.PasswordHash == "" {
		return types.User{}, ErrNotFound
	}

	return types.User{
		ID:           doc.ID.Hex(),
		Username:     doc.Username,
		PasswordHash: doc.PasswordHash,
		CreatedAt:    doc.CreatedAt,
	}, nil
}

// ListAll returns every record, projecting away the credential field.
func (s *MongoStore) ListAll(ctx context.Context) ([]types.UserSummary, error) {
	opts := options.Find().SetProjection(bson.M{"username": 1, "createdAt": 1})
	cursor, err := s.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	users := []types.UserSummary{}
	for cursor.Next(ctx) {
		var doc mongoUser
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		if strings.TrimSpace(doc.Username) == "" {
			continue
		}
		users = append(users, types.UserSummary{
			Username:  doc.Username,
			CreatedAt: doc.CreatedAt,
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// Close disconnects the underlying client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Client exposes the underlying MongoDB client.
func (s *MongoStore) Client() *mongo.Client {
	return s.client
}
