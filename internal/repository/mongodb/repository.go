package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/stones/internal/domain/models"
)

const snapshotsCollection = "inventory_snapshots"

var disconnect = (*mongo.Client).Disconnect

// Repository defines the interface for inventory snapshot storage.
type Repository interface {
	SaveInventorySnapshot(ctx context.Context, snapshot models.InventorySnapshot) error
	LatestInventorySnapshot(ctx context.Context) (*models.InventorySnapshot, error)
}

var _ Repository = (*MongoDBRepository)(nil)

// MongoDBRepository implements the Repository interface for MongoDB.
type MongoDBRepository struct {
	client   *mongo.Client
	dbName   string
	collName string
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if derr := disconnect(client, disconnectCtx); derr != nil {
			return nil, fmt.Errorf("failed to ping mongodb: %w (disconnect: %v)", err, derr)
		}
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client:   client,
		dbName:   dbName,
		collName: snapshotsCollection,
	}, nil
}

func (r *MongoDBRepository) collection() *mongo.Collection {
	return r.client.Database(r.dbName).Collection(r.collName)
}

// SaveInventorySnapshot saves an inventory snapshot to the database.
func (r *MongoDBRepository) SaveInventorySnapshot(ctx context.Context, snapshot models.InventorySnapshot) error {
	if _, err := r.collection().InsertOne(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to insert inventory snapshot: %w", err)
	}
	return nil
}

// LatestInventorySnapshot returns the most recent snapshot, or nil when none was stored yet.
func (r *MongoDBRepository) LatestInventorySnapshot(ctx context.Context) (*models.InventorySnapshot, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "taken_at", Value: -1}})

	var snapshot models.InventorySnapshot
	err := r.collection().FindOne(ctx, bson.D{}, opts).Decode(&snapshot)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest inventory snapshot: %w", err)
	}
	return &snapshot, nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
