// Package db persists structured transcripts to MongoDB and Postgres.
package db

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"foolcalls/pkg/domain"
)

var errNotConnected = errors.New("mongo client not initialized")

// Client wraps the MongoDB client and the transcripts collection
type Client struct {
	mongoClient *mongo.Client
	collection  *mongo.Collection
}

// NewClient connects lazily to uri; call Connect to verify the server is reachable.
func NewClient(ctx context.Context, uri, databaseName, collectionName string) (*Client, error) {
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	return &Client{
		mongoClient: mongoClient,
		collection:  mongoClient.Database(databaseName).Collection(collectionName),
	}, nil
}

// Connect pings the server and makes sure cid is a unique index.
func (c *Client) Connect(ctx context.Context) error {
	if c.mongoClient == nil {
		return errNotConnected
	}
	if err := c.mongoClient.Ping(ctx, nil); err != nil {
		return fmt.Errorf("ping mongo: %w", err)
	}
	_, err := c.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "cid", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create cid index: %w", err)
	}
	return nil
}

// Close closes the MongoDB connection
func (c *Client) Close(ctx context.Context) error {
	if c.mongoClient == nil {
		return nil
	}
	return c.mongoClient.Disconnect(ctx)
}

// SaveTranscript upserts call keyed by its cid.
func (c *Client) SaveTranscript(ctx context.Context, call *domain.StructuredCall) error {
	if c.collection == nil {
		return errNotConnected
	}
	if call.CID == "" {
		return errors.New("transcript has no cid")
	}

	filter := bson.M{"cid": call.CID}
	update := bson.M{"$set": call}
	_, err := c.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert transcript %s: %w", call.CID, err)
	}
	return nil
}

// GetAllCIDs returns the set of cids stored in the collection.
func (c *Client) GetAllCIDs(ctx context.Context) (map[string]bool, error) {
	if c.collection == nil {
		return nil, errNotConnected
	}

	cursor, err := c.collection.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"cid": 1, "_id": 0}))
	if err != nil {
		return nil, fmt.Errorf("failed to query cids: %w", err)
	}
	defer cursor.Close(ctx)

	cids := make(map[string]bool)
	for cursor.Next(ctx) {
		var doc struct {
			CID string `bson:"cid"`
		}
		if err := cursor.Decode(&doc); err != nil {
			continue
		}
		if doc.CID != "" {
			cids[doc.CID] = true
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return cids, nil
}

// GetAllTranscripts loads every stored transcript, ordered by cid.
func (c *Client) GetAllTranscripts(ctx context.Context) ([]domain.StructuredCall, error) {
	if c.collection == nil {
		return nil, errNotConnected
	}

	cursor, err := c.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "cid", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query transcripts: %w", err)
	}
	defer cursor.Close(ctx)

	var calls []domain.StructuredCall
	if err := cursor.All(ctx, &calls); err != nil {
		return nil, fmt.Errorf("decode transcripts: %w", err)
	}
	return calls, nil
}
