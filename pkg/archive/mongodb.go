// Package archive keeps a history of generated restock digests in MongoDB.
package archive

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const digestCollection = "restock_digests"

// DigestItem is one saree listed in a digest.
type DigestItem struct {
	SareeID  string `bson:"saree_id" json:"saree_id"`
	Name     string `bson:"name" json:"name"`
	Type     string `bson:"type" json:"type"`
	Quantity int    `bson:"quantity" json:"quantity"`
	Sold     int    `bson:"sold_in_window" json:"sold_in_window"`
	Reason   string `bson:"reason" json:"reason"`
}

// Digest is one archived daily digest.
type Digest struct {
	Day         string       `bson:"day" json:"day"` // YYYY-MM-DD in the reporting timezone
	GeneratedAt time.Time    `bson:"generated_at" json:"generated_at"`
	SalesTotal  string       `bson:"sales_total" json:"sales_total"`
	TotalProfit string       `bson:"total_profit" json:"total_profit"`
	Items       []DigestItem `bson:"items" json:"items"`
}

// MongoArchive stores digests in a MongoDB collection.
type MongoArchive struct {
	client   *mongo.Client
	dbName   string
	collName string
}

// NewMongoArchive connects to uri and pings the server.
func NewMongoArchive(ctx context.Context, uri, dbName string) (*MongoArchive, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoArchive{client: client, dbName: dbName, collName: digestCollection}, nil
}

func (a *MongoArchive) collection() *mongo.Collection {
	return a.client.Database(a.dbName).Collection(a.collName)
}

// SaveDigest upserts the digest for its day, so a rerun replaces the earlier copy.
func (a *MongoArchive) SaveDigest(ctx context.Context, d Digest) error {
	_, err := a.collection().ReplaceOne(ctx,
		bson.M{"day": d.Day},
		d,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to save restock digest: %w", err)
	}
	return nil
}

// Recent returns up to limit digests, newest day first.
func (a *MongoArchive) Recent(ctx context.Context, limit int64) ([]Digest, error) {
	cur, err := a.collection().Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "day", Value: -1}}).SetLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query restock digests: %w", err)
	}
	defer cur.Close(ctx)

	var out []Digest
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode restock digests: %w", err)
	}
	return out, nil
}

// Close closes the MongoDB connection.
func (a *MongoArchive) Close(ctx context.Context) error {
	return a.client.Disconnect(ctx)
}
