package mongodb

import (
	"context"
	"fmt"
	"moovzmatch/app/util/media"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// heavy fields never sent over the wire
var summaryUnset = bson.A{
	"_id", "images", "credits", "videos", "external_ids", "embedding",
	"embedding_model", "tmdb_id", "origin_country", "spoken_languages",
	"updated_at", "created_at",
}

// FetchSummary returns the flattened metadata record for one movie or TV
// show. A malformed id or an absent document yields nil without error.
func (c *Client) FetchSummary(ctx context.Context, key media.Key) (*Summary, error) {
	objectID, err := primitive.ObjectIDFromHex(key.ID)
	if err != nil {
		return nil, nil
	}

	coll := c.movies
	if key.Kind == media.KindTV {
		coll = c.tvShows
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"_id": objectID}}},
		bson.D{{Key: "$unset", Value: summaryUnset}},
		bson.D{{Key: "$limit", Value: 1}},
	}

	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("summary aggregate failed: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Summary `bson:",inline"`
		Genres  []struct {
			Name string `bson:"name"`
		} `bson:"genres"`
	}
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode summary: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	row := rows[0]
	summary := row.Summary
	summary.ID = key.ID

	names := make([]string, 0, len(row.Genres))
	for _, genre := range row.Genres {
		if genre.Name != "" {
			names = append(names, genre.Name)
		}
	}
	summary.Genres = strings.Join(names, " | ")

	return &summary, nil
}
