package mongodb

import (
	"context"
	"fmt"
	"moovzmatch/app/util/media"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// HasActors reports, per media id, whether the document's cast contains every
// queried actor name and which names are missing when it does not. Cast names
// are compared lowercased, matching how the recognizer output is stored.
// An empty id list yields an empty map.
func (c *Client) HasActors(ctx context.Context, kind media.Kind, ids []string, actors []string) (map[string]ActorPresence, error) {
	if len(ids) == 0 || len(actors) == 0 {
		return map[string]ActorPresence{}, nil
	}

	objectIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		objectID, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		objectIDs = append(objectIDs, objectID)
	}
	if len(objectIDs) == 0 {
		return map[string]ActorPresence{}, nil
	}

	coll := c.movies
	if kind == media.KindTV {
		coll = c.tvShows
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{
			"_id": bson.M{"$in": objectIDs},
		}}},
		bson.D{{Key: "$project", Value: bson.M{
			"missing": bson.M{"$setDifference": bson.A{
				actors,
				bson.M{"$map": bson.M{
					"input": bson.M{"$ifNull": bson.A{"$credits.cast", bson.A{}}},
					"in":    bson.M{"$toLower": "$$this.name"},
				}},
			}},
		}}},
		bson.D{{Key: "$addFields", Value: bson.M{
			"exists": bson.M{"$eq": bson.A{bson.M{"$size": "$missing"}, 0}},
		}}},
	}

	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("actor presence aggregate failed: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ID      primitive.ObjectID `bson:"_id"`
		Exists  bool               `bson:"exists"`
		Missing []string           `bson:"missing"`
	}
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode actor presence: %w", err)
	}

	result := make(map[string]ActorPresence, len(rows))
	for _, row := range rows {
		result[row.ID.Hex()] = ActorPresence{
			Exists:  row.Exists,
			Missing: row.Missing,
		}
	}

	return result, nil
}
