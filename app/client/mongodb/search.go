package mongodb

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"
)

const (
	vectorIndexName   = "vector_index"
	fulltextIndexName = "fulltext_index"

	numCandidates = 100
)

// HybridSearch runs the vector and full-text arms over the movie and TV chunk
// collections concurrently and fuses the per-arm rankings into one list via
// reciprocal rank fusion: each arm contributes 1/(rank+penalty+1) to a chunk's
// score. The result is ordered by fused score, descending.
func (c *Client) HybridSearch(ctx context.Context, text string) ([]SearchDocument, error) {
	vector, err := c.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	limit := c.cfg.Pipeline.TopK * c.cfg.Pipeline.Oversampling

	var (
		mu    sync.Mutex
		fused = make(map[string]*SearchDocument)
	)

	merge := func(docs []chunkDoc, vectorArm bool) {
		mu.Lock()
		defer mu.Unlock()

		for rank, doc := range docs {
			id := doc.ID.Hex()
			entry, ok := fused[id]
			if !ok {
				entry = &SearchDocument{
					Content: doc.Text,
					Meta:    doc.meta(),
				}
				fused[id] = entry
			}

			if vectorArm {
				contribution := 1.0 / float64(rank+c.cfg.Pipeline.VectorPenalty+1)
				entry.Meta.VectorScore = contribution
				entry.Meta.Score += contribution
			} else {
				contribution := 1.0 / float64(rank+c.cfg.Pipeline.FulltextPenalty+1)
				entry.Meta.FulltextScore = contribution
				entry.Meta.Score += contribution
			}
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	for _, coll := range []*mongo.Collection{c.movieChunks, c.tvChunks} {
		g.Go(func() error {
			docs, err := c.vectorArm(gctx, coll, vector, limit)
			if err != nil {
				return fmt.Errorf("vector search on %s: %w", coll.Name(), err)
			}
			merge(docs, true)
			return nil
		})

		g.Go(func() error {
			docs, err := c.fulltextArm(gctx, coll, text, limit)
			if err != nil {
				return fmt.Errorf("fulltext search on %s: %w", coll.Name(), err)
			}
			merge(docs, false)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := make([]SearchDocument, 0, len(fused))
	for _, entry := range fused {
		result = append(result, *entry)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Meta.Score > result[j].Meta.Score
	})

	return result, nil
}

func (c *Client) vectorArm(ctx context.Context, coll *mongo.Collection, vector []float32, limit int) ([]chunkDoc, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$vectorSearch", Value: bson.M{
			"index":         vectorIndexName,
			"path":          "embedding",
			"queryVector":   vector,
			"numCandidates": numCandidates,
			"limit":         limit,
		}}},
		bson.D{{Key: "$addFields", Value: bson.M{
			"search_score": bson.M{"$meta": "vectorSearchScore"},
		}}},
		bson.D{{Key: "$unset", Value: "embedding"}},
	}

	return c.aggregateChunks(ctx, coll, pipeline)
}

func (c *Client) fulltextArm(ctx context.Context, coll *mongo.Collection, text string, limit int) ([]chunkDoc, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$search", Value: bson.M{
			"index": fulltextIndexName,
			"text": bson.M{
				"query": text,
				"path":  "text",
			},
		}}},
		bson.D{{Key: "$limit", Value: limit}},
		bson.D{{Key: "$addFields", Value: bson.M{
			"search_score": bson.M{"$meta": "searchScore"},
		}}},
		bson.D{{Key: "$unset", Value: "embedding"}},
	}

	return c.aggregateChunks(ctx, coll, pipeline)
}

func (c *Client) aggregateChunks(ctx context.Context, coll *mongo.Collection, pipeline mongo.Pipeline) ([]chunkDoc, error) {
	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate failed: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []chunkDoc
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode chunks: %w", err)
	}

	return docs, nil
}
