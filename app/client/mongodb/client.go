package mongodb

import (
	"context"
	"moovzmatch/app/client/embedding"
	"moovzmatch/app/config"
	"time"

	"github.com/samber/do"
	"github.com/samber/oops"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const connectTimeout = 15 * time.Second

var _ do.Shutdownable = (*Client)(nil)

// Embedder produces the query vector for the vector arm of hybrid search.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Client wraps the media store: dialogue chunk search, actor presence and
// media summaries. All reads; safe for concurrent use across sessions.
type Client struct {
	cfg      *config.Config
	client   *mongo.Client
	embedder Embedder

	movies      *mongo.Collection
	tvShows     *mongo.Collection
	movieChunks *mongo.Collection
	tvChunks    *mongo.Collection
}

func NewClient(di *do.Injector) (*Client, error) {
	ctx := do.MustInvoke[context.Context](di)
	cfg := do.MustInvoke[*config.Config](di)
	embedder := do.MustInvoke[*embedding.Client](di)

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.Mongo.URI).
		SetMaxPoolSize(cfg.Mongo.MaxPoolSize).
		SetServerSelectionTimeout(connectTimeout)

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, oops.Errorf("failed to connect to mongo: %w", err)
	}

	if err = client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, oops.Errorf("failed to ping mongo: %w", err)
	}

	db := client.Database(cfg.Mongo.Database)

	return &Client{
		cfg:         cfg,
		client:      client,
		embedder:    embedder,
		movies:      db.Collection(cfg.Mongo.Movies),
		tvShows:     db.Collection(cfg.Mongo.TVShows),
		movieChunks: db.Collection(cfg.Mongo.MovieChunks),
		tvChunks:    db.Collection(cfg.Mongo.TVChunks),
	}, nil
}

func (c *Client) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	return c.client.Disconnect(ctx)
}
