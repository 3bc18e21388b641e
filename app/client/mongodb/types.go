package mongodb

import (
	"moovzmatch/app/util/media"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SearchDocument is one dialogue chunk returned by hybrid search, with the
// fused relevance score and the identity of the media it came from.
type SearchDocument struct {
	Content string
	Meta    ChunkMeta
}

type ChunkMeta struct {
	// Fused relevance score, raw reciprocal-rank-fusion scale
	Score         float64
	VectorScore   float64
	FulltextScore float64

	MovieID  string
	TVShowID string

	// Episodic linkage, set for TV chunks only
	EpisodeID     string
	SeasonNumber  int
	EpisodeNumber int

	// Position of the chunk within its transcript
	Index int
}

// MediaKey extracts the tagged media identity. Chunks carry either a movie id
// or a TV show id; anything else is unusable and reported as not ok.
func (m ChunkMeta) MediaKey() (media.Key, bool) {
	if m.MovieID != "" {
		return media.Key{Kind: media.KindMovie, ID: m.MovieID}, true
	}
	if m.TVShowID != "" {
		return media.Key{Kind: media.KindTV, ID: m.TVShowID}, true
	}
	return media.Key{}, false
}

// ActorPresence answers whether a media document's cast contains the full
// queried actor set, and which names are absent when it does not.
type ActorPresence struct {
	Exists  bool
	Missing []string
}

// Summary is the flattened media metadata record sent with a successful
// identification. Heavy fields (image blobs, full credits, embeddings) are
// excluded at query time.
type Summary struct {
	ID           string  `bson:"-" json:"id"`
	Title        string  `bson:"title" json:"title"`
	Name         string  `bson:"name" json:"-"`
	PosterPath   string  `bson:"poster_path" json:"posterUrl"`
	ReleaseDate  string  `bson:"release_date" json:"year"`
	FirstAirDate string  `bson:"first_air_date" json:"-"`
	Genres       string  `bson:"-" json:"genre"`
	Overview     string  `bson:"overview" json:"description"`
	VoteAverage  float64 `bson:"vote_average" json:"tmdbRating"`
	Runtime      int     `bson:"runtime" json:"duration"`
}

// DisplayTitle prefers the movie title and falls back to the TV show name.
func (s *Summary) DisplayTitle() string {
	if s.Title != "" {
		return s.Title
	}
	return s.Name
}

// Year prefers the movie release date and falls back to the first air date.
func (s *Summary) Year() string {
	if s.ReleaseDate != "" {
		return s.ReleaseDate
	}
	return s.FirstAirDate
}

// chunkDoc is the stored shape of a dialogue chunk.
type chunkDoc struct {
	ID            primitive.ObjectID  `bson:"_id"`
	Text          string              `bson:"text"`
	MovieID       *primitive.ObjectID `bson:"movie_id,omitempty"`
	TVShowID      *primitive.ObjectID `bson:"tv_show_id,omitempty"`
	EpisodeID     *primitive.ObjectID `bson:"episode_id,omitempty"`
	SeasonNumber  int                 `bson:"season_number,omitempty"`
	EpisodeNumber int                 `bson:"episode_number,omitempty"`
	Index         int                 `bson:"index"`
	SearchScore   float64             `bson:"search_score"`
}

func (d chunkDoc) meta() ChunkMeta {
	m := ChunkMeta{
		SeasonNumber:  d.SeasonNumber,
		EpisodeNumber: d.EpisodeNumber,
		Index:         d.Index,
	}
	if d.MovieID != nil {
		m.MovieID = d.MovieID.Hex()
	}
	if d.TVShowID != nil {
		m.TVShowID = d.TVShowID.Hex()
	}
	if d.EpisodeID != nil {
		m.EpisodeID = d.EpisodeID.Hex()
	}
	return m
}
