// Package vectorstore keeps keyword embeddings in a Qdrant collection.
package vectorstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// PayloadKeyword is the payload field holding the indexed text.
const PayloadKeyword = "search_keyword"

// keywordSpace namespaces point ids derived from keyword text.
var keywordSpace = uuid.MustParse("6f1c3c38-2f0e-4a43-9d8c-7d1f9f0a5b21")

// Point is one keyword and its embedding.
type Point struct {
	Keyword string
	Vector  []float32
}

// Hit is a search result.
type Hit struct {
	Keyword string
	Score   float32
}

type pointsAPI interface {
	Upsert(ctx context.Context, in *pb.UpsertPoints, opts ...grpc.CallOption) (*pb.PointsOperationResponse, error)
	Search(ctx context.Context, in *pb.SearchPoints, opts ...grpc.CallOption) (*pb.SearchResponse, error)
}

type collectionsAPI interface {
	List(ctx context.Context, in *pb.ListCollectionsRequest, opts ...grpc.CallOption) (*pb.ListCollectionsResponse, error)
	Create(ctx context.Context, in *pb.CreateCollection, opts ...grpc.CallOption) (*pb.CollectionOperationResponse, error)
}

// Store is the sole owner of Qdrant operations.
type Store struct {
	conn        *grpc.ClientConn
	points      pointsAPI
	collections collectionsAPI
	collection  string
}

// New connects to Qdrant at the given gRPC address.
func New(addr, collection string) (*Store, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("vectorstore: dial qdrant %s: %w", addr, err)
	}
	return &Store{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		collection:  collection,
	}, nil
}

func newWithClients(points pointsAPI, collections collectionsAPI, collection string) *Store {
	return &Store{points: points, collections: collections, collection: collection}
}

// Close closes the underlying gRPC connection.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// PointID derives a stable point id from keyword text so re-indexing the
// same keyword overwrites its point.
func PointID(keyword string) string {
	return uuid.NewSHA1(keywordSpace, []byte(keyword)).String()
}

// EnsureCollection creates the collection with cosine distance if missing.
func (s *Store) EnsureCollection(ctx context.Context, dims int) error {
	list, err := s.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("vectorstore: list collections: %w", err)
	}
	for _, c := range list.GetCollections() {
		if c.GetName() == s.collection {
			return nil
		}
	}
	_, err = s.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(dims),
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("vectorstore: create collection %s: %w", s.collection, err)
	}
	return nil
}

// Upsert stores keyword points and waits for the write to apply.
func (s *Store) Upsert(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}
	out := make([]*pb.PointStruct, len(points))
	for i, p := range points {
		out[i] = &pb.PointStruct{
			Id: &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: PointID(p.Keyword)}},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: p.Vector}},
			},
			Payload: map[string]*pb.Value{
				PayloadKeyword: {Kind: &pb.Value_StringValue{StringValue: p.Keyword}},
			},
		}
	}
	wait := true
	if _, err := s.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points:         out,
	}); err != nil {
		return fmt.Errorf("vectorstore: upsert %d points: %w", len(points), err)
	}
	return nil
}

// Relevance maps a cosine similarity in [-1, 1] onto the [0, 1] relevance
// scale keyword thresholds are expressed in: (1 + cosine) / 2.
func Relevance(cosine float32) float32 { return (1 + cosine) / 2 }

// cosineFor is the inverse of Relevance.
func cosineFor(relevance float32) float32 { return 2*relevance - 1 }

// Search returns up to limit nearest keywords whose relevance is at least
// minScore. Hit scores are reported on the relevance scale.
func (s *Store) Search(ctx context.Context, vector []float32, limit int, minScore float32) ([]Hit, error) {
	threshold := cosineFor(minScore)
	resp, err := s.points.Search(ctx, &pb.SearchPoints{
		CollectionName: s.collection,
		Vector:         vector,
		Limit:          uint64(limit),
		ScoreThreshold: &threshold,
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("vectorstore: search: %w", err)
	}
	hits := make([]Hit, 0, len(resp.GetResult()))
	for _, r := range resp.GetResult() {
		score := Relevance(r.GetScore())
		if score < minScore {
			continue
		}
		hits = append(hits, Hit{
			Keyword: r.GetPayload()[PayloadKeyword].GetStringValue(),
			Score:   score,
		})
	}
	return hits, nil
}
