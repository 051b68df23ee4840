package vectorstore

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
)

type mockPoints struct {
	upserted *pb.UpsertPoints
	searched *pb.SearchPoints
	search   *pb.SearchResponse
	err      error
}

func (m *mockPoints) Upsert(_ context.Context, in *pb.UpsertPoints, _ ...grpc.CallOption) (*pb.PointsOperationResponse, error) {
	m.upserted = in
	return &pb.PointsOperationResponse{}, m.err
}

func (m *mockPoints) Search(_ context.Context, in *pb.SearchPoints, _ ...grpc.CallOption) (*pb.SearchResponse, error) {
	m.searched = in
	return m.search, m.err
}

type mockCollections struct {
	names   []string
	created *pb.CreateCollection
	listErr error
}

func (m *mockCollections) List(context.Context, *pb.ListCollectionsRequest, ...grpc.CallOption) (*pb.ListCollectionsResponse, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	resp := &pb.ListCollectionsResponse{}
	for _, n := range m.names {
		resp.Collections = append(resp.Collections, &pb.CollectionDescription{Name: n})
	}
	return resp, nil
}

func (m *mockCollections) Create(_ context.Context, in *pb.CreateCollection, _ ...grpc.CallOption) (*pb.CollectionOperationResponse, error) {
	m.created = in
	return &pb.CollectionOperationResponse{Result: true}, nil
}

func TestEnsureCollection(t *testing.T) {
	cols := &mockCollections{names: []string{"keywords"}}
	s := newWithClients(&mockPoints{}, cols, "keywords")
	if err := s.EnsureCollection(context.Background(), 4); err != nil {
		t.Fatal(err)
	}
	if cols.created != nil {
		t.Fatalf("existing collection must not be recreated")
	}

	cols = &mockCollections{}
	s = newWithClients(&mockPoints{}, cols, "keywords")
	if err := s.EnsureCollection(context.Background(), 4); err != nil {
		t.Fatal(err)
	}
	params := cols.created.GetVectorsConfig().GetParams()
	if cols.created.GetCollectionName() != "keywords" || params.GetSize() != 4 || params.GetDistance() != pb.Distance_Cosine {
		t.Fatalf("unexpected create request %v", cols.created)
	}

	s = newWithClients(&mockPoints{}, &mockCollections{listErr: errors.New("down")}, "keywords")
	if err := s.EnsureCollection(context.Background(), 4); err == nil {
		t.Fatalf("expected list error to surface")
	}
}

func TestUpsert_StableIDsAndPayload(t *testing.T) {
	pts := &mockPoints{}
	s := newWithClients(pts, &mockCollections{}, "keywords")
	if err := s.Upsert(context.Background(), []Point{{Keyword: "dozer", Vector: []float32{1, 0}}}); err != nil {
		t.Fatal(err)
	}
	p := pts.upserted.GetPoints()[0]
	if p.GetId().GetUuid() != PointID("dozer") {
		t.Fatalf("unexpected id %v", p.GetId())
	}
	if p.GetPayload()[PayloadKeyword].GetStringValue() != "dozer" {
		t.Fatalf("unexpected payload %v", p.GetPayload())
	}
	if !pts.upserted.GetWait() {
		t.Fatalf("upsert must wait for the write")
	}
	if PointID("dozer") == PointID("loader") {
		t.Fatalf("distinct keywords must get distinct ids")
	}
}

func TestUpsert_EmptyIsNoop(t *testing.T) {
	pts := &mockPoints{err: errors.New("should not be called")}
	if err := newWithClients(pts, &mockCollections{}, "k").Upsert(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
}

func TestSearch_ThresholdOnRelevanceScale(t *testing.T) {
	kw := func(s string) map[string]*pb.Value {
		return map[string]*pb.Value{PayloadKeyword: {Kind: &pb.Value_StringValue{StringValue: s}}}
	}
	pts := &mockPoints{search: &pb.SearchResponse{Result: []*pb.ScoredPoint{
		{Score: 0.9, Payload: kw("cap")},
		{Score: 0.6, Payload: kw("dozer blade")},
		{Score: 0.4, Payload: kw("far")},
	}}}
	s := newWithClients(pts, &mockCollections{}, "keywords")
	hits, err := s.Search(context.Background(), []float32{1}, 1000, 0.75)
	if err != nil {
		t.Fatal(err)
	}
	want := []Hit{{Keyword: "cap", Score: 0.95}, {Keyword: "dozer blade", Score: 0.8}}
	if diff := cmp.Diff(want, hits, cmpopts.EquateApprox(0, 1e-6)); diff != "" {
		t.Fatalf("hits mismatch (-want +got):\n%s", diff)
	}
	if pts.searched.GetLimit() != 1000 {
		t.Fatalf("unexpected limit %d", pts.searched.GetLimit())
	}
	if got := pts.searched.GetScoreThreshold(); got < 0.4999 || got > 0.5001 {
		t.Fatalf("expected cosine threshold 0.5, got %v", got)
	}
}

func TestRelevance(t *testing.T) {
	cases := []struct{ cosine, want float32 }{{-1, 0}, {0, 0.5}, {0.5, 0.75}, {1, 1}}
	for _, tc := range cases {
		if got := Relevance(tc.cosine); got != tc.want {
			t.Errorf("Relevance(%v) = %v, want %v", tc.cosine, got, tc.want)
		}
		if got := cosineFor(tc.want); got != tc.cosine {
			t.Errorf("cosineFor(%v) = %v, want %v", tc.want, got, tc.cosine)
		}
	}
}
