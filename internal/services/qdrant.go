package services

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

// VectorIndex keeps one Qdrant collection per posting collection, indexing
// the general-aspect vector of every enriched posting. The matcher uses it to
// shortlist candidates before exact per-aspect scoring against Postgres.
type VectorIndex interface {
	EnsureCollection(ctx context.Context, collection string) error
	UpsertPosting(ctx context.Context, collection, postingID string, vector []float32) error
	Search(ctx context.Context, collection string, vector []float32, limit int) ([]ScoredID, error)
	DeletePosting(ctx context.Context, collection, postingID string) error
}

type ScoredID struct {
	PostingID string
	Score     float32
}

type vectorIndex struct {
	client     *qdrant.Client
	vectorSize uint64
}

// pointNamespace derives stable point IDs so re-upserting a posting replaces
// its previous point instead of accumulating duplicates.
var pointNamespace = uuid.MustParse("3f1c8e2a-94d7-4b6f-8a21-5c0de9b7a4f2")

func NewVectorIndex(urlStr, apiKey string) (VectorIndex, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsed.Hostname()
	useTLS := parsed.Scheme == "https"

	// For gRPC client, use port 6334 by default (gRPC port)
	port := 6334
	if p := parsed.Port(); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	return &vectorIndex{
		client:     client,
		vectorSize: 768, // text-embedding-004 size
	}, nil
}

// EnsureCollection implements VectorIndex.
func (q *vectorIndex) EnsureCollection(ctx context.Context, collection string) error {
	exists, err := q.client.CollectionExists(ctx, collection)
	if err != nil {
		return fmt.Errorf("failed to check collection %s: %w", collection, err)
	}

	if exists {
		return nil
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     q.vectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", collection, err)
	}

	log.Printf("✅ Qdrant collection '%s' created successfully\n", collection)
	return nil
}

// UpsertPosting implements VectorIndex.
func (q *vectorIndex) UpsertPosting(ctx context.Context, collection, postingID string, vector []float32) error {
	pointID := uuid.NewSHA1(pointNamespace, []byte(collection+"/"+postingID))

	point := &qdrant.PointStruct{
		Id:      qdrant.NewID(pointID.String()),
		Vectors: qdrant.NewVectors(vector...),
		Payload: qdrant.NewValueMap(map[string]interface{}{
			"posting_id": postingID,
		}),
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Points:         []*qdrant.PointStruct{point},
	})
	if err != nil {
		return fmt.Errorf("failed to upsert posting %s: %w", postingID, err)
	}

	return nil
}

// Search implements VectorIndex.
func (q *vectorIndex) Search(ctx context.Context, collection string, vector []float32, limit int) ([]ScoredID, error) {
	searchResult, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", collection, err)
	}

	var results []ScoredID
	for _, point := range searchResult {
		id, ok := point.Payload["posting_id"]
		if !ok {
			continue
		}
		val, ok := id.GetKind().(*qdrant.Value_StringValue)
		if !ok {
			continue
		}
		results = append(results, ScoredID{
			PostingID: val.StringValue,
			Score:     point.Score,
		})
	}

	return results, nil
}

// DeletePosting implements VectorIndex.
func (q *vectorIndex) DeletePosting(ctx context.Context, collection, postingID string) error {
	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch("posting_id", postingID),
		},
	}

	_, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collection,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
				Filter: filter,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete posting %s: %w", postingID, err)
	}

	return nil
}
