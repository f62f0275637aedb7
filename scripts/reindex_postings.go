package main

import (
	"context"
	"flag"
	"log"

	"practimatch/job-match-api/internal/config"
	"practimatch/job-match-api/internal/models"
	"practimatch/job-match-api/internal/repositories"
	"practimatch/job-match-api/internal/services"
)

// Rebuilds the Qdrant index of a collection from the embeddings stored in
// Postgres. Useful after pointing the API at a fresh Qdrant instance.
func main() {
	collection := flag.String("collection", "", "collection to reindex (defaults to the configured default)")
	flag.Parse()

	log.Println("🚀 Starting posting reindex...")

	cfg := config.Load()
	if *collection == "" {
		*collection = cfg.Matching.DefaultCollection
	}

	db, err := config.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}

	vectorIndex, err := services.NewVectorIndex(cfg.Qdrant.URL, cfg.Qdrant.APIKey)
	if err != nil {
		log.Fatalf("❌ Failed to initialize Qdrant: %v", err)
	}

	ctx := context.Background()
	if err := vectorIndex.EnsureCollection(ctx, *collection); err != nil {
		log.Fatalf("❌ Failed to prepare collection: %v", err)
	}

	postingRepo := repositories.NewJobPostingRepository(db)
	postings, err := postingRepo.ListSince(*collection, nil)
	if err != nil {
		log.Fatalf("❌ Failed to list postings: %v", err)
	}

	log.Printf("📝 Reindexing %d postings from %s\n", len(postings), *collection)

	var indexed, skipped, failed int
	for i := range postings {
		posting := &postings[i]
		if !posting.HasEmbeddings() {
			skipped++
			continue
		}

		vector := posting.Embeddings[models.AspectGeneral]
		if err := vectorIndex.UpsertPosting(ctx, *collection, posting.ID, vector); err != nil {
			log.Printf("⚠️  Failed to index %s: %v\n", posting.ID, err)
			failed++
			continue
		}
		indexed++
	}

	log.Printf("✅ Reindex done: %d indexed, %d skipped (no embeddings), %d failed\n", indexed, skipped, failed)
}
