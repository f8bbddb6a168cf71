package knowledge

import (
	"context"
	"errors"
	"fmt"

	"github.com/tributa-cloud/tributa/internal/db"
)

// IndexDefinition returns the FT schema for the knowledge base. vectorDim
// must match the embedding model in use.
func IndexDefinition(vectorDim int) *db.IndexDefinition {
	return db.NewIndex(IndexName).
		Prefix(KeyPrefix).
		Text("title").
		Text("content").
		Tag("category").
		Tag("source").
		TagWithOpts("topics", ",", false).
		Numeric("year").
		Numeric("updated_at").
		Numeric("published_at").
		Numeric("quality").
		Numeric("tier").
		VectorHNSW("embedding", vectorDim, db.DistanceCosine, hnswM, hnswEFConstruct).
		MustBuild()
}

// EnsureIndex creates the knowledge index if it does not exist yet.
func EnsureIndex(ctx context.Context, mgr db.IndexManager, vectorDim int) error {
	err := mgr.CreateIndex(ctx, IndexDefinition(vectorDim))
	if err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index %s: %w", IndexName, err)
	}
	return nil
}
