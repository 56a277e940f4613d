package retriever

import (
	"context"
	"fmt"
	"path/filepath"

	chromem "github.com/philippgille/chromem-go"

	"license-navigator/internal/catalog"
	"license-navigator/internal/embedding"
)

const (
	collectionName = "licenses"
	embedBatchSize = 100
)

// buildIndex embeds every flattened catalog doc and loads it into a chromem
// collection. With a persist path the gob file survives restarts; without
// one the index lives in memory only.
func buildIndex(ctx context.Context, snapshot *catalog.Snapshot, embedder embedding.Embedder, persistPath string) (*chromem.Collection, error) {
	var db *chromem.DB
	var err error
	if persistPath != "" {
		db, err = chromem.NewPersistentDB(filepath.Join(persistPath, "licenses.gob"), false)
		if err != nil {
			return nil, fmt.Errorf("open persistent index: %w", err)
		}
	} else {
		db = chromem.NewDB()
	}

	embedOne := func(ctx context.Context, text string) ([]float32, error) {
		return embedder.Embed(ctx, text)
	}
	collection, err := db.GetOrCreateCollection(collectionName, map[string]string{
		"catalogVersion": snapshot.Version(),
	}, embedOne)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	docs := snapshot.LicenseDocs()
	if collection.Count() == len(docs) {
		// a persisted index for this catalog is already complete
		return collection, nil
	}

	for start := 0; start < len(docs); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(docs) {
			end = len(docs)
		}
		batch := docs[start:end]

		texts := make([]string, len(batch))
		for i, doc := range batch {
			texts[i] = doc.Text
		}
		vectors, err := embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, err
		}

		for i, doc := range batch {
			err := collection.AddDocument(ctx, chromem.Document{
				ID:        docID(doc.LicenseID, doc.Jurisdiction),
				Content:   doc.Text,
				Embedding: vectors[i],
				Metadata: map[string]string{
					"typeId":       doc.TypeID,
					"jurisdiction": doc.Jurisdiction,
				},
			})
			if err != nil {
				return nil, fmt.Errorf("index doc %s: %w", doc.LicenseID, err)
			}
		}
	}

	return collection, nil
}
