package milvus

import (
	"context"
	"fmt"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.uber.org/zap"

	"github.com/healthnet/backend/pkg/logger"
)

// Client manages one Milvus collection per reference collection (patients,
// hospitals, doctors). Collections are rebuilt at startup and read-only
// afterwards.
type Client struct {
	client           client.Client
	collectionPrefix string
	vectorDim        int
}

// Doc is a single indexed record: the catalog primary key plus the canonical
// text rendering of the row.
type Doc struct {
	RefID     int64
	Text      string
	Embedding []float32
}

// SearchHit is one nearest neighbor, highest similarity first.
type SearchHit struct {
	RefID int64
	Text  string
	Score float32
}

func NewClient(endpoint, collectionPrefix string, vectorDim int) (*Client, error) {
	c, err := client.NewGrpcClient(
		context.Background(),
		endpoint,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create milvus client: %w", err)
	}

	logger.Info("Milvus client initialized",
		zap.String("endpoint", endpoint),
		zap.String("collection_prefix", collectionPrefix),
	)

	return &Client{
		client:           c,
		collectionPrefix: collectionPrefix,
		vectorDim:        vectorDim,
	}, nil
}

func (m *Client) Close() error {
	return m.client.Close()
}

func (m *Client) collectionName(name string) string {
	return fmt.Sprintf("%s_%s", m.collectionPrefix, name)
}

// BuildCollection recreates the named collection from docs. The reference
// dataset is fixed for the process lifetime, so any existing collection is
// dropped first to keep the index in step with the catalog.
func (m *Client) BuildCollection(ctx context.Context, name string, docs []Doc) error {
	collection := m.collectionName(name)

	has, err := m.client.HasCollection(ctx, collection)
	if err != nil {
		return fmt.Errorf("failed to check collection %s: %w", collection, err)
	}
	if has {
		if err := m.client.DropCollection(ctx, collection); err != nil {
			return fmt.Errorf("failed to drop collection %s: %w", collection, err)
		}
	}

	schema := &entity.Schema{
		CollectionName: collection,
		Description:    fmt.Sprintf("Semantic index over the %s reference collection", name),
		Fields: []*entity.Field{
			{
				Name:       "ref_id",
				DataType:   entity.FieldTypeInt64,
				PrimaryKey: true,
				AutoID:     false,
			},
			{
				Name:     "embedding",
				DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{
					"dim": fmt.Sprintf("%d", m.vectorDim),
				},
			},
			{
				Name:     "text",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "1024",
				},
			},
		},
	}

	err = m.client.CreateCollection(ctx, schema, entity.DefaultShardNumber)
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", collection, err)
	}

	refIDs := make([]int64, len(docs))
	embeddings := make([][]float32, len(docs))
	texts := make([]string, len(docs))
	for i, doc := range docs {
		refIDs[i] = doc.RefID
		embeddings[i] = doc.Embedding
		texts[i] = doc.Text
	}

	_, err = m.client.Insert(
		ctx,
		collection,
		"",
		entity.NewColumnInt64("ref_id", refIDs),
		entity.NewColumnFloatVector("embedding", m.vectorDim, embeddings),
		entity.NewColumnVarChar("text", texts),
	)
	if err != nil {
		return fmt.Errorf("failed to insert into %s: %w", collection, err)
	}

	err = m.client.Flush(ctx, collection, false)
	if err != nil {
		return fmt.Errorf("failed to flush %s: %w", collection, err)
	}

	idx, _ := entity.NewIndexIvfFlat(entity.L2, 128)
	err = m.client.CreateIndex(ctx, collection, "embedding", idx, false)
	if err != nil {
		return fmt.Errorf("failed to create index on %s: %w", collection, err)
	}

	err = m.client.LoadCollection(ctx, collection, false)
	if err != nil {
		return fmt.Errorf("failed to load collection %s: %w", collection, err)
	}

	logger.Info("Collection built",
		zap.String("collection", collection),
		zap.Int("docs", len(docs)),
	)

	return nil
}

// Search returns up to topK nearest neighbors for the query vector, in the
// provider's similarity order.
func (m *Client) Search(ctx context.Context, name string, queryVector []float32, topK int) ([]SearchHit, error) {
	collection := m.collectionName(name)

	sp, _ := entity.NewIndexIvfFlatSearchParam(16)

	searchResult, err := m.client.Search(
		ctx,
		collection,
		[]string{},
		"",
		[]string{"ref_id", "text"},
		[]entity.Vector{entity.FloatVector(queryVector)},
		"embedding",
		entity.L2,
		topK,
		sp,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", collection, err)
	}

	hits := make([]SearchHit, 0)
	for _, sr := range searchResult {
		for i := 0; i < sr.ResultCount; i++ {
			refIDCol := sr.Fields.GetColumn("ref_id")
			textCol := sr.Fields.GetColumn("text")

			refID, _ := refIDCol.Get(i)
			text, _ := textCol.Get(i)

			hits = append(hits, SearchHit{
				RefID: refID.(int64),
				Text:  text.(string),
				Score: sr.Scores[i],
			})
		}
	}

	logger.Debug("Vector search completed",
		zap.String("collection", collection),
		zap.Int("topK", topK),
		zap.Int("hits", len(hits)),
	)

	return hits, nil
}
