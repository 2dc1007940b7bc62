package ingestion

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/healthnet/backend/internal/catalog"
	"github.com/healthnet/backend/internal/llm"
	"github.com/healthnet/backend/internal/metrics"
	"github.com/healthnet/backend/internal/vector/milvus"
	"github.com/healthnet/backend/pkg/logger"
)

// Collection names under the configured prefix.
const (
	PatientsCollection  = "patients"
	HospitalsCollection = "hospitals"
	DoctorsCollection   = "doctors"
)

// Indexer renders catalog rows into documents, embeds them, and builds the
// per-entity vector collections. It runs once at startup and again after a
// dataset reload.
type Indexer struct {
	llmClient *llm.Client
	vectorDB  *milvus.Client
}

func NewIndexer(llmClient *llm.Client, vectorDB *milvus.Client) *Indexer {
	return &Indexer{
		llmClient: llmClient,
		vectorDB:  vectorDB,
	}
}

// BuildAll rebuilds the patients, hospitals, and doctors collections from the
// catalog. Each collection is dropped and recreated, so the vector store
// always mirrors the current dataset.
func (ix *Indexer) BuildAll(ctx context.Context, cat *catalog.Catalog) error {
	patients := cat.Patients()
	patientDocs := make([]string, len(patients))
	patientIDs := make([]int64, len(patients))
	for i, p := range patients {
		patientDocs[i] = p.Document()
		patientIDs[i] = int64(p.ID)
	}

	hospitals := cat.Hospitals()
	hospitalDocs := make([]string, len(hospitals))
	hospitalIDs := make([]int64, len(hospitals))
	for i, h := range hospitals {
		hospitalDocs[i] = h.Document()
		hospitalIDs[i] = int64(h.ID)
	}

	doctors := cat.Doctors()
	doctorDocs := make([]string, len(doctors))
	doctorIDs := make([]int64, len(doctors))
	for i, d := range doctors {
		doctorDocs[i] = d.Document()
		doctorIDs[i] = int64(d.ID)
	}

	if err := ix.buildCollection(ctx, PatientsCollection, patientIDs, patientDocs); err != nil {
		return err
	}
	if err := ix.buildCollection(ctx, HospitalsCollection, hospitalIDs, hospitalDocs); err != nil {
		return err
	}
	if err := ix.buildCollection(ctx, DoctorsCollection, doctorIDs, doctorDocs); err != nil {
		return err
	}

	logger.Info("Vector index built",
		zap.Int("patients", len(patients)),
		zap.Int("hospitals", len(hospitals)),
		zap.Int("doctors", len(doctors)),
	)

	return nil
}

func (ix *Indexer) buildCollection(ctx context.Context, name string, refIDs []int64, docs []string) error {
	if len(docs) == 0 {
		return fmt.Errorf("no documents for collection %s", name)
	}

	embeddings, err := ix.llmClient.GenerateBatchEmbeddings(ctx, docs)
	if err != nil {
		return fmt.Errorf("failed to embed %s documents: %w", name, err)
	}
	if len(embeddings) != len(docs) {
		return fmt.Errorf("embedding count mismatch for %s: got %d, expected %d (ids %s..%s)",
			name, len(embeddings), len(docs),
			strconv.FormatInt(refIDs[0], 10), strconv.FormatInt(refIDs[len(refIDs)-1], 10))
	}

	vectorDocs := make([]milvus.Doc, len(docs))
	for i := range docs {
		vectorDocs[i] = milvus.Doc{
			RefID:     refIDs[i],
			Text:      docs[i],
			Embedding: embeddings[i],
		}
	}

	if err := ix.vectorDB.BuildCollection(ctx, name, vectorDocs); err != nil {
		return fmt.Errorf("failed to build collection %s: %w", name, err)
	}

	metrics.DocumentsIndexed.WithLabelValues(name).Add(float64(len(docs)))

	logger.Info("Collection built", zap.String("collection", name), zap.Int("documents", len(docs)))

	return nil
}
