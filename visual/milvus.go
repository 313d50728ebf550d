package visual

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"github.com/MisbahAN/ChatVid-AI/core"
)

// MilvusFrameIndex keeps frame sets in a Milvus collection with an
// HNSW cosine index, partitioned logically by job ID. Opt-in via
// STORE=milvus.
type MilvusFrameIndex struct {
	mc   client.Client
	coll string
	dim  int
}

func newMilvusFrameIndex() (*MilvusFrameIndex, error) {
	addr := os.Getenv("MILVUS_ADDR")
	if addr == "" {
		addr = "localhost:19530"
	}
	coll := os.Getenv("MILVUS_COLLECTION")
	if coll == "" {
		coll = "video_frames"
	}

	mc, err := client.NewClient(context.Background(), client.Config{
		Address:  addr,
		Username: os.Getenv("MILVUS_USERNAME"),
		Password: os.Getenv("MILVUS_PASSWORD"),
		APIKey:   os.Getenv("MILVUS_API_KEY"),
	})
	if err != nil {
		return nil, fmt.Errorf("connect milvus: %w", err)
	}
	return &MilvusFrameIndex{mc: mc, coll: coll}, nil
}

// frameCollectionSchema builds the named schema for the frame
// collection: an auto primary key, the owning job ID, the frame's
// timestamp and description, and the embedding vector sized to dim.
func frameCollectionSchema(coll string, dim int) *entity.Schema {
	schema := entity.NewSchema().WithName(coll)
	schema.WithField(entity.NewField().WithName("id").WithIsAutoID(true).WithIsPrimaryKey(true).WithDataType(entity.FieldTypeInt64))
	schema.WithField(entity.NewField().WithName("job_id").WithDataType(entity.FieldTypeVarChar).WithMaxLength(128))
	schema.WithField(entity.NewField().WithName("timestamp_sec").WithDataType(entity.FieldTypeInt64))
	schema.WithField(entity.NewField().WithName("description").WithDataType(entity.FieldTypeVarChar).WithMaxLength(4096))
	schema.WithField(entity.NewField().WithName("vector").WithDataType(entity.FieldTypeFloatVector).WithDim(int64(dim)))
	return schema
}

// ensureCollection creates the frame collection when it is missing and
// reuses it otherwise, so concurrent jobs share the collection and
// isolate by job ID. The collection is recreated only when the
// embedding dimension changes (a model switch).
func (s *MilvusFrameIndex) ensureCollection(ctx context.Context, dim int) error {
	has, err := s.mc.HasCollection(ctx, s.coll)
	if err != nil {
		return err
	}
	if has && s.dim == dim {
		return nil
	}
	if has {
		if err := s.mc.DropCollection(ctx, s.coll); err != nil {
			return fmt.Errorf("drop collection: %w", err)
		}
	}

	if err := s.mc.CreateCollection(ctx, frameCollectionSchema(s.coll, dim), int32(2)); err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	idx, err := entity.NewIndexHNSW(entity.COSINE, 8, 200)
	if err != nil {
		return fmt.Errorf("new hnsw index: %w", err)
	}
	if err := s.mc.CreateIndex(ctx, s.coll, "vector", idx, false, client.WithIndexName("idx_vector")); err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	if err := s.mc.LoadCollection(ctx, s.coll, false); err != nil {
		return fmt.Errorf("load collection: %w", err)
	}
	s.dim = dim
	return nil
}

// jobExpr builds the boolean filter scoping an operation to one job's
// frames. Job IDs are hex but quotes are escaped anyway.
func jobExpr(jobID string) string {
	return fmt.Sprintf(`job_id == "%s"`, strings.ReplaceAll(jobID, `"`, `\"`))
}

func (s *MilvusFrameIndex) Replace(ctx context.Context, jobID string, frames []core.Frame) (int, error) {
	usable := make([]core.Frame, 0, len(frames))
	for _, f := range frames {
		if f.Embedding != nil {
			usable = append(usable, f)
		}
	}
	if len(usable) == 0 {
		if s.dim != 0 {
			if err := s.mc.Delete(ctx, s.coll, "", jobExpr(jobID)); err != nil {
				return 0, fmt.Errorf("clear frames for job %s: %w", jobID, err)
			}
		}
		return 0, nil
	}

	dim := len(usable[0].Embedding)
	if err := s.ensureCollection(ctx, dim); err != nil {
		return 0, err
	}
	if err := s.mc.Delete(ctx, s.coll, "", jobExpr(jobID)); err != nil {
		return 0, fmt.Errorf("clear frames for job %s: %w", jobID, err)
	}

	jobIDs := make([]string, 0, len(usable))
	timestamps := make([]int64, 0, len(usable))
	descriptions := make([]string, 0, len(usable))
	vectors := make([][]float32, 0, len(usable))
	for _, f := range usable {
		if len(f.Embedding) != dim {
			return 0, fmt.Errorf("frame at %ds: embedding dimension mismatch: %d vs %d",
				f.TimestampSec, len(f.Embedding), dim)
		}
		jobIDs = append(jobIDs, jobID)
		timestamps = append(timestamps, int64(f.TimestampSec))
		descriptions = append(descriptions, f.Description)
		vectors = append(vectors, f.Embedding)
	}

	_, err := s.mc.Insert(ctx, s.coll, "",
		entity.NewColumnVarChar("job_id", jobIDs),
		entity.NewColumnInt64("timestamp_sec", timestamps),
		entity.NewColumnVarChar("description", descriptions),
		entity.NewColumnFloatVector("vector", dim, vectors),
	)
	if err != nil {
		return 0, fmt.Errorf("insert frames: %w", err)
	}
	return len(vectors), nil
}

func (s *MilvusFrameIndex) Search(ctx context.Context, jobID string, queryVec []float32) (core.SearchResult, error) {
	if s.dim == 0 {
		return core.SearchResult{}, nil
	}
	if len(queryVec) != s.dim {
		return core.SearchResult{}, fmt.Errorf("embedding dimension mismatch: %d vs %d", len(queryVec), s.dim)
	}

	sp, _ := entity.NewIndexHNSWSearchParam(74)
	res, err := s.mc.Search(ctx, s.coll, []string{}, jobExpr(jobID),
		[]string{"timestamp_sec", "description"},
		[]entity.Vector{entity.FloatVector(queryVec)},
		"vector", entity.COSINE, 1, sp)
	if err != nil {
		return core.SearchResult{}, fmt.Errorf("frame search: %w", err)
	}

	for _, r := range res {
		if r.ResultCount == 0 {
			continue
		}
		result := core.SearchResult{Found: true, Score: float64(r.Scores[0])}
		for _, c := range r.Fields {
			switch col := c.(type) {
			case *entity.ColumnInt64:
				if col.Name() == "timestamp_sec" && len(col.Data()) > 0 {
					result.TimestampSec = int(col.Data()[0])
				}
			case *entity.ColumnVarChar:
				if col.Name() == "description" && len(col.Data()) > 0 {
					result.Description = col.Data()[0]
				}
			}
		}
		return result, nil
	}
	return core.SearchResult{}, nil
}

func (s *MilvusFrameIndex) Drop(ctx context.Context, jobID string) error {
	if s.dim == 0 {
		return nil
	}
	if err := s.mc.Delete(ctx, s.coll, "", jobExpr(jobID)); err != nil {
		return fmt.Errorf("drop frames for job %s: %w", jobID, err)
	}
	return nil
}
