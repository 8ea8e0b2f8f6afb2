package repository

import (
	"context"

	"hippocampus/config"
	"hippocampus/model"
	"hippocampus/utils"

	"github.com/m-mizutani/goerr/v2"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	grpccodes "google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const qdrantMaxMessageSize = 16 * 1024 * 1024

// Payload fields with a keyword index.
var indexedPayloadFields = []string{
	model.FieldNamespace,
	model.FieldDocID,
	model.FieldSpace,
	model.FieldType,
}

// IsTransientQdrantError reports gRPC failures that may succeed on retry.
func IsTransientQdrantError(err error) bool {
	if err == nil {
		return false
	}

	st, ok := status.FromError(err)
	if !ok {
		return false
	}

	switch st.Code() {
	case grpccodes.Unavailable, grpccodes.DeadlineExceeded, grpccodes.Aborted, grpccodes.ResourceExhausted:
		return true
	default:
		return false
	}
}

// QdrantStore keeps every record in a single collection over gRPC.
type QdrantStore struct {
	client     *qdrant.Client
	collection string
	dimensions uint64
	retrier    *utils.Retrier
}

func NewQdrantStore(cfg config.VectorConfig, retrier *utils.Retrier) (*QdrantStore, error) {
	if !cfg.UseTLS {
		utils.Logger.Warn("Qdrant gRPC is using plaintext, TLS is disabled", zap.String("host", cfg.Host))
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
		GrpcOptions: []grpc.DialOption{
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(qdrantMaxMessageSize),
				grpc.MaxCallSendMsgSize(qdrantMaxMessageSize),
			),
		},
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Qdrant client", goerr.V("host", cfg.Host), goerr.V("port", cfg.Port))
	}

	return &QdrantStore{
		client:     client,
		collection: cfg.Collection,
		dimensions: uint64(cfg.Dimensions),
		retrier:    retrier,
	}, nil
}

// EnsureCollection creates the cosine collection and its payload indexes when missing.
func (s *QdrantStore) EnsureCollection(ctx context.Context) error {
	exists := false
	err := s.retrier.Do(ctx, "collection_info", func(ctx context.Context) error {
		_, err := s.client.GetCollectionInfo(ctx, s.collection)
		if err != nil {
			if st, ok := status.FromError(err); ok && st.Code() == grpccodes.NotFound {
				return nil
			}
			return err
		}
		exists = true
		return nil
	})
	if err != nil {
		return err
	}

	if !exists {
		err := s.retrier.Do(ctx, "create_collection", func(ctx context.Context) error {
			return s.client.CreateCollection(ctx, &qdrant.CreateCollection{
				CollectionName: s.collection,
				VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
					Size:     s.dimensions,
					Distance: qdrant.Distance_Cosine,
				}),
			})
		})
		if err != nil {
			return goerr.Wrap(err, "failed to create collection", goerr.V("collection", s.collection))
		}
		utils.Logger.Info("created vector collection",
			zap.String("collection", s.collection),
			zap.Uint64("dimensions", s.dimensions))
	}

	for _, field := range indexedPayloadFields {
		err := s.retrier.Do(ctx, "create_field_index", func(ctx context.Context) error {
			_, err := s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
				CollectionName: s.collection,
				FieldName:      field,
				FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
			})
			return err
		})
		if err != nil {
			return goerr.Wrap(err, "failed to create payload index", goerr.V("field", field))
		}
	}
	return nil
}

func (s *QdrantStore) Upsert(ctx context.Context, docID string, vector []float32, payload map[string]string) error {
	if uint64(len(vector)) != s.dimensions {
		return goerr.New("vector dimension mismatch",
			goerr.V("expected", s.dimensions),
			goerr.V("actual", len(vector)))
	}

	timer := utils.TrackVectorOperation("upsert")
	defer timer.ObserveDuration()

	point := &qdrant.PointStruct{
		Id:      qdrant.NewIDUUID(PointID(docID)),
		Vectors: qdrant.NewVectors(vector...),
		Payload: toQdrantPayload(payload),
	}

	return s.retrier.Do(ctx, "upsert", func(ctx context.Context) error {
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: s.collection,
			Wait:           qdrant.PtrOf(true),
			Points:         []*qdrant.PointStruct{point},
		})
		return err
	})
}

func (s *QdrantStore) Query(ctx context.Context, vector []float32, filter model.Filter, topK int) ([]VectorMatch, error) {
	timer := utils.TrackVectorOperation("query")
	defer timer.ObserveDuration()

	var points []*qdrant.ScoredPoint
	err := s.retrier.Do(ctx, "query", func(ctx context.Context) error {
		res, err := s.client.Query(ctx, &qdrant.QueryPoints{
			CollectionName: s.collection,
			Query:          qdrant.NewQuery(vector...),
			Filter:         toQdrantFilter(filter),
			Limit:          qdrant.PtrOf(uint64(topK)),
			WithPayload:    qdrant.NewWithPayload(true),
		})
		if err != nil {
			return err
		}
		points = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	matches := make([]VectorMatch, 0, len(points))
	for _, p := range points {
		payload := fromQdrantPayload(p.GetPayload())
		matches = append(matches, VectorMatch{
			DocID:   payload[model.FieldDocID],
			Score:   p.GetScore(),
			Payload: payload,
		})
	}
	return matches, nil
}

func (s *QdrantStore) DeleteByFilter(ctx context.Context, filter model.Filter) error {
	timer := utils.TrackVectorOperation("delete")
	defer timer.ObserveDuration()

	return s.retrier.Do(ctx, "delete", func(ctx context.Context) error {
		_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
			CollectionName: s.collection,
			Wait:           qdrant.PtrOf(true),
			Points: &qdrant.PointsSelector{
				PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
					Filter: toQdrantFilter(filter),
				},
			},
		})
		return err
	})
}

func (s *QdrantStore) Health(ctx context.Context) error {
	if _, err := s.client.HealthCheck(ctx); err != nil {
		return goerr.Wrap(err, "qdrant health check failed")
	}
	return nil
}

func (s *QdrantStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

func toQdrantPayload(payload map[string]string) map[string]*qdrant.Value {
	out := make(map[string]*qdrant.Value, len(payload))
	for k, v := range payload {
		out[k] = &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: v}}
	}
	return out
}

func fromQdrantPayload(payload map[string]*qdrant.Value) map[string]string {
	out := make(map[string]string, len(payload))
	for k, v := range payload {
		if sv, ok := v.GetKind().(*qdrant.Value_StringValue); ok {
			out[k] = sv.StringValue
		}
	}
	return out
}

// toQdrantFilter translates the filter tree. $and maps to Must, $or to
// Should and $ne to a nested MustNot.
func toQdrantFilter(f model.Filter) *qdrant.Filter {
	switch f.Op {
	case model.OpAnd:
		return &qdrant.Filter{Must: toQdrantConditions(f.Children)}
	case model.OpOr:
		return &qdrant.Filter{Should: toQdrantConditions(f.Children)}
	case model.OpNe:
		return &qdrant.Filter{MustNot: []*qdrant.Condition{keywordCondition(f.Field, f.Values[0])}}
	default:
		return &qdrant.Filter{Must: []*qdrant.Condition{toQdrantCondition(f)}}
	}
}

func toQdrantConditions(filters []model.Filter) []*qdrant.Condition {
	conds := make([]*qdrant.Condition, 0, len(filters))
	for _, f := range filters {
		conds = append(conds, toQdrantCondition(f))
	}
	return conds
}

func toQdrantCondition(f model.Filter) *qdrant.Condition {
	switch f.Op {
	case model.OpEq:
		return keywordCondition(f.Field, f.Values[0])
	case model.OpIn:
		return fieldCondition(f.Field, &qdrant.Match{
			MatchValue: &qdrant.Match_Keywords{Keywords: &qdrant.RepeatedStrings{Strings: f.Values}},
		})
	case model.OpNin:
		return fieldCondition(f.Field, &qdrant.Match{
			MatchValue: &qdrant.Match_ExceptKeywords{ExceptKeywords: &qdrant.RepeatedStrings{Strings: f.Values}},
		})
	default:
		return &qdrant.Condition{
			ConditionOneOf: &qdrant.Condition_Filter{Filter: toQdrantFilter(f)},
		}
	}
}

func keywordCondition(field, value string) *qdrant.Condition {
	return fieldCondition(field, &qdrant.Match{
		MatchValue: &qdrant.Match_Keyword{Keyword: value},
	})
}

func fieldCondition(field string, match *qdrant.Match) *qdrant.Condition {
	return &qdrant.Condition{
		ConditionOneOf: &qdrant.Condition_Field{
			Field: &qdrant.FieldCondition{
				Key:   field,
				Match: match,
			},
		},
	}
}
