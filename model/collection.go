package model

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/m-mizutani/goerr/v2"
)

type TagCount struct {
	Name        string `bson:"name" json:"name"`
	MemoryCount int    `bson:"memory_count" json:"memory_count"`
}

// TagEntry is one element of a collection summary. Older documents store a
// bare tag name; those decode with Legacy set and a zero count.
type TagEntry struct {
	TagCount `bson:",inline"`
	Legacy   bool `bson:"-"`
}

func (e *TagEntry) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}

	switch t {
	case bsontype.String:
		e.TagCount = TagCount{Name: raw.StringValue()}
		e.Legacy = true
		return nil
	case bsontype.EmbeddedDocument:
		var tc TagCount
		if err := raw.Unmarshal(&tc); err != nil {
			return goerr.Wrap(err, "failed to decode collection entry")
		}
		e.TagCount = tc
		e.Legacy = false
		return nil
	default:
		return goerr.New("unsupported collection entry", goerr.V("bson_type", t.String()))
	}
}

// CollectionSummary is the per-user tag count document.
type CollectionSummary struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	UserID      string             `bson:"userId" json:"userId"`
	Collections []TagEntry         `bson:"collections" json:"collections"`
}

func (s *CollectionSummary) HasLegacy() bool {
	for _, e := range s.Collections {
		if e.Legacy {
			return true
		}
	}
	return false
}

func (s *CollectionSummary) Counts() []TagCount {
	counts := make([]TagCount, 0, len(s.Collections))
	for _, e := range s.Collections {
		counts = append(counts, e.TagCount)
	}
	return counts
}
