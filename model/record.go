package model

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Kind string

const (
	KindBookmark Kind = "Bookmark"
	KindNote     Kind = "Note"
)

// Metadata field names shared by the vector payload and the database row.
const (
	FieldDocID     = "doc_id"
	FieldUserID    = "user_id"
	FieldNamespace = "namespace"
	FieldTitle     = "title"
	FieldNote      = "note"
	FieldSourceURL = "source_url"
	FieldSiteName  = "site_name"
	FieldType      = "type"
	FieldDate      = "date"
	FieldSpace     = "space"
)

// Record is a bookmark or a note. The same fields are stored as the vector
// payload and as the database row; Note keeps the space marker as typed.
type Record struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	DocID     string             `bson:"doc_id" json:"doc_id"`
	UserID    string             `bson:"user_id" json:"user_id"`
	Namespace string             `bson:"namespace" json:"-"`
	Type      Kind               `bson:"type" json:"type"`
	Title     string             `bson:"title" json:"title"`
	Note      string             `bson:"note" json:"note"`
	SourceURL string             `bson:"source_url,omitempty" json:"source_url,omitempty"`
	SiteName  string             `bson:"site_name,omitempty" json:"site_name,omitempty"`
	Date      string             `bson:"date" json:"date"`
	Space     string             `bson:"space" json:"space"`
	UpdatedAt string             `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// Metadata flattens the record into the vector payload.
func (r *Record) Metadata() map[string]string {
	md := map[string]string{
		FieldDocID:     r.DocID,
		FieldUserID:    r.UserID,
		FieldNamespace: r.Namespace,
		FieldTitle:     r.Title,
		FieldNote:      r.Note,
		FieldType:      string(r.Type),
		FieldDate:      r.Date,
		FieldSpace:     r.Space,
	}
	if r.Type == KindBookmark {
		md[FieldSourceURL] = r.SourceURL
		md[FieldSiteName] = r.SiteName
	}
	return md
}

// RecordFromMetadata rebuilds a record from a vector payload.
func RecordFromMetadata(md map[string]string) Record {
	return Record{
		DocID:     md[FieldDocID],
		UserID:    md[FieldUserID],
		Namespace: md[FieldNamespace],
		Type:      Kind(md[FieldType]),
		Title:     md[FieldTitle],
		Note:      md[FieldNote],
		SourceURL: md[FieldSourceURL],
		SiteName:  md[FieldSiteName],
		Date:      md[FieldDate],
		Space:     md[FieldSpace],
	}
}
