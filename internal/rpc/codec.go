package rpc

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/chirper/internal/models"
	"google.golang.org/protobuf/types/known/structpb"
)

// Wire field names.
const (
	keyCollection = "collection"
	keyID         = "id"
	keyFields     = "fields"
	keyCreateTime = "createTime"
	keyUpdateTime = "updateTime"
	keyDocuments  = "documents"
	keyFilters    = "filters"
	keyField      = "field"
	keyOp         = "op"
	keyValue      = "value"
	keyOrder      = "order"
	keyDescending = "descending"
	keyLimit      = "limit"
	keyEmail      = "email"
	keyPassword   = "password"
	keyUID        = "uid"
	keyToken      = "token"
	keyStatus     = "status"
)

func documentMap(d *models.Document) map[string]any {
	fields := make(map[string]any, len(d.Fields))
	for k, v := range d.Fields {
		fields[k] = v
	}
	m := map[string]any{
		keyCollection: d.Collection,
		keyID:         d.ID,
		keyFields:     fields,
	}
	if !d.CreateTime.IsZero() {
		m[keyCreateTime] = d.CreateTime.UTC().Format(time.RFC3339Nano)
	}
	if !d.UpdateTime.IsZero() {
		m[keyUpdateTime] = d.UpdateTime.UTC().Format(time.RFC3339Nano)
	}
	return m
}

func documentFromMap(m map[string]any) (*models.Document, error) {
	d := &models.Document{
		Collection: str(m, keyCollection),
		ID:         str(m, keyID),
		Fields:     map[string]any{},
	}
	if f, ok := m[keyFields].(map[string]any); ok {
		d.Fields = f
	}
	var err error
	if d.CreateTime, err = parseTime(str(m, keyCreateTime)); err != nil {
		return nil, err
	}
	if d.UpdateTime, err = parseTime(str(m, keyUpdateTime)); err != nil {
		return nil, err
	}
	return d, nil
}

func EncodeDocument(d *models.Document) (*structpb.Struct, error) {
	return structpb.NewStruct(documentMap(d))
}

func DecodeDocument(s *structpb.Struct) (*models.Document, error) {
	return documentFromMap(s.AsMap())
}

// EncodeDocuments wraps an ordered result set (a snapshot) in one message.
func EncodeDocuments(docs []*models.Document) (*structpb.Struct, error) {
	list := make([]any, 0, len(docs))
	for _, d := range docs {
		list = append(list, documentMap(d))
	}
	return structpb.NewStruct(map[string]any{keyDocuments: list})
}

func DecodeDocuments(s *structpb.Struct) ([]*models.Document, error) {
	raw, _ := s.AsMap()[keyDocuments].([]any)
	docs := make([]*models.Document, 0, len(raw))
	for i, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("document %d: unexpected %T", i, item)
		}
		d, err := documentFromMap(m)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		docs = append(docs, d)
	}
	return docs, nil
}

// EncodeQuery fails for filter values that are not JSON-compatible.
func EncodeQuery(q models.Query) (*structpb.Struct, error) {
	filters := make([]any, 0, len(q.Filters))
	for _, f := range q.Filters {
		filters = append(filters, map[string]any{keyField: f.Field, keyOp: string(f.Op), keyValue: f.Value})
	}
	m := map[string]any{
		keyCollection: q.Collection,
		keyFilters:    filters,
		keyLimit:      q.Limit,
	}
	if q.Order != nil {
		m[keyOrder] = map[string]any{keyField: q.Order.Field, keyDescending: q.Order.Descending}
	}
	return structpb.NewStruct(m)
}

func DecodeQuery(s *structpb.Struct) models.Query {
	m := s.AsMap()
	q := models.Query{Collection: str(m, keyCollection)}
	if limit, ok := m[keyLimit].(float64); ok {
		q.Limit = int(limit)
	}
	raw, _ := m[keyFilters].([]any)
	for _, item := range raw {
		f, ok := item.(map[string]any)
		if !ok {
			continue
		}
		q.Filters = append(q.Filters, models.Filter{Field: str(f, keyField), Op: models.Op(str(f, keyOp)), Value: f[keyValue]})
	}
	if o, ok := m[keyOrder].(map[string]any); ok {
		desc, _ := o[keyDescending].(bool)
		q.Order = &models.Order{Field: str(o, keyField), Descending: desc}
	}
	return q
}

// WriteRequest addresses a document and optionally carries fields.
type WriteRequest struct {
	Collection string
	ID         string
	Fields     map[string]any
}

func EncodeWrite(w WriteRequest) (*structpb.Struct, error) {
	m := map[string]any{keyCollection: w.Collection, keyID: w.ID}
	if w.Fields != nil {
		fields := make(map[string]any, len(w.Fields))
		for k, v := range w.Fields {
			fields[k] = v
		}
		m[keyFields] = fields
	}
	return structpb.NewStruct(m)
}

func DecodeWrite(s *structpb.Struct) WriteRequest {
	m := s.AsMap()
	w := WriteRequest{Collection: str(m, keyCollection), ID: str(m, keyID)}
	if f, ok := m[keyFields].(map[string]any); ok {
		w.Fields = f
	}
	return w
}

func EncodeCredentials(email, password string) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{keyEmail: email, keyPassword: password})
}

func DecodeCredentials(s *structpb.Struct) (email, password string) {
	m := s.AsMap()
	return str(m, keyEmail), str(m, keyPassword)
}

func EncodeIdentity(id *models.Identity) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{keyUID: id.ID, keyEmail: id.Email, keyToken: id.Token})
}

func DecodeIdentity(s *structpb.Struct) *models.Identity {
	m := s.AsMap()
	return &models.Identity{ID: str(m, keyUID), Email: str(m, keyEmail), Token: str(m, keyToken)}
}

func EncodeID(id string) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{keyID: id})
}

func DecodeID(s *structpb.Struct) string {
	return str(s.AsMap(), keyID)
}

func EncodeStatus(status string) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{keyStatus: status})
}

func DecodeStatus(s *structpb.Struct) string {
	return str(s.AsMap(), keyStatus)
}

func str(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad timestamp %q: %w", s, err)
	}
	return t, nil
}
