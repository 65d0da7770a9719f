package processor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/thisisjab/oafilter/entity"
)

// schemaProperty is the subset of a JSON Schema property that describes a queryable.
type schemaProperty struct {
	Type    string     `json:"type"`
	Format  string     `json:"format"`
	Enum    []any      `json:"enum"`
	Minimum *float64   `json:"minimum"`
	Maximum *float64   `json:"maximum"`
	Ref     string     `json:"$ref"`
	OneOf   []struct{} `json:"oneOf"`
}

type schemaDocument struct {
	Properties map[string]schemaProperty `json:"properties"`
}

// DecodeDocument decodes a queryables document. Two shapes are accepted: an OGC API
// queryables JSON Schema with a `properties` object, and a plain JSON array of queryables.
//
// Schema properties whose type has no filter support (objects, arrays, geometries) are
// skipped and the remaining queryables are sorted by id. A list keeps its order.
func DecodeDocument(data []byte) ([]entity.Queryable, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("queryables document is empty")
	}

	if data[0] == '[' {
		return decodeList(data)
	}

	var doc schemaDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("cannot decode queryables schema: %w", err)
	}
	if doc.Properties == nil {
		return nil, errors.New("queryables schema has no properties")
	}

	res := make([]entity.Queryable, 0, len(doc.Properties))
	for id, prop := range doc.Properties {
		if prop.Ref != "" || len(prop.OneOf) > 0 {
			continue
		}

		t, ok := valueType(prop.Type, prop.Format)
		if !ok {
			continue
		}

		q := entity.Queryable{
			ID:       id,
			Type:     t,
			MinValue: prop.Minimum,
			MaxValue: prop.Maximum,
		}
		for _, v := range prop.Enum {
			q.Values = append(q.Values, fmt.Sprint(v))
		}
		res = append(res, q)
	}

	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })

	return res, nil
}

func decodeList(data []byte) ([]entity.Queryable, error) {
	var res []entity.Queryable
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("cannot decode queryables list: %w", err)
	}

	for i, q := range res {
		if q.ID == "" {
			return nil, fmt.Errorf("queryable #%d has no id", i)
		}
		if !q.Type.Valid() {
			return nil, fmt.Errorf("queryable %q has unsupported type %q", q.ID, q.Type)
		}
	}

	return res, nil
}
