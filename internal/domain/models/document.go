package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// Fields is the schemaless payload of a document. The gateway never
// validates its shape; a partial Fields merged into a stored document
// overwrites only the keys it carries.
type Fields map[string]any

// Value implements driver.Valuer so Fields serialize to jsonb.
func (f Fields) Value() (driver.Value, error) {
	if f == nil {
		return nil, nil
	}
	return json.Marshal(f)
}

func (f *Fields) Scan(src any) error {
	if src == nil {
		*f = nil
		return nil
	}

	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, f)
	case string:
		return json.Unmarshal([]byte(v), f)
	}

	return json.Unmarshal([]byte(driverString(src)), f)
}

func driverString(src any) string {
	b, _ := json.Marshal(src)
	return string(b)
}

// Document is one record of a collection. IDs are opaque strings assigned
// by the gateway on creation.
type Document struct {
	ID         string     `db:"id"`
	Collection Collection `db:"collection"`
	Data       Fields     `db:"data"`
	CreatedAt  time.Time  `db:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at"`
}

// MarshalJSON flattens the payload next to the id, the shape the admin
// console and the public site render directly.
func (d Document) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.Data)+1)
	for k, v := range d.Data {
		out[k] = v
	}
	out["id"] = d.ID
	return json.Marshal(out)
}

// Decode unmarshals the flattened document into a typed entity.
func (d Document) Decode(dst any) error {
	raw, err := d.MarshalJSON()
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}
