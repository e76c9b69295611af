package domain

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Sections and statement types are persisted with their short codes so Mongo documents
// match the JSON output.

func (s Section) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(s.String())
}

func (s *Section) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	code, ok := bson.RawValue{Type: t, Value: data}.StringValueOK()
	if !ok {
		return fmt.Errorf("section: expected string, got %s", t)
	}
	return s.UnmarshalJSON([]byte(`"` + code + `"`))
}

func (t StatementType) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(t.String())
}

func (t *StatementType) UnmarshalBSONValue(bt bsontype.Type, data []byte) error {
	code, ok := bson.RawValue{Type: bt, Value: data}.StringValueOK()
	if !ok {
		return fmt.Errorf("statement type: expected string, got %s", bt)
	}
	return t.UnmarshalJSON([]byte(`"` + code + `"`))
}
