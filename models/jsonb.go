package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONBMap is a custom type for PostgreSQL JSONB columns that maps to map[string]interface{}
type JSONBMap map[string]interface{}

// Value implements driver.Valuer interface
func (j JSONBMap) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner interface
func (j *JSONBMap) Scan(value interface{}) error {
	raw, err := jsonBytes(value)
	if err != nil {
		return err
	}
	result := make(JSONBMap)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &result); err != nil {
			return err
		}
	}
	*j = result
	return nil
}

// FeedbackLog is the JSONB array held in users.feedback
type FeedbackLog []FeedbackEntry

// Value implements driver.Valuer interface
func (f FeedbackLog) Value() (driver.Value, error) {
	if f == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(f)
}

// Scan implements sql.Scanner interface. A legacy single-object value becomes a one-entry log.
func (f *FeedbackLog) Scan(value interface{}) error {
	raw, err := jsonBytes(value)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		*f = FeedbackLog{}
		return nil
	}
	if raw[0] == '{' {
		var entry FeedbackEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return err
		}
		*f = FeedbackLog{entry}
		return nil
	}
	var entries []FeedbackEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return err
	}
	*f = entries
	return nil
}

func jsonBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported JSONB source type %T", value)
	}
}
