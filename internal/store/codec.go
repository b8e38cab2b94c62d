package store

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

func encode(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, eris.Wrap(err, "store: marshal record")
	}
	return b, nil
}

func decode[T any](data []byte) (*T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal record")
	}
	return &v, nil
}

func ensureID(id *string) {
	if *id == "" {
		*id = uuid.New().String()
	}
}

func ensureTime(t *time.Time) {
	if t.IsZero() {
		*t = time.Now().UTC()
	}
}
