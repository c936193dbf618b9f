// file: repository/token_store.go

package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"go-access-gate/model"
)

// ErrStoreConflict is returned when an optimistic update keeps losing to other writers.
var ErrStoreConflict = errors.New("token store update conflict")

// UpdateFunc mutates the table in place and reports whether it must be saved.
// It may be invoked more than once if the backend retries on conflict.
type UpdateFunc func(table model.TokenTable) (changed bool, err error)

// ITokenStore defines the contract for durable token persistence.
// Every mutation goes through a full load-mutate-save cycle; Update runs that
// cycle atomically with respect to other Update calls on the same store.
type ITokenStore interface {
	Load(ctx context.Context) (model.TokenTable, error)
	Save(ctx context.Context, table model.TokenTable) error
	Update(ctx context.Context, fn UpdateFunc) error
}

func decodeTable(data []byte) (model.TokenTable, error) {
	table := model.TokenTable{}
	if len(data) == 0 {
		return table, nil
	}
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("decode token table: %w", err)
	}
	if table == nil {
		table = model.TokenTable{}
	}
	return table, nil
}

func encodeTable(table model.TokenTable) ([]byte, error) {
	if table == nil {
		table = model.TokenTable{}
	}
	data, err := json.MarshalIndent(table, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode token table: %w", err)
	}
	return data, nil
}
