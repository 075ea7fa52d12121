package store

import (
	"context"
	"errors"
)

// ErrNotFound indica chave ausente no store
var ErrNotFound = errors.New("store: key not found")

// Store abstrai o mapeamento chave-valor durável usado pelo ledger.
// O contrato segue o subconjunto de operações que o Redis oferece:
// get/set, incremento, listas com prepend e leitura por faixa, remoção
// e enumeração de chaves por padrão glob.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Incr(ctx context.Context, key string) (int64, error)
	LPush(ctx context.Context, key, value string) error
	LRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	Del(ctx context.Context, keys ...string) error
	Keys(ctx context.Context, pattern string) ([]string, error)
}
