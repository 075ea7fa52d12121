package ledger

import "sync"

// keyMutex serializa mutações por usuário dentro do processo.
// O store externo não oferece transação multi-chave, então o
// read-modify-write de cada conta precisa ser exclusivo para
// evitar lost updates entre requisições concorrentes.
type keyMutex struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}

func (k *keyMutex) Lock(key string) func() {
	k.mu.Lock()
	if k.m == nil {
		k.m = make(map[string]*sync.Mutex)
	}
	l, ok := k.m[key]
	if !ok {
		l = &sync.Mutex{}
		k.m[key] = l
	}
	k.mu.Unlock()

	l.Lock()
	return l.Unlock
}
