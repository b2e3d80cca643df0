package auth

import "sync"

// observers est un registre de callbacks ; la valeur zéro est prête à l'emploi
type observers[T any] struct {
	mu   sync.Mutex
	fns  map[int]func(T)
	next int
}

// add enregistre fn et retourne sa fonction de désinscription (idempotente)
func (o *observers[T]) add(fn func(T)) func() {
	o.mu.Lock()
	if o.fns == nil {
		o.fns = make(map[int]func(T))
	}
	id := o.next
	o.next++
	o.fns[id] = fn
	o.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			o.mu.Lock()
			delete(o.fns, id)
			o.mu.Unlock()
		})
	}
}

// emit appelle les callbacks hors verrou
func (o *observers[T]) emit(v T) {
	o.mu.Lock()
	fns := make([]func(T), 0, len(o.fns))
	for _, fn := range o.fns {
		fns = append(fns, fn)
	}
	o.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

func (o *observers[T]) reset() {
	o.mu.Lock()
	o.fns = nil
	o.mu.Unlock()
}

func (o *observers[T]) len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.fns)
}
