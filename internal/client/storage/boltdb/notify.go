package boltdb

import (
	"github.com/iudanet/authgate/internal/client/storage"
)

// Watch registers fn to be called after every committed change of the store.
// Callbacks run synchronously on the goroutine that made the change, outside of
// any storage lock, so they may call back into the storage.
func (s *Storage) Watch(fn func(storage.ChangeEvent)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.watchers == nil {
		// storage закрыт, подписка ничего не делает
		return func() {}
	}

	id := s.nextID
	s.nextID++
	s.watchers[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.watchers, id)
	}
}

// notify рассылает событие всем подписчикам
func (s *Storage) notify(ev storage.ChangeEvent) {
	s.mu.RLock()
	fns := make([]func(storage.ChangeEvent), 0, len(s.watchers))
	for _, fn := range s.watchers {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}
