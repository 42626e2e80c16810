package services

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// KeyedLock выдаёт взаимоисключающие блокировки по целочисленному
// ключу (ID матча, номер группы). Захват ограничен по времени: если
// блокировку держит конкурирующая операция дольше таймаута,
// возвращается ErrContention и вызывающий может повторить запрос.
type KeyedLock struct {
	mu    sync.Mutex
	slots map[int]chan struct{}
}

func NewKeyedLock() *KeyedLock {
	return &KeyedLock{slots: make(map[int]chan struct{})}
}

func (l *KeyedLock) slot(key int) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[key]
	if !ok {
		s = make(chan struct{}, 1)
		l.slots[key] = s
	}
	return s
}

// Acquire блокирует ключ не дольше timeout. Возвращённый release
// обязателен к вызову ровно один раз.
func (l *KeyedLock) Acquire(ctx context.Context, key int, timeout time.Duration) (release func(), err error) {
	s := l.slot(key)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case s <- struct{}{}:
		return func() { <-s }, nil
	case <-timer.C:
		return nil, fmt.Errorf("%w: key %d", ErrContention, key)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
