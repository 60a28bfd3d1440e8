package service

import "sync"

// TontineLocks hands out one mutex per tontine id. Every mutation of a
// tontine's pot, round counter or member set runs under its lock, which
// serializes user actions against reconciliation events arriving for the same
// group. Reads never take it.
type TontineLocks struct {
	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func NewTontineLocks() *TontineLocks {
	return &TontineLocks{locks: make(map[uint]*sync.Mutex)}
}

func (l *TontineLocks) Get(tontineID uint) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[tontineID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[tontineID] = m
	}
	return m
}
