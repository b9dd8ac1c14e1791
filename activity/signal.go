package activity

import (
	"fmt"
	"sync"
)

// Kind identifies a class of interaction signal
type Kind string

const (
	PointerMove Kind = "mousemove"
	KeyPress    Kind = "keypress"
)

// Kinds lists the signals a Tracker listens to
var Kinds = []Kind{PointerMove, KeyPress}

// ParseKind maps a signal name to a Kind
func ParseKind(name string) (Kind, error) {
	for _, kind := range Kinds {
		if string(kind) == name {
			return kind, nil
		}
	}
	return "", fmt.Errorf("unknown activity signal %q", name)
}

// Handler is called for each observed signal
type Handler func(kind Kind)

// SignalSource delivers interaction signals to subscribers
type SignalSource interface {
	// Subscribe registers handler for kind and returns a function removing it
	Subscribe(kind Kind, handler Handler) (unsubscribe func())
}

var _ SignalSource = (*Bus)(nil)

// Bus is an in-memory SignalSource
type Bus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[Kind]map[int]Handler
}

// NewBus creates a Bus with no subscribers
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[Kind]map[int]Handler),
	}
}

// Subscribe registers handler for kind
func (b *Bus) Subscribe(kind Kind, handler Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	if _, ok := b.handlers[kind]; !ok {
		b.handlers[kind] = make(map[int]Handler)
	}
	b.handlers[kind][id] = handler

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.handlers[kind], id)
		})
	}
}

// Emit delivers a signal to every handler subscribed to kind and returns how
// many were called.
func (b *Bus) Emit(kind Kind) int {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.handlers[kind]))
	for _, h := range b.handlers[kind] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(kind)
	}
	return len(handlers)
}
