// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package sqlnorm

import (
	"fmt"
	"sync"
)

// handlerRegistry holds the generated handlers registered by generated code,
// indexed by handler key. The values are Handler[P, R] for the P and R
// encoded in the key.
//
// The mutex must be locked when accessing handlers.
type handlerRegistry struct {
	handlers map[string]any
	mutex    sync.RWMutex
}

var once sync.Once
var singleRegistry *handlerRegistry

// registry returns the single instance of the handler registry.
func registry() *handlerRegistry {
	once.Do(func() {
		singleRegistry = &handlerRegistry{
			handlers: map[string]any{},
		}
	})
	return singleRegistry
}

// Register makes a generated handler available to [Prepare] under key, as
// returned by [HandlerKey]. It is called from the init function of generated
// files and panics if key is already registered.
func Register[P, R any](key string, h Handler[P, R]) {
	reg := registry()
	reg.mutex.Lock()
	defer reg.mutex.Unlock()
	if _, ok := reg.handlers[key]; ok {
		panic(fmt.Sprintf("sqlnorm: handler %q registered twice", key))
	}
	reg.handlers[key] = h
}

// lookupHandler returns the handler registered under key, if any. It fails
// when the registered handler was built for different record types.
func lookupHandler[P, R any](key string) (Handler[P, R], bool, error) {
	reg := registry()
	reg.mutex.RLock()
	v, ok := reg.handlers[key]
	reg.mutex.RUnlock()
	if !ok {
		return nil, false, nil
	}
	h, ok := v.(Handler[P, R])
	if !ok {
		return nil, false, fmt.Errorf("%w: key %q holds %T", ErrHandlerMismatch, key, v)
	}
	return h, true, nil
}

// unregister removes the handler registered under key.
func unregister(key string) {
	reg := registry()
	reg.mutex.Lock()
	delete(reg.handlers, key)
	reg.mutex.Unlock()
}
