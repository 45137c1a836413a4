package event

import "reflect"

// listenerID identifies a listener for duplicate detection and removal.
// Functions are keyed by code pointer since func values are not comparable.
type listenerID struct {
	fn  uintptr
	obj Listener
}

// identify returns the identity of l, or false if l cannot be registered:
// a nil listener (including a nil pointer held in the interface), a nil
// ListenerFunc, or a non-comparable implementation.
func identify(l Listener) (listenerID, bool) {
	if l == nil {
		return listenerID{}, false
	}
	if fn, ok := l.(ListenerFunc); ok {
		if fn == nil {
			return listenerID{}, false
		}
		return listenerID{fn: reflect.ValueOf(fn).Pointer()}, true
	}
	if !reflect.TypeOf(l).Comparable() {
		return listenerID{}, false
	}
	switch v := reflect.ValueOf(l); v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Func, reflect.Slice, reflect.Interface:
		if v.IsNil() {
			return listenerID{}, false
		}
	}
	return listenerID{obj: l}, true
}
