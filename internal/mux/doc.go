// Package mux implements the input multiplexer: a loop that reads raw units
// from a terminal backend, classifies each one and dispatches it to the
// listeners of an event.Registry.
//
// Every unit is dispatched on exactly one of the key or mouse channels.
// Character-class units (printable characters plus configured exceptions)
// additionally go to the char channel and are yielded by the Stream
// returned from Start, so a caller can assemble lines from them:
//
//	m := mux.New(term, reg)
//	stream, err := m.Start(mux.DefaultOptions())
//	for u := range stream.All() {
//		line = append(line, u.Rune())
//	}
//	if err := stream.Err(); err != nil {
//		// a listener or the terminal failed
//	}
//
// Stop is cooperative. A unit the backend has already returned is still
// dispatched, and yielded if character-class, before the stream ends.
package mux
