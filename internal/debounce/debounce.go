// Package debounce entrega el último valor recibido después de un período sin cambios.
package debounce

import (
	"sync"
	"time"
)

// Debouncer agrupa ráfagas de Trigger en una sola llamada a fn con el último
// valor. Hay a lo sumo un timer armado y a lo sumo una llamada a fn en curso.
type Debouncer[T any] struct {
	wait time.Duration
	fn   func(T)

	mu      sync.Mutex
	timer   *time.Timer
	value   T
	pending bool
	seq     uint64

	callMu sync.Mutex
}

func New[T any](wait time.Duration, fn func(T)) *Debouncer[T] {
	return &Debouncer[T]{wait: wait, fn: fn}
}

// Trigger guarda v y reinicia la ventana. No llama a fn.
func (d *Debouncer[T]) Trigger(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.value = v
	d.pending = true
	d.seq++
	seq := d.seq
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.wait, func() { d.fire(seq) })
}

// fire descarta disparos de timers reemplazados. Un Trigger que llega
// mientras fire corre arma su propio timer, así que nunca se pierde.
func (d *Debouncer[T]) fire(seq uint64) {
	d.callMu.Lock()
	defer d.callMu.Unlock()

	d.mu.Lock()
	if seq != d.seq || !d.pending {
		d.mu.Unlock()
		return
	}
	v := d.take()
	d.mu.Unlock()

	d.fn(v)
}

// Flush entrega de inmediato el valor pendiente, si lo hay.
func (d *Debouncer[T]) Flush() {
	d.callMu.Lock()
	defer d.callMu.Unlock()

	d.mu.Lock()
	if !d.pending {
		d.mu.Unlock()
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	v := d.take()
	d.mu.Unlock()

	d.fn(v)
}

// Stop descarta el valor pendiente sin entregarlo.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++
	d.pending = false
	var zero T
	d.value = zero
}

func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// take debe llamarse con mu tomado.
func (d *Debouncer[T]) take() T {
	v := d.value
	var zero T
	d.value = zero
	d.pending = false
	d.timer = nil
	return v
}
