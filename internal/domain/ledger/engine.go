// Package ledger implementa el motor de consistencia de cantidades (servicio de
// dominio, puro). Dado un snapshot de cantidades por ubicación y un cambio
// descrito, calcula las actualizaciones necesarias para aplicar, revertir o
// corregir un movimiento — sin tocar almacenamiento y sin permitir jamás una
// cantidad negativa en una ubicación existente.
package ledger

import (
	"github.com/jmoreno/kardex-api/internal/domain"
	"github.com/jmoreno/kardex-api/internal/domain/entity"
)

// Snapshot cantidades actuales por nombre de ubicación. Solo necesita contener
// las ubicaciones que el cambio referencia; una clave ausente significa que la
// ubicación no existe en el store.
type Snapshot map[string]int64

// Change describe el efecto de un movimiento sobre las ubicaciones.
// Exactamente uno de From/To puede ser nil: entrada externa (From nil) o salida
// externa (To nil). Ambos nil es inválido.
type Change struct {
	From     *string
	To       *string
	Quantity int64
}

// ChangeOf extrae el Change de un movimiento.
func ChangeOf(m *entity.Movement) Change {
	return Change{From: m.FromLocation, To: m.ToLocation, Quantity: m.Quantity}
}

// Update cantidad final de una ubicación tras el cambio.
type Update struct {
	Name     string
	Quantity int64
}

// Result actualizaciones a persistir más las ubicaciones a crear (a cantidad 0,
// antes de aplicar su Update). La creación perezosa es un paso declarado, no un
// efecto secundario.
type Result struct {
	Updates []Update
	Created []string
}

// working acumula el estado intermedio de un cálculo: valores sobre un único
// snapshot consistente, ubicaciones creadas durante el cálculo y el orden en que
// se tocaron.
type working struct {
	values  map[string]int64
	created map[string]bool
	exists  map[string]bool
	touched []string
}

func newWorking(snap Snapshot) *working {
	w := &working{
		values:  make(map[string]int64, len(snap)),
		created: make(map[string]bool),
		exists:  make(map[string]bool, len(snap)),
	}
	for name, qty := range snap {
		w.values[name] = qty
		w.exists[name] = true
	}
	return w
}

func (w *working) touch(name string) {
	for _, t := range w.touched {
		if t == name {
			return
		}
	}
	w.touched = append(w.touched, name)
}

// ensure garantiza que la ubicación exista en el estado de trabajo, creándola a 0.
func (w *working) ensure(name string) {
	if !w.exists[name] {
		w.values[name] = 0
		w.exists[name] = true
		w.created[name] = true
	}
}

// apply debita el origen y acredita el destino. Un origen nombrado pero
// inexistente se trata como fuente externa y se omite: no es error, pero el
// motor nunca inventa inventario negativo en ubicaciones existentes.
func (w *working) apply(ch Change) {
	if ch.From != nil {
		name := *ch.From
		if w.exists[name] {
			w.values[name] -= ch.Quantity
			w.touch(name)
		}
	}
	if ch.To != nil {
		name := *ch.To
		w.ensure(name)
		w.values[name] += ch.Quantity
		w.touch(name)
	}
}

// reverse es el inverso exacto de apply. Un origen desaparecido se recrea con la
// cantidad revertida (revertir nunca falla por ubicación faltante); un destino
// desaparecido se omite (no queda nada que debitar).
func (w *working) reverse(ch Change) {
	if ch.From != nil {
		name := *ch.From
		w.ensure(name)
		w.values[name] += ch.Quantity
		w.touch(name)
	}
	if ch.To != nil {
		name := *ch.To
		if w.exists[name] {
			w.values[name] -= ch.Quantity
			w.touch(name)
		}
	}
}

// result valida el estado final y lo empaqueta. La validación es sobre los
// valores netos: un resultado se rechaza completo si cualquier ubicación tocada
// quedara negativa (sin efecto parcial).
func (w *working) result() (*Result, error) {
	res := &Result{}
	for _, name := range w.touched {
		if w.values[name] < 0 {
			return nil, domain.ErrInsufficientStock
		}
		res.Updates = append(res.Updates, Update{Name: name, Quantity: w.values[name]})
		if w.created[name] {
			res.Created = append(res.Created, name)
		}
	}
	return res, nil
}

func validate(ch Change) error {
	if ch.Quantity <= 0 {
		return domain.ErrInvalidInput
	}
	if ch.From == nil && ch.To == nil {
		return domain.ErrInvalidInput
	}
	if ch.From != nil && ch.To != nil && *ch.From == *ch.To {
		return domain.ErrInvalidInput
	}
	return nil
}

// ComputeApply calcula las actualizaciones para aplicar un movimiento nuevo:
// debita From (si existe) y acredita To (creándola a 0 si no existe).
func ComputeApply(snap Snapshot, ch Change) (*Result, error) {
	if err := validate(ch); err != nil {
		return nil, err
	}
	w := newWorking(snap)
	w.apply(ch)
	return w.result()
}

// ComputeReverse calcula las actualizaciones para revertir el efecto neto de un
// movimiento antes de eliminarlo.
func ComputeReverse(snap Snapshot, ch Change) (*Result, error) {
	if err := validate(ch); err != nil {
		return nil, err
	}
	w := newWorking(snap)
	w.reverse(ch)
	return w.result()
}

// ComputeAmend calcula la corrección de un movimiento: reverse(old) compuesto
// con apply(new) sobre un único snapshot consistente. Una ubicación referenciada
// por ambos ve el delta neto, no dos escrituras independientes que podrían caer
// negativas de forma espuria. Cubre de manera uniforme cualquier combinación de
// campos cambiados.
func ComputeAmend(snap Snapshot, before, after Change) (*Result, error) {
	if err := validate(before); err != nil {
		return nil, err
	}
	if err := validate(after); err != nil {
		return nil, err
	}
	w := newWorking(snap)
	w.reverse(before)
	w.apply(after)
	return w.result()
}
