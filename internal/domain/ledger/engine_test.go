package ledger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmoreno/kardex-api/internal/domain"
	"github.com/jmoreno/kardex-api/internal/domain/ledger"
)

func strp(s string) *string { return &s }

// find devuelve la cantidad final de una ubicación en el resultado, o -1 si no fue tocada.
func find(res *ledger.Result, name string) int64 {
	for _, u := range res.Updates {
		if u.Name == name {
			return u.Quantity
		}
	}
	return -1
}

// Traslado interno: debita origen, acredita destino creándolo a 0 primero.
func TestComputeApply_TrasladoCreaDestino(t *testing.T) {
	snap := ledger.Snapshot{"A": 10}
	res, err := ledger.ComputeApply(snap, ledger.Change{From: strp("A"), To: strp("B"), Quantity: 4})
	require.NoError(t, err)

	assert.EqualValues(t, 6, find(res, "A"))
	assert.EqualValues(t, 4, find(res, "B"))
	assert.Equal(t, []string{"B"}, res.Created, "B debe crearse de forma perezosa")
}

// Cantidad insuficiente: rechazo completo, sin efecto parcial y sin crear destino.
func TestComputeApply_StockInsuficiente(t *testing.T) {
	snap := ledger.Snapshot{"A": 3}
	res, err := ledger.ComputeApply(snap, ledger.Change{From: strp("A"), To: strp("B"), Quantity: 5})

	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Nil(t, res)
	assert.EqualValues(t, 3, snap["A"], "el snapshot de entrada no debe mutarse")
}

// Entrada externa: sin origen, el stock aparece en el destino.
func TestComputeApply_EntradaExterna(t *testing.T) {
	res, err := ledger.ComputeApply(ledger.Snapshot{}, ledger.Change{To: strp("C"), Quantity: 5})
	require.NoError(t, err)

	assert.EqualValues(t, 5, find(res, "C"))
	assert.Equal(t, []string{"C"}, res.Created)
}

// Salida externa: sin destino, el stock sale del sistema.
func TestComputeApply_SalidaExterna(t *testing.T) {
	snap := ledger.Snapshot{"A": 10}
	res, err := ledger.ComputeApply(snap, ledger.Change{From: strp("A"), Quantity: 7})
	require.NoError(t, err)

	assert.EqualValues(t, 3, find(res, "A"))
	assert.Empty(t, res.Created)
}

// Origen nombrado pero inexistente: fuente externa implícita, se omite sin error.
func TestComputeApply_OrigenInexistenteSeOmite(t *testing.T) {
	res, err := ledger.ComputeApply(ledger.Snapshot{}, ledger.Change{From: strp("fantasma"), To: strp("B"), Quantity: 2})
	require.NoError(t, err)

	assert.EqualValues(t, -1, find(res, "fantasma"), "la ubicación inexistente no debe tocarse")
	assert.EqualValues(t, 2, find(res, "B"))
}

func TestComputeApply_EntradasInvalidas(t *testing.T) {
	cases := []struct {
		name string
		ch   ledger.Change
	}{
		{"cantidad cero", ledger.Change{From: strp("A"), To: strp("B"), Quantity: 0}},
		{"cantidad negativa", ledger.Change{From: strp("A"), To: strp("B"), Quantity: -3}},
		{"ambos extremos ausentes", ledger.Change{Quantity: 5}},
		{"origen igual a destino", ledger.Change{From: strp("A"), To: strp("A"), Quantity: 5}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ledger.ComputeApply(ledger.Snapshot{"A": 10}, tc.ch)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

// Revertir restaura exactamente las cantidades previas (propiedad de reversibilidad).
func TestComputeReverse_RestauraCantidades(t *testing.T) {
	ch := ledger.Change{From: strp("A"), To: strp("B"), Quantity: 4}
	// Estado tras aplicar ch sobre {A:10}: A=6, B=4.
	res, err := ledger.ComputeReverse(ledger.Snapshot{"A": 6, "B": 4}, ch)
	require.NoError(t, err)

	assert.EqualValues(t, 10, find(res, "A"))
	assert.EqualValues(t, 0, find(res, "B"), "B queda en cero pero no se elimina")
}

// El origen desaparecido se recrea con la cantidad revertida: revertir nunca
// falla por ubicación faltante.
func TestComputeReverse_RecreaOrigenDesaparecido(t *testing.T) {
	ch := ledger.Change{From: strp("A"), To: strp("B"), Quantity: 4}
	res, err := ledger.ComputeReverse(ledger.Snapshot{"B": 4}, ch)
	require.NoError(t, err)

	assert.EqualValues(t, 4, find(res, "A"))
	assert.Equal(t, []string{"A"}, res.Created)
	assert.EqualValues(t, 0, find(res, "B"))
}

// El destino desaparecido se omite: no queda nada que debitar.
func TestComputeReverse_DestinoDesaparecidoSeOmite(t *testing.T) {
	ch := ledger.Change{From: strp("A"), To: strp("B"), Quantity: 4}
	res, err := ledger.ComputeReverse(ledger.Snapshot{"A": 6}, ch)
	require.NoError(t, err)

	assert.EqualValues(t, 10, find(res, "A"))
	assert.EqualValues(t, -1, find(res, "B"))
}

// Revertir una entrada externa ya consumida dejaría el destino negativo: rechazo.
func TestComputeReverse_DestinoQuedariaNegativo(t *testing.T) {
	ch := ledger.Change{To: strp("C"), Quantity: 5}
	_, err := ledger.ComputeReverse(ledger.Snapshot{"C": 2}, ch)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

// Cambio solo de cantidad: la ubicación compartida ve el delta neto, no una
// reversión y reaplicación contra lecturas obsoletas.
func TestComputeAmend_DeltaNetoSobreMismoSnapshot(t *testing.T) {
	before := ledger.Change{From: strp("A"), To: strp("B"), Quantity: 4}
	after := ledger.Change{From: strp("A"), To: strp("B"), Quantity: 6}
	// Estado tras aplicar before sobre {A:10}: A=6, B=4.
	res, err := ledger.ComputeAmend(ledger.Snapshot{"A": 6, "B": 4}, before, after)
	require.NoError(t, err)

	assert.EqualValues(t, 4, find(res, "A"))
	assert.EqualValues(t, 6, find(res, "B"))
	assert.Empty(t, res.Created)
}

// El neto puede ser válido aunque un paso intermedio caería negativo: A=6 no
// alcanza para aplicar 9 sin revertir antes los 4 originales.
func TestComputeAmend_NoRechazaCaidaIntermedia(t *testing.T) {
	before := ledger.Change{From: strp("A"), To: strp("B"), Quantity: 4}
	after := ledger.Change{From: strp("A"), To: strp("B"), Quantity: 9}
	res, err := ledger.ComputeAmend(ledger.Snapshot{"A": 6, "B": 4}, before, after)
	require.NoError(t, err)

	assert.EqualValues(t, 1, find(res, "A"))
	assert.EqualValues(t, 9, find(res, "B"))
}

// Si el neto excede lo disponible, rechazo completo.
func TestComputeAmend_NetoInsuficiente(t *testing.T) {
	before := ledger.Change{From: strp("A"), To: strp("B"), Quantity: 4}
	after := ledger.Change{From: strp("A"), To: strp("B"), Quantity: 11}
	_, err := ledger.ComputeAmend(ledger.Snapshot{"A": 6, "B": 4}, before, after)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

// Cambio de destino: el anterior devuelve la cantidad, el nuevo se crea si hace falta.
func TestComputeAmend_CambioDeDestino(t *testing.T) {
	before := ledger.Change{From: strp("A"), To: strp("B"), Quantity: 4}
	after := ledger.Change{From: strp("A"), To: strp("C"), Quantity: 4}
	res, err := ledger.ComputeAmend(ledger.Snapshot{"A": 6, "B": 4}, before, after)
	require.NoError(t, err)

	assert.EqualValues(t, 6, find(res, "A"), "el origen sin cambios queda igual")
	assert.EqualValues(t, 0, find(res, "B"))
	assert.EqualValues(t, 4, find(res, "C"))
	assert.Equal(t, []string{"C"}, res.Created)
}

// Cambio de origen: el anterior recupera la cantidad, el nuevo la entrega.
func TestComputeAmend_CambioDeOrigen(t *testing.T) {
	before := ledger.Change{From: strp("A"), To: strp("B"), Quantity: 4}
	after := ledger.Change{From: strp("D"), To: strp("B"), Quantity: 4}
	res, err := ledger.ComputeAmend(ledger.Snapshot{"A": 6, "B": 4, "D": 5}, before, after)
	require.NoError(t, err)

	assert.EqualValues(t, 10, find(res, "A"))
	assert.EqualValues(t, 4, find(res, "B"))
	assert.EqualValues(t, 1, find(res, "D"))
}

// Varios campos a la vez: una sola regla uniforme, sin casos especiales por combinación.
func TestComputeAmend_VariosCamposALaVez(t *testing.T) {
	before := ledger.Change{From: strp("A"), To: strp("B"), Quantity: 4}
	after := ledger.Change{From: strp("D"), To: strp("E"), Quantity: 2}
	res, err := ledger.ComputeAmend(ledger.Snapshot{"A": 6, "B": 4, "D": 5}, before, after)
	require.NoError(t, err)

	assert.EqualValues(t, 10, find(res, "A"))
	assert.EqualValues(t, 0, find(res, "B"))
	assert.EqualValues(t, 3, find(res, "D"))
	assert.EqualValues(t, 2, find(res, "E"))
	assert.Equal(t, []string{"E"}, res.Created)
}

// Origen desaparecido referenciado por ambas versiones: se recrea al revertir y
// la nueva cantidad se debita de lo recreado; nunca se inventa inventario negativo.
func TestComputeAmend_OrigenDesaparecidoCompartido(t *testing.T) {
	before := ledger.Change{From: strp("A"), To: strp("B"), Quantity: 4}
	after := ledger.Change{From: strp("A"), To: strp("B"), Quantity: 6}
	_, err := ledger.ComputeAmend(ledger.Snapshot{"B": 4}, before, after)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock, "A recreada en 4 no cubre 6")

	after.Quantity = 3
	res, err := ledger.ComputeAmend(ledger.Snapshot{"B": 4}, before, after)
	require.NoError(t, err)
	assert.EqualValues(t, 1, find(res, "A"))
	assert.EqualValues(t, 3, find(res, "B"))
}

// Propiedad de no negatividad: ninguna actualización producida por el motor es negativa.
func TestEngine_NuncaProduceNegativos(t *testing.T) {
	snaps := []ledger.Snapshot{
		{}, {"A": 0}, {"A": 1}, {"A": 10, "B": 3}, {"B": 7},
	}
	changes := []ledger.Change{
		{From: strp("A"), To: strp("B"), Quantity: 1},
		{From: strp("A"), Quantity: 5},
		{To: strp("B"), Quantity: 2},
		{From: strp("B"), To: strp("A"), Quantity: 4},
	}
	for _, snap := range snaps {
		for _, ch := range changes {
			for _, compute := range []func(ledger.Snapshot, ledger.Change) (*ledger.Result, error){
				ledger.ComputeApply, ledger.ComputeReverse,
			} {
				res, err := compute(snap, ch)
				if err != nil {
					continue
				}
				for _, u := range res.Updates {
					assert.GreaterOrEqual(t, u.Quantity, int64(0))
				}
			}
		}
	}
}
