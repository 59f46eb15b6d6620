package ledger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmoreno/kardex-api/internal/application/ledger"
	"github.com/jmoreno/kardex-api/internal/domain"
	"github.com/jmoreno/kardex-api/internal/domain/entity"
	"github.com/jmoreno/kardex-api/internal/domain/repository"
	"github.com/jmoreno/kardex-api/internal/infrastructure/memory"
)

func strp(s string) *string { return &s }

// newUseCase arma el caso de uso sobre un store en memoria con un producto
// de catálogo ya registrado (id 1).
func newUseCase(t *testing.T) (*ledger.LedgerUseCase, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	require.NoError(t, store.Products().Create(&entity.Product{Name: "Widget"}))
	uc := ledger.NewLedgerUseCase(store, store.Movements(), store.Locations(), store.Products(), ledger.RetryConfig{MaxAttempts: 3})
	return uc, store
}

func quantityOf(t *testing.T, store *memory.Store, name string) int64 {
	t.Helper()
	loc, err := store.Locations().GetByName(name)
	require.NoError(t, err)
	require.NotNil(t, loc, "ubicación %s no existe", name)
	return loc.Quantity
}

func TestCreate_EntradaExternaCreaUbicacion(t *testing.T) {
	uc, store := newUseCase(t)
	ctx := context.Background()

	mov, err := uc.Create(ctx, ledger.MovementInput{ToLocation: strp("Bodega"), ProductID: 1, Quantity: 10})
	require.NoError(t, err)
	require.NotNil(t, mov)
	assert.NotZero(t, mov.ID)
	assert.NotEmpty(t, mov.Reference)
	assert.Equal(t, int64(10), quantityOf(t, store, "Bodega"))
}

func TestCreate_TrasladoDebitaYAcredita(t *testing.T) {
	uc, store := newUseCase(t)
	ctx := context.Background()

	_, err := uc.Create(ctx, ledger.MovementInput{ToLocation: strp("Bodega"), ProductID: 1, Quantity: 10})
	require.NoError(t, err)
	_, err = uc.Create(ctx, ledger.MovementInput{FromLocation: strp("Bodega"), ToLocation: strp("Tienda"), ProductID: 1, Quantity: 4})
	require.NoError(t, err)

	assert.Equal(t, int64(6), quantityOf(t, store, "Bodega"))
	assert.Equal(t, int64(4), quantityOf(t, store, "Tienda"))
}

func TestCreate_StockInsuficienteNoDejaRastro(t *testing.T) {
	uc, store := newUseCase(t)
	ctx := context.Background()

	_, err := uc.Create(ctx, ledger.MovementInput{ToLocation: strp("Bodega"), ProductID: 1, Quantity: 3})
	require.NoError(t, err)

	_, err = uc.Create(ctx, ledger.MovementInput{FromLocation: strp("Bodega"), ToLocation: strp("Tienda"), ProductID: 1, Quantity: 5})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	// Rechazo atómico: ni débito parcial ni ubicación destino creada.
	assert.Equal(t, int64(3), quantityOf(t, store, "Bodega"))
	tienda, err := store.Locations().GetByName("Tienda")
	require.NoError(t, err)
	assert.Nil(t, tienda)
	movs, err := store.Movements().List(10, 0)
	require.NoError(t, err)
	assert.Len(t, movs, 1)
}

func TestCreate_OrigenInexistenteEsFuenteExterna(t *testing.T) {
	uc, store := newUseCase(t)
	ctx := context.Background()

	// Origen jamás registrado: se trata como proveedor externo, sin débito.
	_, err := uc.Create(ctx, ledger.MovementInput{FromLocation: strp("Proveedor"), ToLocation: strp("Bodega"), ProductID: 1, Quantity: 7})
	require.NoError(t, err)

	assert.Equal(t, int64(7), quantityOf(t, store, "Bodega"))
	prov, err := store.Locations().GetByName("Proveedor")
	require.NoError(t, err)
	assert.Nil(t, prov)
}

func TestCreate_EntradasInvalidas(t *testing.T) {
	uc, _ := newUseCase(t)
	ctx := context.Background()

	cases := map[string]ledger.MovementInput{
		"cantidad cero":        {ToLocation: strp("Bodega"), ProductID: 1, Quantity: 0},
		"cantidad negativa":    {ToLocation: strp("Bodega"), ProductID: 1, Quantity: -2},
		"sin extremos":         {ProductID: 1, Quantity: 5},
		"extremos iguales":     {FromLocation: strp("Bodega"), ToLocation: strp("Bodega"), ProductID: 1, Quantity: 5},
		"producto inexistente": {ToLocation: strp("Bodega"), ProductID: 99, Quantity: 5},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := uc.Create(ctx, in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestDelete_RestauraCantidadesPrevias(t *testing.T) {
	uc, store := newUseCase(t)
	ctx := context.Background()

	_, err := uc.Create(ctx, ledger.MovementInput{ToLocation: strp("Bodega"), ProductID: 1, Quantity: 10})
	require.NoError(t, err)
	mov, err := uc.Create(ctx, ledger.MovementInput{FromLocation: strp("Bodega"), ToLocation: strp("Tienda"), ProductID: 1, Quantity: 4})
	require.NoError(t, err)

	require.NoError(t, uc.Delete(ctx, mov.ID))

	assert.Equal(t, int64(10), quantityOf(t, store, "Bodega"))
	assert.Equal(t, int64(0), quantityOf(t, store, "Tienda"))
	_, err = uc.GetMovement(ctx, mov.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDelete_RecreaOrigenEliminado(t *testing.T) {
	uc, store := newUseCase(t)
	ctx := context.Background()

	_, err := uc.Create(ctx, ledger.MovementInput{ToLocation: strp("Bodega"), ProductID: 1, Quantity: 5})
	require.NoError(t, err)
	mov, err := uc.Create(ctx, ledger.MovementInput{FromLocation: strp("Bodega"), ToLocation: strp("Tienda"), ProductID: 1, Quantity: 5})
	require.NoError(t, err)

	// Un colaborador externo elimina la fila del origen (queda en cero).
	require.NoError(t, store.Locations().Delete("Bodega"))

	require.NoError(t, uc.Delete(ctx, mov.ID))
	assert.Equal(t, int64(5), quantityOf(t, store, "Bodega"))
	assert.Equal(t, int64(0), quantityOf(t, store, "Tienda"))
}

func TestDelete_RechazaSiDestinoQuedaNegativo(t *testing.T) {
	uc, store := newUseCase(t)
	ctx := context.Background()

	mov, err := uc.Create(ctx, ledger.MovementInput{ToLocation: strp("Bodega"), ProductID: 1, Quantity: 10})
	require.NoError(t, err)
	// Otro movimiento vació el destino.
	_, err = uc.Create(ctx, ledger.MovementInput{FromLocation: strp("Bodega"), ToLocation: strp("Tienda"), ProductID: 1, Quantity: 8})
	require.NoError(t, err)

	err = uc.Delete(ctx, mov.ID)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	// El movimiento y las cantidades quedan intactos.
	kept, err := uc.GetMovement(ctx, mov.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), kept.Quantity)
	assert.Equal(t, int64(2), quantityOf(t, store, "Bodega"))
}

func TestDelete_MovimientoInexistente(t *testing.T) {
	uc, _ := newUseCase(t)
	err := uc.Delete(context.Background(), 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAmend_AjustaSoloLaCantidad(t *testing.T) {
	uc, store := newUseCase(t)
	ctx := context.Background()

	_, err := uc.Create(ctx, ledger.MovementInput{ToLocation: strp("Bodega"), ProductID: 1, Quantity: 10})
	require.NoError(t, err)
	mov, err := uc.Create(ctx, ledger.MovementInput{FromLocation: strp("Bodega"), ToLocation: strp("Tienda"), ProductID: 1, Quantity: 4})
	require.NoError(t, err)

	amended, err := uc.Amend(ctx, mov.ID, ledger.MovementInput{FromLocation: strp("Bodega"), ToLocation: strp("Tienda"), ProductID: 1, Quantity: 6})
	require.NoError(t, err)

	assert.Equal(t, mov.ID, amended.ID)
	assert.Equal(t, mov.Reference, amended.Reference)
	assert.Equal(t, mov.Timestamp, amended.Timestamp)
	assert.Equal(t, int64(6), amended.Quantity)
	assert.Equal(t, int64(4), quantityOf(t, store, "Bodega"))
	assert.Equal(t, int64(6), quantityOf(t, store, "Tienda"))
}

func TestAmend_CambioDeDestino(t *testing.T) {
	uc, store := newUseCase(t)
	ctx := context.Background()

	_, err := uc.Create(ctx, ledger.MovementInput{ToLocation: strp("Bodega"), ProductID: 1, Quantity: 10})
	require.NoError(t, err)
	mov, err := uc.Create(ctx, ledger.MovementInput{FromLocation: strp("Bodega"), ToLocation: strp("Tienda"), ProductID: 1, Quantity: 4})
	require.NoError(t, err)

	_, err = uc.Amend(ctx, mov.ID, ledger.MovementInput{FromLocation: strp("Bodega"), ToLocation: strp("Vitrina"), ProductID: 1, Quantity: 4})
	require.NoError(t, err)

	assert.Equal(t, int64(6), quantityOf(t, store, "Bodega"))
	assert.Equal(t, int64(0), quantityOf(t, store, "Tienda"))
	assert.Equal(t, int64(4), quantityOf(t, store, "Vitrina"))
}

func TestAmend_EquivaleAEliminarYCrear(t *testing.T) {
	// Misma historia por dos caminos: amend directo contra delete+create.
	build := func(t *testing.T) (*ledger.LedgerUseCase, *memory.Store, *entity.Movement) {
		uc, store := newUseCase(t)
		ctx := context.Background()
		_, err := uc.Create(ctx, ledger.MovementInput{ToLocation: strp("Bodega"), ProductID: 1, Quantity: 10})
		require.NoError(t, err)
		mov, err := uc.Create(ctx, ledger.MovementInput{FromLocation: strp("Bodega"), ToLocation: strp("Tienda"), ProductID: 1, Quantity: 4})
		require.NoError(t, err)
		return uc, store, mov
	}
	after := ledger.MovementInput{FromLocation: strp("Bodega"), ToLocation: strp("Vitrina"), ProductID: 1, Quantity: 3}

	ucA, storeA, movA := build(t)
	_, err := ucA.Amend(context.Background(), movA.ID, after)
	require.NoError(t, err)

	ucB, storeB, movB := build(t)
	require.NoError(t, ucB.Delete(context.Background(), movB.ID))
	_, err = ucB.Create(context.Background(), after)
	require.NoError(t, err)

	for _, name := range []string{"Bodega", "Tienda", "Vitrina"} {
		a, errA := storeA.Locations().GetByName(name)
		b, errB := storeB.Locations().GetByName(name)
		require.NoError(t, errA)
		require.NoError(t, errB)
		if a == nil || b == nil {
			assert.Equal(t, a == nil, b == nil, name)
			continue
		}
		assert.Equal(t, a.Quantity, b.Quantity, name)
	}
}

func TestAmend_RechazoNetoDejaTodoIntacto(t *testing.T) {
	uc, store := newUseCase(t)
	ctx := context.Background()

	_, err := uc.Create(ctx, ledger.MovementInput{ToLocation: strp("Bodega"), ProductID: 1, Quantity: 5})
	require.NoError(t, err)
	mov, err := uc.Create(ctx, ledger.MovementInput{FromLocation: strp("Bodega"), ToLocation: strp("Tienda"), ProductID: 1, Quantity: 2})
	require.NoError(t, err)

	// Subir la cantidad por encima del stock disponible debe fallar completo.
	_, err = uc.Amend(ctx, mov.ID, ledger.MovementInput{FromLocation: strp("Bodega"), ToLocation: strp("Tienda"), ProductID: 1, Quantity: 9})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.Equal(t, int64(3), quantityOf(t, store, "Bodega"))
	assert.Equal(t, int64(2), quantityOf(t, store, "Tienda"))
	kept, err := uc.GetMovement(ctx, mov.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), kept.Quantity)
}

func TestAmend_MovimientoInexistente(t *testing.T) {
	uc, _ := newUseCase(t)
	_, err := uc.Amend(context.Background(), 42, ledger.MovementInput{ToLocation: strp("Bodega"), ProductID: 1, Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetLocation_NoExiste(t *testing.T) {
	uc, _ := newUseCase(t)
	_, err := uc.GetLocation(context.Background(), "Fantasma")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConciliacion_SumaDeMovimientosIgualaCantidad(t *testing.T) {
	uc, store := newUseCase(t)
	ctx := context.Background()

	steps := []ledger.MovementInput{
		{ToLocation: strp("Bodega"), ProductID: 1, Quantity: 20},
		{FromLocation: strp("Bodega"), ToLocation: strp("Tienda"), ProductID: 1, Quantity: 8},
		{FromLocation: strp("Tienda"), ProductID: 1, Quantity: 3},
		{FromLocation: strp("Bodega"), ToLocation: strp("Vitrina"), ProductID: 1, Quantity: 2},
	}
	for _, in := range steps {
		_, err := uc.Create(ctx, in)
		require.NoError(t, err)
	}

	for _, name := range []string{"Bodega", "Tienda", "Vitrina"} {
		net, err := store.Movements().NetByLocation(name)
		require.NoError(t, err)
		assert.Equal(t, net, quantityOf(t, store, name), name)
	}
}

func TestReintentos_AgotadosDevuelveConflicto(t *testing.T) {
	store := memory.NewStore()
	require.NoError(t, store.Products().Create(&entity.Product{Name: "Widget"}))
	runner := &conflictRunner{}
	uc := ledger.NewLedgerUseCase(runner, store.Movements(), store.Locations(), store.Products(), ledger.RetryConfig{MaxAttempts: 3})

	_, err := uc.Create(context.Background(), ledger.MovementInput{ToLocation: strp("Bodega"), ProductID: 1, Quantity: 1})
	require.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, 3, runner.calls)
}

func TestReintentos_ContencionTransitoriaSeRecupera(t *testing.T) {
	store := memory.NewStore()
	require.NoError(t, store.Products().Create(&entity.Product{Name: "Widget"}))
	runner := &conflictRunner{failures: 2, inner: store}
	uc := ledger.NewLedgerUseCase(runner, store.Movements(), store.Locations(), store.Products(), ledger.RetryConfig{MaxAttempts: 3})

	mov, err := uc.Create(context.Background(), ledger.MovementInput{ToLocation: strp("Bodega"), ProductID: 1, Quantity: 1})
	require.NoError(t, err)
	require.NotNil(t, mov)
	assert.Equal(t, 3, runner.calls)
}

// conflictRunner simula contención: falla con ErrConflict las primeras failures
// veces (o siempre, si inner es nil) y después delega en inner.
type conflictRunner struct {
	failures int
	inner    ledger.TxRunner
	calls    int
}

func (r *conflictRunner) Run(ctx context.Context, fn func(
	movRepo repository.MovementRepository,
	locRepo repository.LocationRepository,
) error) error {
	r.calls++
	if r.inner == nil || r.calls <= r.failures {
		return domain.ErrConflict
	}
	return r.inner.Run(ctx, fn)
}
