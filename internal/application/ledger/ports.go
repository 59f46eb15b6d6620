package ledger

import (
	"context"

	"github.com/jmoreno/kardex-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Garantiza atomicidad para el libro de movimientos:
// lectura de cantidades, cómputo del motor y escritura son indivisibles, y un
// fallo deja el estado intacto (rollback completo).
type TxRunner interface {
	Run(ctx context.Context, fn func(
		movRepo repository.MovementRepository,
		locRepo repository.LocationRepository,
	) error) error
}
