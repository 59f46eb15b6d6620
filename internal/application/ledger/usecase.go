package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jmoreno/kardex-api/internal/domain"
	"github.com/jmoreno/kardex-api/internal/domain/entity"
	engine "github.com/jmoreno/kardex-api/internal/domain/ledger"
	"github.com/jmoreno/kardex-api/internal/domain/repository"
)

// RetryConfig presupuesto de reintentos ante contención concurrente sobre las
// mismas ubicaciones. Tras agotarlo la operación devuelve domain.ErrConflict.
type RetryConfig struct {
	MaxAttempts int
	Backoff     time.Duration
}

// LedgerUseCase orquesta el motor de consistencia contra los stores dentro de
// una unidad de trabajo atómica por operación: crear, corregir y eliminar
// movimientos, más las lecturas sin efectos.
type LedgerUseCase struct {
	txRunner    TxRunner
	movRepo     repository.MovementRepository
	locRepo     repository.LocationRepository
	productRepo repository.ProductRepository
	retry       RetryConfig
}

// NewLedgerUseCase construye el caso de uso. movRepo y locRepo son los
// repositorios atados al pool (solo lecturas); las escrituras pasan por txRunner.
func NewLedgerUseCase(
	txRunner TxRunner,
	movRepo repository.MovementRepository,
	locRepo repository.LocationRepository,
	productRepo repository.ProductRepository,
	retry RetryConfig,
) *LedgerUseCase {
	if retry.MaxAttempts <= 0 {
		retry.MaxAttempts = 1
	}
	return &LedgerUseCase{
		txRunner:    txRunner,
		movRepo:     movRepo,
		locRepo:     locRepo,
		productRepo: productRepo,
		retry:       retry,
	}
}

// MovementInput entrada para crear o corregir un movimiento.
type MovementInput struct {
	FromLocation *string
	ToLocation   *string
	ProductID    int64
	Quantity     int64
}

func (in MovementInput) change() engine.Change {
	return engine.Change{From: in.FromLocation, To: in.ToLocation, Quantity: in.Quantity}
}

// validate aplica las reglas de entrada: cantidad estrictamente positiva, al
// menos un extremo presente, extremos distintos y producto existente.
func (uc *LedgerUseCase) validate(in MovementInput) error {
	if in.Quantity <= 0 {
		return domain.ErrInvalidInput
	}
	from, to := "", ""
	if in.FromLocation != nil {
		from = *in.FromLocation
	}
	if in.ToLocation != nil {
		to = *in.ToLocation
	}
	if from == "" && to == "" {
		return domain.ErrInvalidInput
	}
	if from != "" && from == to {
		return domain.ErrInvalidInput
	}
	product, err := uc.productRepo.GetByID(in.ProductID)
	if err != nil {
		return err
	}
	if product == nil {
		return domain.ErrInvalidInput // producto desconocido
	}
	return nil
}

// withRetry reintenta fn con backoff lineal mientras el fallo sea de contención
// (domain.ErrConflict envuelto por el TxRunner). Nunca reintenta más allá del
// presupuesto configurado.
func (uc *LedgerUseCase) withRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt < uc.retry.MaxAttempts; attempt++ {
		err = fn()
		if err == nil || !errors.Is(err, domain.ErrConflict) {
			return err
		}
		if attempt < uc.retry.MaxAttempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(uc.retry.Backoff * time.Duration(attempt+1)):
			}
		}
	}
	return err
}

// lockNames nombres de ubicación a bloquear, sin duplicados ni vacíos.
func lockNames(changes ...engine.Change) []string {
	seen := make(map[string]bool)
	var names []string
	add := func(p *string) {
		if p == nil || *p == "" || seen[*p] {
			return
		}
		seen[*p] = true
		names = append(names, *p)
	}
	for _, ch := range changes {
		add(ch.From)
		add(ch.To)
	}
	return names
}

// snapshot construye el snapshot del motor a partir de las filas bloqueadas.
func snapshot(locs []*entity.Location) engine.Snapshot {
	snap := make(engine.Snapshot, len(locs))
	for _, l := range locs {
		snap[l.Name] = l.Quantity
	}
	return snap
}

// persist aplica las actualizaciones del motor vía Upsert (crea las ubicaciones
// perezosas y sobreescribe las cantidades de las existentes).
func persist(locRepo repository.LocationRepository, res *engine.Result, now time.Time) error {
	for _, u := range res.Updates {
		loc := &entity.Location{Name: u.Name, Quantity: u.Quantity, UpdatedAt: now}
		if err := locRepo.Upsert(loc); err != nil {
			return err
		}
	}
	return nil
}

// Create valida la entrada, aplica el movimiento de forma atómica y devuelve el
// registro creado. Ante rechazo no hay ninguna escritura visible.
func (uc *LedgerUseCase) Create(ctx context.Context, in MovementInput) (*entity.Movement, error) {
	if err := uc.validate(in); err != nil {
		return nil, err
	}
	ch := in.change()
	var created *entity.Movement
	err := uc.withRetry(ctx, func() error {
		return uc.txRunner.Run(ctx, func(movRepo repository.MovementRepository, locRepo repository.LocationRepository) error {
			locs, err := locRepo.GetForUpdate(lockNames(ch))
			if err != nil {
				return err
			}
			res, err := engine.ComputeApply(snapshot(locs), ch)
			if err != nil {
				return err
			}
			now := time.Now()
			if err := persist(locRepo, res, now); err != nil {
				return err
			}
			mov := &entity.Movement{
				Reference:    uuid.New().String(),
				Timestamp:    now,
				FromLocation: in.FromLocation,
				ToLocation:   in.ToLocation,
				ProductID:    in.ProductID,
				Quantity:     in.Quantity,
			}
			if err := movRepo.Create(mov); err != nil {
				return err
			}
			created = mov
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Amend corrige un movimiento en el sitio: revierte el efecto anterior y aplica
// el nuevo como un solo delta neto sobre un snapshot consistente. Identidad,
// referencia y timestamp del movimiento se preservan.
func (uc *LedgerUseCase) Amend(ctx context.Context, movementID int64, in MovementInput) (*entity.Movement, error) {
	if err := uc.validate(in); err != nil {
		return nil, err
	}
	newCh := in.change()
	var amended *entity.Movement
	err := uc.withRetry(ctx, func() error {
		return uc.txRunner.Run(ctx, func(movRepo repository.MovementRepository, locRepo repository.LocationRepository) error {
			mov, err := movRepo.GetByID(movementID)
			if err != nil {
				return err
			}
			if mov == nil {
				return domain.ErrNotFound
			}
			oldCh := engine.ChangeOf(mov)
			locs, err := locRepo.GetForUpdate(lockNames(oldCh, newCh))
			if err != nil {
				return err
			}
			res, err := engine.ComputeAmend(snapshot(locs), oldCh, newCh)
			if err != nil {
				return err
			}
			now := time.Now()
			if err := persist(locRepo, res, now); err != nil {
				return err
			}
			mov.FromLocation = in.FromLocation
			mov.ToLocation = in.ToLocation
			mov.ProductID = in.ProductID
			mov.Quantity = in.Quantity
			if err := movRepo.Update(mov); err != nil {
				return err
			}
			amended = mov
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return amended, nil
}

// Delete revierte por completo el efecto neto del movimiento sobre las
// ubicaciones que tocó y elimina el registro, todo en la misma transacción.
// Se rechaza igual que una creación si debitar el destino dejara una ubicación
// negativa.
func (uc *LedgerUseCase) Delete(ctx context.Context, movementID int64) error {
	return uc.withRetry(ctx, func() error {
		return uc.txRunner.Run(ctx, func(movRepo repository.MovementRepository, locRepo repository.LocationRepository) error {
			mov, err := movRepo.GetByID(movementID)
			if err != nil {
				return err
			}
			if mov == nil {
				return domain.ErrNotFound
			}
			ch := engine.ChangeOf(mov)
			locs, err := locRepo.GetForUpdate(lockNames(ch))
			if err != nil {
				return err
			}
			res, err := engine.ComputeReverse(snapshot(locs), ch)
			if err != nil {
				return err
			}
			if err := persist(locRepo, res, time.Now()); err != nil {
				return err
			}
			return movRepo.Delete(movementID)
		})
	})
}

// GetMovement lectura sin efectos.
func (uc *LedgerUseCase) GetMovement(ctx context.Context, movementID int64) (*entity.Movement, error) {
	mov, err := uc.movRepo.GetByID(movementID)
	if err != nil {
		return nil, err
	}
	if mov == nil {
		return nil, domain.ErrNotFound
	}
	return mov, nil
}

// GetLocation lectura sin efectos.
func (uc *LedgerUseCase) GetLocation(ctx context.Context, name string) (*entity.Location, error) {
	loc, err := uc.locRepo.GetByName(name)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		return nil, domain.ErrNotFound
	}
	return loc, nil
}

// ListMovements lista movimientos paginados, más recientes primero.
func (uc *LedgerUseCase) ListMovements(ctx context.Context, limit, offset int) ([]*entity.Movement, error) {
	return uc.movRepo.List(limit, offset)
}

// ListMovementsByLocation lista los movimientos que tocan una ubicación como
// origen o destino, más recientes primero.
func (uc *LedgerUseCase) ListMovementsByLocation(ctx context.Context, name string, limit, offset int) ([]*entity.Movement, error) {
	return uc.movRepo.ListByLocation(name, limit, offset)
}

// ReconcileLocation devuelve la cantidad actual de la ubicación y el neto
// derivado de sus movimientos (créditos como destino menos débitos como origen).
// Con la ubicación creada en cero y mutada solo vía movimientos, ambos coinciden.
func (uc *LedgerUseCase) ReconcileLocation(ctx context.Context, name string) (quantity, net int64, err error) {
	loc, err := uc.locRepo.GetByName(name)
	if err != nil {
		return 0, 0, err
	}
	if loc == nil {
		return 0, 0, domain.ErrNotFound
	}
	net, err = uc.movRepo.NetByLocation(name)
	if err != nil {
		return 0, 0, err
	}
	return loc.Quantity, net, nil
}
