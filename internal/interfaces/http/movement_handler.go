package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jmoreno/kardex-api/internal/application/dto"
	"github.com/jmoreno/kardex-api/internal/application/ledger"
	"github.com/jmoreno/kardex-api/internal/domain"
	"github.com/jmoreno/kardex-api/internal/domain/entity"
	"github.com/jmoreno/kardex-api/pkg/metrics"
)

// MovementHandler maneja las peticiones HTTP del libro de movimientos
// (protegido): crear, consultar, corregir y eliminar con reverso.
type MovementHandler struct {
	uc *ledger.LedgerUseCase
	m  *metrics.Metrics
}

// NewMovementHandler construye el handler. m puede ser nil en tests.
func NewMovementHandler(uc *ledger.LedgerUseCase, m *metrics.Metrics) *MovementHandler {
	return &MovementHandler{uc: uc, m: m}
}

func toMovementResponse(mov *entity.Movement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:           mov.ID,
		Reference:    mov.Reference,
		Timestamp:    mov.Timestamp,
		FromLocation: mov.FromLocation,
		ToLocation:   mov.ToLocation,
		ProductID:    mov.ProductID,
		Quantity:     mov.Quantity,
	}
}

// rejected cuenta el rechazo y responde el error mapeado a HTTP.
func (h *MovementHandler) rejected(c *fiber.Ctx, err error) error {
	status, code, reason := fiber.StatusInternalServerError, "INTERNAL", "internal"
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status, code, reason = fiber.StatusBadRequest, "VALIDATION", "invalid_input"
	case errors.Is(err, domain.ErrInsufficientStock):
		status, code, reason = fiber.StatusConflict, "INSUFFICIENT_QUANTITY", "insufficient_quantity"
	case errors.Is(err, domain.ErrNotFound):
		status, code, reason = fiber.StatusNotFound, "NOT_FOUND", "not_found"
	case errors.Is(err, domain.ErrConflict):
		status, code, reason = fiber.StatusConflict, "CONFLICT_RETRY_EXHAUSTED", "conflict"
	}
	if h.m != nil {
		h.m.MovementsRejected.WithLabelValues(reason).Inc()
	}
	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		msg = "error interno"
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

func movementInput(in dto.MovementRequest) ledger.MovementInput {
	return ledger.MovementInput{
		FromLocation: in.FromLocation,
		ToLocation:   in.ToLocation,
		ProductID:    in.ProductID,
		Quantity:     in.Quantity,
	}
}

// Create godoc
// @Summary      Registrar movimiento
// @Description  Aplica el movimiento de forma atómica: debita el origen (si
// @Description  existe), acredita el destino (creándolo en cero si hace falta)
// @Description  y persiste el registro. Un rechazo no deja ningún efecto.
// @Tags         movements
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.MovementRequest  true  "from_location y/o to_location, product_id, quantity > 0"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/movements [post]
func (h *MovementHandler) Create(c *fiber.Ctx) error {
	var in dto.MovementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	mov, err := h.uc.Create(c.Context(), movementInput(in))
	if err != nil {
		return h.rejected(c, err)
	}
	if h.m != nil {
		h.m.MovementsApplied.Inc()
	}
	return c.Status(fiber.StatusCreated).JSON(toMovementResponse(mov))
}

// GetByID godoc
// @Summary      Obtener movimiento por ID
// @Tags         movements
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del movimiento"
// @Success      200  {object}  dto.MovementResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/movements/{id} [get]
func (h *MovementHandler) GetByID(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_ID", Message: "id debe ser numérico"})
	}
	mov, err := h.uc.GetMovement(c.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "movimiento no encontrado"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(toMovementResponse(mov))
}

// List godoc
// @Summary      Listar movimientos
// @Description  Más recientes primero. Con ?location=N filtra los movimientos
// @Description  que tocan esa ubicación como origen o destino.
// @Tags         movements
// @Security     Bearer
// @Produce      json
// @Param        location  query  string  false  "Filtrar por ubicación"
// @Param        limit     query  int     false  "Límite"   default(20)
// @Param        offset    query  int     false  "Offset"   default(0)
// @Success      200       {object}  dto.MovementListResponse
// @Router       /api/movements [get]
func (h *MovementHandler) List(c *fiber.Ctx) error {
	page := dto.PageRequest{Limit: c.QueryInt("limit", 20), Offset: c.QueryInt("offset", 0)}
	page.DefaultPage()
	var (
		movs []*entity.Movement
		err  error
	)
	if name := c.Query("location"); name != "" {
		movs, err = h.uc.ListMovementsByLocation(c.Context(), name, page.Limit, page.Offset)
	} else {
		movs, err = h.uc.ListMovements(c.Context(), page.Limit, page.Offset)
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	out := dto.MovementListResponse{
		Movements: make([]dto.MovementResponse, 0, len(movs)),
		Page:      dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: len(movs)},
	}
	for _, m := range movs {
		out.Movements = append(out.Movements, toMovementResponse(m))
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Corregir movimiento
// @Description  Revierte el efecto registrado y aplica los nuevos campos como
// @Description  un solo ajuste neto; identidad, referencia y timestamp se
// @Description  preservan. Si el neto dejara una ubicación negativa se rechaza
// @Description  sin tocar nada.
// @Tags         movements
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int  true  "ID del movimiento"
// @Param        body  body  dto.MovementRequest  true  "Campos corregidos"
// @Success      200   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/movements/{id} [put]
func (h *MovementHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_ID", Message: "id debe ser numérico"})
	}
	var in dto.MovementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	mov, err := h.uc.Amend(c.Context(), id, movementInput(in))
	if err != nil {
		return h.rejected(c, err)
	}
	if h.m != nil {
		h.m.MovementsAmended.Inc()
	}
	return c.JSON(toMovementResponse(mov))
}

// Delete godoc
// @Summary      Eliminar movimiento revirtiendo su efecto
// @Tags         movements
// @Security     Bearer
// @Param        id  path  int  true  "ID del movimiento"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/movements/{id} [delete]
func (h *MovementHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_ID", Message: "id debe ser numérico"})
	}
	if err := h.uc.Delete(c.Context(), id); err != nil {
		return h.rejected(c, err)
	}
	if h.m != nil {
		h.m.MovementsReversed.Inc()
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Reconcile godoc
// @Summary      Conciliar ubicación contra su historial
// @Description  Compara la cantidad actual con el neto derivado de los
// @Description  movimientos (créditos como destino menos débitos como origen).
// @Tags         locations
// @Security     Bearer
// @Produce      json
// @Param        name  path  string  true  "Nombre de la ubicación"
// @Success      200   {object}  map[string]interface{}
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/locations/{name}/reconcile [get]
func (h *MovementHandler) Reconcile(c *fiber.Ctx) error {
	name := c.Params("name")
	quantity, net, err := h.uc.ReconcileLocation(c.Context(), name)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "ubicación no encontrada"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(fiber.Map{
		"name":       name,
		"quantity":   quantity,
		"net":        net,
		"reconciled": quantity == net,
	})
}
