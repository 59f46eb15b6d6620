package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jmoreno/kardex-api/internal/application/dto"
	"github.com/jmoreno/kardex-api/internal/application/usecase"
)

// ReportHandler expone la vista combinada de ubicaciones y movimientos.
type ReportHandler struct {
	uc *usecase.ReportUseCase
}

// NewReportHandler construye el handler.
func NewReportHandler(uc *usecase.ReportUseCase) *ReportHandler {
	return &ReportHandler{uc: uc}
}

// Get godoc
// @Summary      Reporte general
// @Description  Todas las ubicaciones con sus cantidades más los movimientos
// @Description  recientes, en una sola respuesta.
// @Tags         report
// @Produce      json
// @Param        limit  query  int  false  "Máximo de filas por sección"  default(50)
// @Success      200    {object}  dto.ReportResponse
// @Router       /api/report [get]
func (h *ReportHandler) Get(c *fiber.Ctx) error {
	out, err := h.uc.Generate(c.QueryInt("limit", 50))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(out)
}
