package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/jimxer74/find-my-crew/internal/pkg/utils"
	"github.com/jimxer74/find-my-crew/internal/pkg/validator"
	"github.com/jimxer74/find-my-crew/internal/usecase"
	"github.com/jimxer74/find-my-crew/internal/usecase/dto"
)

// SearchHandler serves the geographic leg search.
type SearchHandler struct {
	searchUC *usecase.LegSearchUseCase
	logger   *zap.Logger
}

func NewSearchHandler(searchUC *usecase.LegSearchUseCase, logger *zap.Logger) *SearchHandler {
	return &SearchHandler{
		searchUC: searchUC,
		logger:   logger,
	}
}

// SearchByArea godoc
// @Summary Geographic leg search
// @Description Finds published sailing legs whose departure and/or arrival waypoints fall inside the given map rectangles, with optional date, skill, risk and experience filters. When the date range excludes every geographic match, the response carries a date-availability hint instead of a bare empty list.
// @Tags Search
// @Accept json
// @Produce json
// @Param request body dto.AreaSearchRequest true "Search areas and filters"
// @Success 200 {object} utils.SuccessResponse{data=dto.LegSearchResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /api/v1/search/legs [post]
func (h *SearchHandler) SearchByArea(c *fiber.Ctx) error {
	var req dto.AreaSearchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, err)
	}

	result, err := h.searchUC.SearchByArea(c.Context(), req)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, result, &utils.Meta{
		Total: result.Total,
	})
}
