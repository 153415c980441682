package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/jimxer74/find-my-crew/internal/pkg/utils"
	"github.com/jimxer74/find-my-crew/internal/pkg/validator"
	"github.com/jimxer74/find-my-crew/internal/usecase"
	"github.com/jimxer74/find-my-crew/internal/usecase/dto"
)

// LegHandler serves the non-geographic leg queries.
type LegHandler struct {
	searchUC *usecase.LegSearchUseCase
	logger   *zap.Logger
}

func NewLegHandler(searchUC *usecase.LegSearchUseCase, logger *zap.Logger) *LegHandler {
	return &LegHandler{
		searchUC: searchUC,
		logger:   logger,
	}
}

// FindLegs godoc
// @Summary Filtered leg listing
// @Description Lists published legs filtered by journey, required skills, boat type and make/model substring. Legs with no open crew slots are excluded unless include_full=true.
// @Tags Legs
// @Accept json
// @Produce json
// @Param journey_id query string false "Journey id"
// @Param skills query string false "Comma-separated required skills"
// @Param boat_type query string false "Boat type"
// @Param make_model query string false "Make/model substring (case-insensitive)"
// @Param start_date query string false "Earliest start date (YYYY-MM-DD)"
// @Param end_date query string false "Latest start date (YYYY-MM-DD)"
// @Param include_full query bool false "Include legs with no open crew slots" default(false)
// @Param limit query int false "Maximum results" default(10)
// @Success 200 {object} utils.SuccessResponse{data=dto.LegSearchResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /api/v1/legs [get]
func (h *LegHandler) FindLegs(c *fiber.Ctx) error {
	req := dto.FindLegsRequest{
		JourneyID:   c.Query("journey_id"),
		BoatType:    c.Query("boat_type"),
		MakeModel:   c.Query("make_model"),
		StartDate:   c.Query("start_date"),
		EndDate:     c.Query("end_date"),
		IncludeFull: c.QueryBool("include_full", false),
		Limit:       c.QueryInt("limit", 0),
	}
	if skills := c.Query("skills"); skills != "" {
		for _, s := range strings.Split(skills, ",") {
			if trimmed := strings.TrimSpace(s); trimmed != "" {
				req.Skills = append(req.Skills, trimmed)
			}
		}
	}

	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, err)
	}

	result, err := h.searchUC.FindLegs(c.Context(), req)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, result, &utils.Meta{
		Total: result.Total,
	})
}

// GetLeg godoc
// @Summary Leg details
// @Description Returns one leg with its journey, boat and decoded route waypoints.
// @Tags Legs
// @Accept json
// @Produce json
// @Param id path string true "Leg id"
// @Success 200 {object} utils.SuccessResponse{data=domain.Leg}
// @Failure 404 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /api/v1/legs/{id} [get]
func (h *LegHandler) GetLeg(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Leg id required"})
	}

	leg, err := h.searchUC.GetLeg(c.Context(), id)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, leg, nil)
}
