package controllers

import (
	"errors"
	"time"

	"github.com/flowbaker/categorizer/internal/managers"
	"github.com/flowbaker/categorizer/pkg/ai-sdk/memory"
	"github.com/flowbaker/categorizer/pkg/ai-sdk/types"
	"github.com/flowbaker/categorizer/pkg/categorizer"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
)

type DetectCategoryRequest struct {
	Description string `json:"description" validate:"required,max=500"`
	Mode        string `json:"mode" validate:"omitempty,oneof=agentic direct"`
}

type DetectCategoryResponse struct {
	Category     categorizer.Category  `json:"category"`
	Confidence   float64               `json:"confidence"`
	Conversation []categorizer.Message `json:"conversation"`
}

type DetectCategoriesRequest struct {
	Descriptions []string `json:"descriptions" validate:"required,min=1,max=100,dive,required,max=500"`
	Mode         string   `json:"mode" validate:"omitempty,oneof=agentic direct"`
}

type DetectCategoriesResponse struct {
	Results []DetectCategoryResponse `json:"results"`
}

type CategoryResponse struct {
	ID          categorizer.Category `json:"id"`
	Description string               `json:"description"`
}

type RunResponse struct {
	ID         string         `json:"id"`
	Task       string         `json:"task"`
	Transcript []types.Turn   `json:"transcript"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  string         `json:"created_at"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type CategoryController struct {
	manager managers.ClassificationManager
}

type CategoryControllerDependencies struct {
	ClassificationManager managers.ClassificationManager
}

func NewCategoryController(deps CategoryControllerDependencies) *CategoryController {
	return &CategoryController{
		manager: deps.ClassificationManager,
	}
}

// DetectCategory classifies a single transaction description
func (c *CategoryController) DetectCategory(ctx fiber.Ctx) error {
	var req DetectCategoryRequest

	if err := ctx.Bind().Body(&req); err != nil {
		return badRequest(ctx, "Invalid request body", err)
	}

	outcome, err := c.manager.Classify(ctx.RequestCtx(), managers.ClassifyParams{
		Description: req.Description,
		Mode:        categorizer.Mode(req.Mode),
	})
	if err != nil {
		return classificationError(ctx, err)
	}

	return ctx.JSON(toDetectCategoryResponse(outcome))
}

// DetectCategories classifies up to 100 descriptions, answering in input order
func (c *CategoryController) DetectCategories(ctx fiber.Ctx) error {
	var req DetectCategoriesRequest

	if err := ctx.Bind().Body(&req); err != nil {
		return badRequest(ctx, "Invalid request body", err)
	}

	outcomes, err := c.manager.ClassifyBatch(ctx.RequestCtx(), managers.ClassifyBatchParams{
		Descriptions: req.Descriptions,
		Mode:         categorizer.Mode(req.Mode),
	})
	if err != nil {
		return classificationError(ctx, err)
	}

	response := DetectCategoriesResponse{
		Results: make([]DetectCategoryResponse, len(outcomes)),
	}
	for i, outcome := range outcomes {
		response.Results[i] = toDetectCategoryResponse(outcome)
	}

	return ctx.JSON(response)
}

func (c *CategoryController) ListCategories(ctx fiber.Ctx) error {
	entries := categorizer.Entries()

	response := make([]CategoryResponse, len(entries))
	for i, entry := range entries {
		response[i] = CategoryResponse{
			ID:          entry.ID,
			Description: entry.Description,
		}
	}

	return ctx.JSON(response)
}

func (c *CategoryController) GetRun(ctx fiber.Ctx) error {
	run, err := c.manager.GetRun(ctx.RequestCtx(), ctx.Params("id"))
	if errors.Is(err, memory.ErrRunNotFound) {
		return ctx.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "Run not found"})
	}
	if err != nil {
		log.Error().Err(err).Str("run_id", ctx.Params("id")).Msg("Failed to load run")
		return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "Failed to load run",
			Details: err.Error(),
		})
	}

	return ctx.JSON(RunResponse{
		ID:         run.ID,
		Task:       run.Task,
		Transcript: run.Transcript,
		Metadata:   run.Metadata,
		CreatedAt:  run.CreatedAt.UTC().Format(time.RFC3339),
	})
}

func toDetectCategoryResponse(outcome categorizer.Outcome) DetectCategoryResponse {
	conversation := outcome.Conversation
	if conversation == nil {
		conversation = []categorizer.Message{}
	}

	return DetectCategoryResponse{
		Category:     outcome.Category,
		Confidence:   outcome.Confidence,
		Conversation: conversation,
	}
}

func badRequest(ctx fiber.Ctx, message string, err error) error {
	return ctx.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error:   message,
		Details: err.Error(),
	})
}

func classificationError(ctx fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, categorizer.ErrInvalidDescription),
		errors.Is(err, managers.ErrInvalidBatch),
		errors.Is(err, managers.ErrModeUnavailable):
		return badRequest(ctx, "Invalid request", err)
	}

	log.Error().Err(err).Msg("Category detection failed")

	return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error:   "Category detection failed",
		Details: err.Error(),
	})
}
