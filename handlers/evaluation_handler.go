package handlers

import (
	"errors"
	"net/http"

	"rubricscore-backend/repository"
	"rubricscore-backend/service"

	"github.com/gin-gonic/gin"
)

// EvaluationHandler handles HTTP requests for document evaluation
type EvaluationHandler struct {
	evaluationService *service.EvaluationService
	rubricRepo        *repository.RubricRepository
}

// NewEvaluationHandler creates a new evaluation handler
func NewEvaluationHandler(evaluationService *service.EvaluationService, rubricRepo *repository.RubricRepository) *EvaluationHandler {
	return &EvaluationHandler{
		evaluationService: evaluationService,
		rubricRepo:        rubricRepo,
	}
}

// EvaluateRequest represents the request body for evaluating a document
type EvaluateRequest struct {
	Sector       string `json:"sector" binding:"required"`
	DocumentName string `json:"document_name"`
	Document     string `json:"document" binding:"required"`
}

// Evaluate handles POST /api/v1/evaluation/evaluate
func (h *EvaluationHandler) Evaluate(c *gin.Context) {
	var req EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	result, err := h.evaluationService.Evaluate(c.Request.Context(), service.EvaluateRequest{
		Sector:       req.Sector,
		DocumentName: req.DocumentName,
		Document:     req.Document,
	})
	if err != nil {
		status, code := evaluationErrorStatus(err)
		c.JSON(status, gin.H{
			"success": false,
			"error": gin.H{
				"code":    code,
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

// ListSectors handles GET /api/v1/evaluation/sectors
func (h *EvaluationHandler) ListSectors(c *gin.Context) {
	sectors, err := h.rubricRepo.ListSectors(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "LIST_FAILED",
				"message": err.Error(),
			},
		})
		return
	}
	if sectors == nil {
		sectors = []string{}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"sectors": sectors,
		},
	})
}

// evaluationErrorStatus maps evaluation errors to an HTTP status and a stable
// error code.
func evaluationErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, repository.ErrSectorNotFound):
		return http.StatusNotFound, "SECTOR_NOT_FOUND"
	case errors.Is(err, service.ErrMissingDocument):
		return http.StatusBadRequest, "MISSING_DOCUMENT"
	case errors.Is(err, service.ErrEmptyDocument):
		return http.StatusBadRequest, "EMPTY_DOCUMENT"
	case errors.Is(err, service.ErrMalformedRubric):
		return http.StatusUnprocessableEntity, "MALFORMED_RUBRIC"
	case errors.Is(err, service.ErrAnonymizationFailed):
		return http.StatusBadGateway, "ANONYMIZATION_FAILED"
	default:
		return http.StatusInternalServerError, "EVALUATION_FAILED"
	}
}
