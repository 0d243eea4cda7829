package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/loomerp/backend/internal/domain/shared"
	"github.com/loomerp/backend/internal/interfaces/http/dto"
)

// parseUUIDParam parses a UUID path parameter, or returns false after writing
// a 400 response
func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(400, dto.NewErrorResponse(dto.ErrCodeBadRequest,
			"Invalid "+name+" parameter", getRequestID(c)))
		return uuid.Nil, false
	}
	return id, true
}

// buildFilter converts list query parameters into a repository filter
func buildFilter(req dto.ListRequest, filters map[string]any) shared.Filter {
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 20
	}
	return shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
		Filters:  filters,
	}
}
