package server

import (
	"net/http"
	"strings"

	auditdomain "github.com/Cymoe/bill/internal/audit/domain"
	"github.com/Cymoe/bill/pkg/db/pagination"
	"github.com/gin-gonic/gin"
)

func (s *Server) ListActivity(c *gin.Context) {
	var query struct {
		pagination.Pagination
		EntityType string `form:"entity_type"`
		EntityID   string `form:"entity_id"`
		Action     string `form:"action"`
		StartAt    string `form:"start_at"`
		EndAt      string `form:"end_at"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	startAt, err := parseOptionalTime(query.StartAt, false)
	if err != nil {
		AbortWithError(c, newValidationError("start_at", "invalid_start_at", "invalid start_at"))
		return
	}
	endAt, err := parseOptionalTime(query.EndAt, true)
	if err != nil {
		AbortWithError(c, newValidationError("end_at", "invalid_end_at", "invalid end_at"))
		return
	}

	resp, err := s.auditSvc.List(c.Request.Context(), auditdomain.ListActivityRequest{
		Pagination: query.Pagination,
		OrgID:      orgID(c),
		EntityType: strings.TrimSpace(query.EntityType),
		EntityID:   strings.TrimSpace(query.EntityID),
		Action:     strings.TrimSpace(query.Action),
		StartAt:    startAt,
		EndAt:      endAt,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
