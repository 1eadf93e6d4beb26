package server

import (
	"net/http"
	"strings"

	projectdomain "github.com/Cymoe/bill/internal/project/domain"
	"github.com/Cymoe/bill/pkg/db/pagination"
	"github.com/gin-gonic/gin"
)

type createProjectRequest struct {
	ClientID     string `json:"client_id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Address      string `json:"address"`
	BudgetAmount int64  `json:"budget_amount"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
}

func (s *Server) CreateProject(c *gin.Context) {
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	startDate, err := parseOptionalTime(req.StartDate, false)
	if err != nil {
		AbortWithError(c, newValidationError("start_date", "invalid_start_date", "invalid start_date"))
		return
	}
	endDate, err := parseOptionalTime(req.EndDate, true)
	if err != nil {
		AbortWithError(c, newValidationError("end_date", "invalid_end_date", "invalid end_date"))
		return
	}

	resp, err := s.projectSvc.Create(c.Request.Context(), projectdomain.CreateProjectRequest{
		OrgID:        orgID(c),
		ClientID:     strings.TrimSpace(req.ClientID),
		Name:         req.Name,
		Description:  req.Description,
		Address:      req.Address,
		BudgetAmount: req.BudgetAmount,
		StartDate:    startDate,
		EndDate:      endDate,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type updateProjectRequest struct {
	ClientID     *string `json:"client_id"`
	Name         *string `json:"name"`
	Description  *string `json:"description"`
	Address      *string `json:"address"`
	Status       *string `json:"status"`
	BudgetAmount *int64  `json:"budget_amount"`
	StartDate    string  `json:"start_date"`
	EndDate      string  `json:"end_date"`
}

func (s *Server) UpdateProject(c *gin.Context) {
	var req updateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	startDate, err := parseOptionalTime(req.StartDate, false)
	if err != nil {
		AbortWithError(c, newValidationError("start_date", "invalid_start_date", "invalid start_date"))
		return
	}
	endDate, err := parseOptionalTime(req.EndDate, true)
	if err != nil {
		AbortWithError(c, newValidationError("end_date", "invalid_end_date", "invalid end_date"))
		return
	}

	update := projectdomain.UpdateProjectRequest{
		OrgID:        orgID(c),
		ID:           strings.TrimSpace(c.Param("id")),
		ClientID:     req.ClientID,
		Name:         req.Name,
		Description:  req.Description,
		Address:      req.Address,
		BudgetAmount: req.BudgetAmount,
		StartDate:    startDate,
		EndDate:      endDate,
	}
	if req.Status != nil {
		status := projectdomain.ProjectStatus(*req.Status)
		update.Status = &status
	}

	resp, err := s.projectSvc.Update(c.Request.Context(), update)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteProject(c *gin.Context) {
	err := s.projectSvc.Delete(c.Request.Context(), projectdomain.GetProjectRequest{
		OrgID: orgID(c),
		ID:    strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}

func (s *Server) GetProject(c *gin.Context) {
	resp, err := s.projectSvc.GetByID(c.Request.Context(), projectdomain.GetProjectRequest{
		OrgID: orgID(c),
		ID:    strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListProjects(c *gin.Context) {
	var query struct {
		pagination.Pagination
		ClientID string `form:"client_id"`
		Status   string `form:"status"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	list := projectdomain.ListProjectRequest{
		Pagination: query.Pagination,
		OrgID:      orgID(c),
		ClientID:   strings.TrimSpace(query.ClientID),
	}
	if status := strings.TrimSpace(query.Status); status != "" {
		st := projectdomain.ProjectStatus(status)
		list.Status = &st
	}

	resp, err := s.projectSvc.List(c.Request.Context(), list)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isProjectValidationError(err error) bool {
	switch err {
	case projectdomain.ErrInvalidOrganization,
		projectdomain.ErrInvalidName,
		projectdomain.ErrInvalidID,
		projectdomain.ErrInvalidStatus:
		return true
	default:
		return false
	}
}
