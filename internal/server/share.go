package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) GetSharedEstimate(c *gin.Context) {
	resp, err := s.publicShareSvc.GetEstimateByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.countShareView("estimate")
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetSharedInvoice(c *gin.Context) {
	resp, err := s.publicShareSvc.GetInvoiceByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.countShareView("invoice")
	c.JSON(http.StatusOK, gin.H{"data": resp})
}
