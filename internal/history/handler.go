package history

import (
	"net/http"

	httperr "github.com/aevon-lab/salespulse/internal/core/errors"
	"github.com/gin-gonic/gin"
)

// HandleSave handles POST /history
func (s *Service) HandleSave(c *gin.Context) {
	var req SaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidJsonError,
			Message:   "Invalid JSON body",
			Details:   err.Error(),
		})
		return
	}

	report, err := s.Save(c.Request.Context(), req)
	if err != nil {
		status, body := httperr.Response(err)
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusCreated, report)
}

// HandleList handles GET /history
func (s *Service) HandleList(c *gin.Context) {
	reports, err := s.List(c.Request.Context())
	if err != nil {
		status, body := httperr.Response(err)
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusOK, reports)
}
