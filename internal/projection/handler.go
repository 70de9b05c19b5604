package projection

import (
	"net/http"

	httperr "github.com/aevon-lab/salespulse/internal/core/errors"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers the analytics query routes on the given router.
// The caller mounts it under /api/analytics.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.GET("/revenue", s.HandleRevenue)
	r.GET("/top-products", s.HandleTopProducts)
	r.GET("/top-customers", s.HandleTopCustomers)
	r.GET("/region-stats", s.HandleRegionStats)
	r.GET("/snapshot", s.HandleSnapshot)
	r.GET("/live", s.HandleLive)
}

// HandleRevenue handles GET /revenue?startDate&endDate
func (s *Service) HandleRevenue(c *gin.Context) {
	q, ok := bindWindow(c)
	if !ok {
		return
	}
	resp, err := s.Revenue(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HandleTopProducts handles GET /top-products?startDate&endDate
func (s *Service) HandleTopProducts(c *gin.Context) {
	q, ok := bindWindow(c)
	if !ok {
		return
	}
	rows, err := s.TopProducts(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// HandleTopCustomers handles GET /top-customers?startDate&endDate
func (s *Service) HandleTopCustomers(c *gin.Context) {
	q, ok := bindWindow(c)
	if !ok {
		return
	}
	rows, err := s.TopCustomers(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// HandleRegionStats handles GET /region-stats?startDate&endDate
func (s *Service) HandleRegionStats(c *gin.Context) {
	q, ok := bindWindow(c)
	if !ok {
		return
	}
	rows, err := s.RegionStats(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// HandleSnapshot handles GET /snapshot?startDate[&endDate]
func (s *Service) HandleSnapshot(c *gin.Context) {
	q, ok := bindWindow(c)
	if !ok {
		return
	}
	snap, err := s.Snapshot(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// HandleLive handles GET /live
func (s *Service) HandleLive(c *gin.Context) {
	snap, ok := s.Live()
	if !ok {
		c.JSON(http.StatusServiceUnavailable, httperr.ErrorResponse{
			ErrorType: httperr.HttpStoreUnavailableError,
			Message:   "Live aggregates are not enabled",
		})
		return
	}
	c.JSON(http.StatusOK, snap)
}

func bindWindow(c *gin.Context) (WindowQuery, bool) {
	var q WindowQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidWindowError,
			Message:   "Invalid query parameters",
			Details:   err.Error(),
		})
		return q, false
	}
	return q, true
}

func respondError(c *gin.Context, err error) {
	status, body := httperr.Response(err)
	c.JSON(status, body)
}
