package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rehab-hub/rehab-adherence/internal/application/query"
)

// ══════════════════════════════════════════════════════════════════════════════
// STATS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleOverview handles GET /api/stats/overview
func (s *Server) handleOverview(c *gin.Context) {
	caller, _ := callerFrom(c)
	o, err := s.deps.Analytics.Overview(c.Request.Context(), query.OverviewQuery{Caller: caller})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// handleActiveUsers handles GET /api/stats/active-users
func (s *Server) handleActiveUsers(c *gin.Context) {
	caller, _ := callerFrom(c)
	days, ok := intQuery(c, "period", "days")
	if !ok {
		return
	}
	report, err := s.deps.Analytics.ActiveUsers(c.Request.Context(), query.ActiveUsersQuery{Caller: caller, Days: days})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// handleTopVideos handles GET /api/stats/videos
func (s *Server) handleTopVideos(c *gin.Context) {
	caller, _ := callerFrom(c)
	limit, ok := intQuery(c, "limit")
	if !ok {
		return
	}
	rows, err := s.deps.Analytics.TopVideos(c.Request.Context(), query.TopVideosQuery{Caller: caller, Limit: limit})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"top_videos": rows})
}

// handleEngagement handles GET /api/stats/engagement
func (s *Server) handleEngagement(c *gin.Context) {
	caller, _ := callerFrom(c)
	days, ok := intQuery(c, "days")
	if !ok {
		return
	}
	rows, err := s.deps.Analytics.Engagement(c.Request.Context(), query.EngagementQuery{Caller: caller, Days: days})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": rows})
}

// handleCategories handles GET /api/stats/categories
func (s *Server) handleCategories(c *gin.Context) {
	caller, _ := callerFrom(c)
	rows, err := s.deps.Analytics.CategoryTotals(c.Request.Context(), query.CategoryTotalsQuery{Caller: caller})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": rows})
}

// handleHospitals handles GET /api/stats/hospitals
func (s *Server) handleHospitals(c *gin.Context) {
	caller, _ := callerFrom(c)
	rows, err := s.deps.Analytics.HospitalBreakdown(c.Request.Context(), query.HospitalBreakdownQuery{Caller: caller})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hospitals": rows})
}
