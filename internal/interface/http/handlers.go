package http

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rehab-hub/rehab-adherence/internal/application/command"
	"github.com/rehab-hub/rehab-adherence/internal/application/query"
	"github.com/rehab-hub/rehab-adherence/internal/domain/progress"
)

// ══════════════════════════════════════════════════════════════════════════════
// SCHEDULE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type createScheduleRequest struct {
	VideoID       string `json:"videoId" binding:"required"`
	ScheduledDate string `json:"scheduledDate" binding:"required"`
	UserID        string `json:"userId"`
}

// handleListSchedules handles GET /api/schedules
func (s *Server) handleListSchedules(c *gin.Context) {
	caller, _ := callerFrom(c)
	from, ok := dateQuery(c, false, "from", "startDate")
	if !ok {
		return
	}
	to, ok := dateQuery(c, true, "to", "endDate")
	if !ok {
		return
	}
	completed, ok := boolQuery(c, "completed")
	if !ok {
		return
	}

	items, err := s.deps.ListSchedules.Handle(c.Request.Context(), query.ListSchedulesQuery{
		Caller:    caller,
		From:      from,
		To:        to,
		Completed: completed,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// handleGetSchedule handles GET /api/schedules/:id
func (s *Server) handleGetSchedule(c *gin.Context) {
	caller, _ := callerFrom(c)
	sch, err := s.deps.GetSchedule.Handle(c.Request.Context(), query.GetScheduleQuery{
		Caller:     caller,
		ScheduleID: c.Param("id"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sch)
}

// handleCreateSchedule handles POST /api/schedules
func (s *Server) handleCreateSchedule(c *gin.Context) {
	caller, _ := callerFrom(c)
	var req createScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "videoId and scheduledDate are required")
		return
	}
	at, err := parseBodyDate(req.ScheduledDate)
	if err != nil {
		badRequest(c, "scheduledDate must be a date (YYYY-MM-DD) or RFC3339 timestamp")
		return
	}

	sch, err := s.deps.CreateSchedule.Handle(c.Request.Context(), command.CreateScheduleCommand{
		Caller:        caller,
		VideoID:       req.VideoID,
		ScheduledDate: at,
		TargetUserID:  req.UserID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sch)
}

// handleCompleteSchedule handles PUT /api/schedules/:id/complete
func (s *Server) handleCompleteSchedule(c *gin.Context) {
	caller, _ := callerFrom(c)
	res, err := s.deps.CompleteSchedule.Handle(c.Request.Context(), command.CompleteScheduleCommand{
		Caller:     caller,
		ScheduleID: c.Param("id"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// handleDeleteSchedule handles DELETE /api/schedules/:id
func (s *Server) handleDeleteSchedule(c *gin.Context) {
	caller, _ := callerFrom(c)
	err := s.deps.DeleteSchedule.Handle(c.Request.Context(), command.DeleteScheduleCommand{
		Caller:     caller,
		ScheduleID: c.Param("id"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "schedule deleted"})
}

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type recordProgressRequest struct {
	VideoID        string  `json:"videoId" binding:"required"`
	CompletionDate string  `json:"completionDate"`
	Rating         *int    `json:"rating"`
	Notes          *string `json:"notes"`
}

// amendProgressRequest keeps Rating raw so an explicit null can clear it.
type amendProgressRequest struct {
	Notes  *string         `json:"notes"`
	Rating json.RawMessage `json:"rating"`
}

type progressListResponse struct {
	Progress   []*progress.Entry `json:"progress"`
	Pagination Pagination        `json:"pagination"`
}

func toListResponse(p *query.ProgressPage) progressListResponse {
	return progressListResponse{
		Progress: p.Items,
		Pagination: Pagination{
			Page:       p.Page,
			Limit:      p.Limit,
			Total:      p.Total,
			TotalPages: p.TotalPages,
		},
	}
}

// handleListProgress handles GET /api/progress
func (s *Server) handleListProgress(c *gin.Context) {
	caller, _ := callerFrom(c)
	from, ok := dateQuery(c, false, "from", "startDate")
	if !ok {
		return
	}
	to, ok := dateQuery(c, true, "to", "endDate")
	if !ok {
		return
	}
	page, ok := intQuery(c, "page")
	if !ok {
		return
	}
	limit, ok := intQuery(c, "limit")
	if !ok {
		return
	}

	res, err := s.deps.ListProgress.Handle(c.Request.Context(), query.ListProgressQuery{
		Caller:  caller,
		VideoID: firstQuery(c, "videoId"),
		From:    from,
		To:      to,
		Page:    page,
		Limit:   limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toListResponse(res))
}

// handleListAllProgress handles GET /api/admin/progress
func (s *Server) handleListAllProgress(c *gin.Context) {
	caller, _ := callerFrom(c)
	page, ok := intQuery(c, "page")
	if !ok {
		return
	}
	limit, ok := intQuery(c, "limit")
	if !ok {
		return
	}

	res, err := s.deps.ListProgress.HandleAll(c.Request.Context(), query.ListAllProgressQuery{
		Caller: caller,
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toListResponse(res))
}

// handleRecordProgress handles POST /api/progress
func (s *Server) handleRecordProgress(c *gin.Context) {
	caller, _ := callerFrom(c)
	var req recordProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "videoId is required")
		return
	}
	at, err := parseBodyDate(req.CompletionDate)
	if err != nil {
		badRequest(c, "completionDate must be a date (YYYY-MM-DD) or RFC3339 timestamp")
		return
	}

	entry, err := s.deps.RecordProgress.Handle(c.Request.Context(), command.RecordProgressCommand{
		Caller:         caller,
		VideoID:        req.VideoID,
		CompletionDate: at,
		Rating:         req.Rating,
		Notes:          req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// handleAmendProgress handles PUT /api/progress/:id
func (s *Server) handleAmendProgress(c *gin.Context) {
	caller, _ := callerFrom(c)
	var req amendProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "body must be a JSON object")
		return
	}

	amendment := progress.Amendment{Notes: req.Notes}
	switch raw := string(req.Rating); raw {
	case "":
	case "null":
		amendment.ClearRating = true
	default:
		var rating int
		if err := json.Unmarshal(req.Rating, &rating); err != nil {
			badRequest(c, "rating must be an integer or null")
			return
		}
		amendment.Rating = &rating
	}

	entry, err := s.deps.AmendProgress.Handle(c.Request.Context(), command.AmendProgressCommand{
		Caller:     caller,
		ProgressID: c.Param("id"),
		Amendment:  amendment,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// handleProgressStats handles GET /api/progress/stats
func (s *Server) handleProgressStats(c *gin.Context) {
	caller, _ := callerFrom(c)
	summary, err := s.deps.GetSummary.Handle(c.Request.Context(), query.GetSummaryQuery{
		Caller: caller,
		UserID: firstQuery(c, "userId"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
