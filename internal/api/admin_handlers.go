package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"merchant-onboarding/internal/admin"
	"merchant-onboarding/internal/agent"
	"merchant-onboarding/internal/onboarding"
	"merchant-onboarding/internal/store"
)

const dateLayout = "2006-01-02"

type bulkUpdateRequest struct {
	IDs []string `json:"ids" binding:"required,min=1"`
	store.ContractPatch
}

type bulkDeleteRequest struct {
	IDs []string `json:"ids" binding:"required,min=1"`
}

// filterFromQuery reads the contract filter. Dates are YYYY-MM-DD; "to" is
// inclusive of the whole day.
func filterFromQuery(c *gin.Context) (admin.Filter, error) {
	f := admin.Filter{
		Status:      onboarding.ContractStatus(c.Query("status")),
		Type:        c.Query("type"),
		Salesperson: c.Query("salesperson"),
		Search:      c.Query("search"),
	}
	if f.Status != "" && !f.Status.Valid() {
		return f, fmt.Errorf("unknown status %q", f.Status)
	}
	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse(dateLayout, raw)
		if err != nil {
			return f, fmt.Errorf("invalid from date: %w", err)
		}
		f.From = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.Parse(dateLayout, raw)
		if err != nil {
			return f, fmt.Errorf("invalid to date: %w", err)
		}
		to = to.AddDate(0, 0, 1)
		f.To = &to
	}
	return f, nil
}

// GET /api/admin/contracts
func (s *Server) handleListContracts(c *gin.Context) {
	f, err := filterFromQuery(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	rows, err := s.admin.ListContracts(c.Request.Context(), f)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contracts": rows, "count": len(rows)})
}

// GET /api/admin/dashboard
func (s *Server) handleDashboard(c *gin.Context) {
	d, err := s.admin.Dashboard(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// POST /api/admin/contracts/bulk-update
func (s *Server) handleBulkUpdate(c *gin.Context) {
	var req bulkUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	n, err := s.admin.BulkUpdate(c.Request.Context(), req.IDs, req.ContractPatch)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}

// POST /api/admin/contracts/bulk-delete
func (s *Server) handleBulkDelete(c *gin.Context) {
	var req bulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	n, err := s.admin.BulkDelete(c.Request.Context(), req.IDs)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}

// GET /api/admin/notifications?unread=true&limit=20
func (s *Server) handleListNotifications(c *gin.Context) {
	unreadOnly, _ := strconv.ParseBool(c.Query("unread"))
	limit, _ := strconv.Atoi(c.Query("limit"))

	list, err := s.admin.Notifications(c.Request.Context(), unreadOnly, limit)
	if err != nil {
		fail(c, err)
		return
	}
	unread, err := s.admin.UnreadCount(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	if list == nil {
		list = []store.Notification{}
	}
	c.JSON(http.StatusOK, gin.H{"notifications": list, "unread": unread})
}

// POST /api/admin/notifications/:id/read
func (s *Server) handleMarkRead(c *gin.Context) {
	if err := s.admin.MarkRead(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/admin/notifications/read-all
func (s *Server) handleMarkAllRead(c *gin.Context) {
	if err := s.admin.MarkAllRead(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/admin/translations?locale=sk
func (s *Server) handleListTranslations(c *gin.Context) {
	list, err := s.admin.Translations(c.Request.Context(), c.DefaultQuery("locale", "sk"))
	if err != nil {
		fail(c, err)
		return
	}
	if list == nil {
		list = []store.Translation{}
	}
	c.JSON(http.StatusOK, list)
}

// PUT /api/admin/translations
func (s *Server) handleSaveTranslation(c *gin.Context) {
	var t store.Translation
	if err := c.ShouldBindJSON(&t); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.admin.SaveTranslation(c.Request.Context(), &t); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// DELETE /api/admin/translations?locale=sk&key=steps.fees
func (s *Server) handleDeleteTranslation(c *gin.Context) {
	if err := s.admin.DeleteTranslation(c.Request.Context(), c.Query("locale"), c.Query("key")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/admin/translations/suggest
func (s *Server) handleSuggestTranslation(c *gin.Context) {
	var req agent.SuggestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sug, err := s.admin.Suggest(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sug)
}
