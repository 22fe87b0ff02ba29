package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"merchant-onboarding/internal/onboarding"
	"merchant-onboarding/internal/submission"
	"merchant-onboarding/internal/wizard"
)

type startSessionRequest struct {
	ContractID string `json:"contractId"`
}

type updateFieldsRequest struct {
	Changes []wizard.FieldChange `json:"changes" binding:"required,min=1,dive"`
}

type navigateRequest struct {
	To *int `json:"to" binding:"required"`
}

type moveRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// POST /api/sessions
func (s *Server) handleStartSession(c *gin.Context) {
	var req startSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	v, err := s.wizard.Start(c.Request.Context(), req.ContractID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, v)
}

// GET /api/sessions/:id
func (s *Server) handleGetSession(c *gin.Context) {
	v, err := s.wizard.Get(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// DELETE /api/sessions/:id
func (s *Server) handleEndSession(c *gin.Context) {
	if err := s.wizard.End(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/sessions/:id/steps/:index
func (s *Server) handleRenderStep(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		badRequest(c, err)
		return
	}
	step, err := s.wizard.RenderStep(c.Param("id"), index)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, step)
}

// PATCH /api/sessions/:id/fields
func (s *Server) handleUpdateFields(c *gin.Context) {
	var req updateFieldsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	respondView(c, func() (*wizard.View, error) { return s.wizard.UpdateFields(c.Param("id"), req.Changes) })
}

// POST /api/sessions/:id/navigate
func (s *Server) handleNavigate(c *gin.Context) {
	var req navigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	respondView(c, func() (*wizard.View, error) { return s.wizard.Navigate(c.Param("id"), *req.To) })
}

// POST /api/sessions/:id/fees
func (s *Server) handleRecalculate(c *gin.Context) {
	f, err := s.wizard.Recalculate(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

// POST /api/sessions/:id/draft
func (s *Server) handleSaveDraft(c *gin.Context) {
	res, err := s.wizard.SaveDraft(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	respondResult(c, res)
}

// POST /api/sessions/:id/submit
func (s *Server) handleSubmit(c *gin.Context) {
	res, err := s.wizard.Submit(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	respondResult(c, res)
}

func (s *Server) handleSetContact(c *gin.Context) {
	var info onboarding.ContactInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		badRequest(c, err)
		return
	}
	respondView(c, func() (*wizard.View, error) { return s.wizard.SetContactInfo(c.Param("id"), info) })
}

func (s *Server) handleSetCompany(c *gin.Context) {
	var info onboarding.CompanyInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		badRequest(c, err)
		return
	}
	respondView(c, func() (*wizard.View, error) { return s.wizard.SetCompanyInfo(c.Param("id"), info) })
}

func (s *Server) handleSetDevices(c *gin.Context) {
	var sel onboarding.DeviceSelection
	if err := c.ShouldBindJSON(&sel); err != nil {
		badRequest(c, err)
		return
	}
	respondView(c, func() (*wizard.View, error) { return s.wizard.SetDeviceSelection(c.Param("id"), sel) })
}

func (s *Server) handleSetConsents(c *gin.Context) {
	var consents onboarding.Consents
	if err := c.ShouldBindJSON(&consents); err != nil {
		badRequest(c, err)
		return
	}
	respondView(c, func() (*wizard.View, error) { return s.wizard.SetConsents(c.Param("id"), consents) })
}

func (s *Server) handleSaveLocation(c *gin.Context) {
	var loc onboarding.BusinessLocation
	if err := c.ShouldBindJSON(&loc); err != nil {
		badRequest(c, err)
		return
	}
	respondView(c, func() (*wizard.View, error) { return s.wizard.SaveLocation(c.Param("id"), loc) })
}

func (s *Server) handleMoveLocation(c *gin.Context) {
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	respondView(c, func() (*wizard.View, error) { return s.wizard.MoveLocation(c.Param("id"), req.From, req.To) })
}

func (s *Server) handleRemoveLocation(c *gin.Context) {
	respondView(c, func() (*wizard.View, error) { return s.wizard.RemoveLocation(c.Param("id"), c.Param("itemId")) })
}

func (s *Server) handleSavePerson(c *gin.Context) {
	var p onboarding.AuthorizedPerson
	if err := c.ShouldBindJSON(&p); err != nil {
		badRequest(c, err)
		return
	}
	respondView(c, func() (*wizard.View, error) { return s.wizard.SavePerson(c.Param("id"), p) })
}

func (s *Server) handleRemovePerson(c *gin.Context) {
	respondView(c, func() (*wizard.View, error) { return s.wizard.RemovePerson(c.Param("id"), c.Param("itemId")) })
}

func (s *Server) handleSaveOwner(c *gin.Context) {
	var o onboarding.ActualOwner
	if err := c.ShouldBindJSON(&o); err != nil {
		badRequest(c, err)
		return
	}
	respondView(c, func() (*wizard.View, error) { return s.wizard.SaveOwner(c.Param("id"), o) })
}

func (s *Server) handleRemoveOwner(c *gin.Context) {
	respondView(c, func() (*wizard.View, error) { return s.wizard.RemoveOwner(c.Param("id"), c.Param("itemId")) })
}

func respondView(c *gin.Context, fn func() (*wizard.View, error)) {
	v, err := fn()
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

type resultResponse struct {
	submission.Result
	Notice onboarding.Notice `json:"notice"`
}

// respondResult answers a submit or draft save. Validation failures are 422,
// persistence failures 500.
func respondResult(c *gin.Context, res submission.Result) {
	status := http.StatusOK
	if !res.Success {
		status = http.StatusInternalServerError
		if res.Section == submission.SectionValidation {
			status = http.StatusUnprocessableEntity
		}
	}
	c.JSON(status, resultResponse{Result: res, Notice: res.Notice(locale(c))})
}
