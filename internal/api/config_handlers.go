package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"merchant-onboarding/internal/admin"
	"merchant-onboarding/internal/onboarding"
	"merchant-onboarding/internal/registry"
)

type reorderRequest struct {
	ConfigurationID string   `json:"configurationId"`
	IDs             []string `json:"ids" binding:"required,min=1"`
}

// GET /api/config/steps
func (s *Server) handleListSteps(c *gin.Context) {
	cfg, steps, err := s.admin.ActiveSteps(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"configuration": cfg, "steps": steps})
}

// PUT /api/config/steps/:id
func (s *Server) handleUpdateStep(c *gin.Context) {
	var u admin.StepUpdate
	if err := c.ShouldBindJSON(&u); err != nil {
		badRequest(c, err)
		return
	}
	step, err := s.admin.UpdateStep(c.Request.Context(), c.Param("id"), u)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, step)
}

// POST /api/config/steps/reorder
func (s *Server) handleReorderSteps(c *gin.Context) {
	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	configID := req.ConfigurationID
	if configID == "" {
		cfg, _, err := s.admin.ActiveSteps(c.Request.Context())
		if err != nil {
			fail(c, err)
			return
		}
		configID = cfg.ID
	}
	if err := s.admin.ReorderSteps(c.Request.Context(), configID, req.IDs); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/config/steps/:id/fields/reorder
func (s *Server) handleReorderFields(c *gin.Context) {
	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.admin.ReorderFields(c.Request.Context(), c.Param("id"), req.IDs); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/config/steps/:id/modules/reorder
func (s *Server) handleReorderModules(c *gin.Context) {
	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.admin.ReorderModules(c.Request.Context(), c.Param("id"), req.IDs); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/config/modules lists the registered modules with their usage
// metadata, and the field types.
func (s *Server) handleListModules(c *gin.Context) {
	modules := s.modules.GetAll()
	usage := make(map[string]registry.ModuleMetadata, len(modules))
	for _, def := range modules {
		if md, ok := s.modules.Metadata(def.Key); ok {
			usage[def.Key] = md
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"modules":    modules,
		"metadata":   usage,
		"categories": s.modules.Categories(),
		"fieldTypes": onboarding.FieldTypes,
	})
}

// POST /api/config/fields
func (s *Server) handleSaveField(c *gin.Context) {
	var f onboarding.OnboardingField
	if err := c.ShouldBindJSON(&f); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.admin.SaveField(c.Request.Context(), &f); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

// DELETE /api/config/fields/:id
func (s *Server) handleDeleteField(c *gin.Context) {
	if err := s.admin.DeleteField(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/config/step-modules
func (s *Server) handleSaveStepModule(c *gin.Context) {
	var m onboarding.StepModule
	if err := c.ShouldBindJSON(&m); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.admin.SaveModule(c.Request.Context(), &m); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// DELETE /api/config/step-modules/:id
func (s *Server) handleDeleteStepModule(c *gin.Context) {
	if err := s.admin.DeleteModule(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
