package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"estate/server/internal/models"
	"estate/server/internal/workflow"
)

func (h *Handler) ListProperties(c *gin.Context) {
	filter := models.PropertyFilter{
		State:          models.PropertyState(c.Query("state")),
		PostcodePrefix: c.Query("postcode"),
	}
	if filter.State != "" && !filter.State.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid state"})
		return
	}
	if raw := c.Query("type_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid type_id"})
			return
		}
		filter.PropertyTypeID = &id
	}
	if raw := c.Query("include_inactive"); raw != "" {
		include, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid include_inactive"})
			return
		}
		filter.IncludeInactive = include
	}

	properties, err := h.engine.ListProperties(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err, "Failed to get properties")
		return
	}

	c.JSON(http.StatusOK, properties)
}

func (h *Handler) GetProperty(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	property, err := h.engine.GetProperty(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Failed to get property")
		return
	}

	c.JSON(http.StatusOK, property)
}

func (h *Handler) CreateProperty(c *gin.Context) {
	var req propertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	fields, err := req.fields()
	if err != nil {
		h.respondError(c, err, "Failed to create property")
		return
	}

	result, err := h.engine.CreateProperty(c.Request.Context(), fields)
	if err != nil {
		h.respondError(c, err, "Failed to create property")
		return
	}

	c.JSON(http.StatusCreated, withWarnings(result))
}

func (h *Handler) UpdateProperty(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req propertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	fields, err := req.fields()
	if err != nil {
		h.respondError(c, err, "Failed to update property")
		return
	}

	result, err := h.engine.UpdateProperty(c.Request.Context(), id, fields)
	if err != nil {
		h.respondError(c, err, "Failed to update property")
		return
	}

	c.JSON(http.StatusOK, withWarnings(result))
}

func (h *Handler) DeleteProperty(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.engine.DeleteProperty(c.Request.Context(), id); err != nil {
		h.respondError(c, err, "Failed to delete property")
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) MarkPropertySold(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	property, err := h.engine.ActionSold(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Failed to mark property as sold")
		return
	}

	c.JSON(http.StatusOK, property)
}

func (h *Handler) CancelProperty(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	property, err := h.engine.ActionCancel(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Failed to cancel property")
		return
	}

	c.JSON(http.StatusOK, property)
}

// PropertyOnchange returns the values proposed for a draft being edited.
// Nothing is stored.
func (h *Handler) PropertyOnchange(c *gin.Context) {
	var req onchangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	fields, err := req.Values.fields()
	if err != nil {
		h.respondError(c, err, "Failed to compute proposals")
		return
	}

	proposed, warnings := h.engine.Onchange(fields, req.Changed)
	if warnings == nil {
		warnings = []models.Warning{}
	}
	c.JSON(http.StatusOK, gin.H{"values": proposed, "warnings": warnings})
}

func withWarnings(result *workflow.PropertyResult) *workflow.PropertyResult {
	if result.Warnings == nil {
		result.Warnings = []models.Warning{}
	}
	return result
}
