package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"estate/server/internal/models"
)

func (h *Handler) ListPropertyTypes(c *gin.Context) {
	types, err := h.engine.ListPropertyTypes(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "Failed to get property types")
		return
	}

	c.JSON(http.StatusOK, types)
}

func (h *Handler) GetPropertyType(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	t, err := h.engine.GetPropertyType(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Failed to get property type")
		return
	}

	c.JSON(http.StatusOK, t)
}

func (h *Handler) CreatePropertyType(c *gin.Context) {
	var req propertyTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	t, err := h.engine.CreatePropertyType(c.Request.Context(), req.Name, req.Sequence)
	if err != nil {
		h.respondError(c, err, "Failed to create property type")
		return
	}

	c.JSON(http.StatusCreated, t)
}

// DeletePropertyType cancels the type's properties before removing it.
func (h *Handler) DeletePropertyType(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.engine.DeletePropertyType(c.Request.Context(), id); err != nil {
		h.respondError(c, err, "Failed to delete property type")
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) ListTypeProperties(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	properties, err := h.engine.TypeProperties(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Failed to get properties")
		return
	}

	c.JSON(http.StatusOK, properties)
}

func (h *Handler) ListTags(c *gin.Context) {
	tags, err := h.engine.ListTags(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "Failed to get tags")
		return
	}

	c.JSON(http.StatusOK, tags)
}

func (h *Handler) CreateTag(c *gin.Context) {
	var req tagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	tag, err := h.engine.CreateTag(c.Request.Context(), req.Name, req.Color)
	if err != nil {
		h.respondError(c, err, "Failed to create tag")
		return
	}

	c.JSON(http.StatusCreated, tag)
}

func (h *Handler) DeleteTag(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.engine.DeleteTag(c.Request.Context(), id); err != nil {
		h.respondError(c, err, "Failed to delete tag")
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) ListPartners(c *gin.Context) {
	partners, err := h.engine.ListPartners(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "Failed to get partners")
		return
	}

	c.JSON(http.StatusOK, partners)
}

func (h *Handler) CreatePartner(c *gin.Context) {
	var req partnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	partner, err := h.engine.CreatePartner(c.Request.Context(), &models.Partner{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	})
	if err != nil {
		h.respondError(c, err, "Failed to create partner")
		return
	}

	c.JSON(http.StatusCreated, partner)
}
