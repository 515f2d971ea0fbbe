package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"estate/server/internal/workflow"
)

func (h *Handler) ListPropertyOffers(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	offers, err := h.engine.ListOffers(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Failed to get offers")
		return
	}

	c.JSON(http.StatusOK, offers)
}

func (h *Handler) CreateOffer(c *gin.Context) {
	propertyID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req offerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	in := workflow.OfferInput{
		PropertyID: propertyID,
		PartnerID:  req.PartnerID,
		Price:      req.Price,
		Validity:   req.Validity,
	}
	if req.DateDeadline != nil {
		deadline, err := parseDate("date_deadline", *req.DateDeadline)
		if err != nil {
			h.respondError(c, err, "Failed to create offer")
			return
		}
		in.Deadline = &deadline
	}

	offer, err := h.engine.CreateOffer(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err, "Failed to create offer")
		return
	}

	c.JSON(http.StatusCreated, offer)
}

func (h *Handler) GetOffer(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	offer, err := h.engine.GetOffer(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Failed to get offer")
		return
	}

	c.JSON(http.StatusOK, offer)
}

func (h *Handler) UpdateOffer(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req offerPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	switch {
	case req.DateDeadline != nil:
		deadline, err := parseDate("date_deadline", *req.DateDeadline)
		if err != nil {
			h.respondError(c, err, "Failed to update offer")
			return
		}
		offer, err := h.engine.SetOfferDeadline(ctx, id, deadline)
		if err != nil {
			h.respondError(c, err, "Failed to update offer")
			return
		}
		c.JSON(http.StatusOK, offer)
	case req.Validity != nil:
		offer, err := h.engine.SetOfferValidity(ctx, id, *req.Validity)
		if err != nil {
			h.respondError(c, err, "Failed to update offer")
			return
		}
		c.JSON(http.StatusOK, offer)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Either validity or date_deadline is required"})
	}
}

func (h *Handler) DeleteOffer(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.engine.DeleteOffer(c.Request.Context(), id); err != nil {
		h.respondError(c, err, "Failed to delete offer")
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) AcceptOffer(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	offer, err := h.engine.AcceptOffer(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Failed to accept offer")
		return
	}

	c.JSON(http.StatusOK, offer)
}

func (h *Handler) RefuseOffer(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	offer, err := h.engine.RefuseOffer(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Failed to refuse offer")
		return
	}

	c.JSON(http.StatusOK, offer)
}
