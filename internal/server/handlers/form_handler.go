package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/stones/internal/domain/models"
	"github.com/mamadbah2/stones/internal/service/addstone"
	"github.com/mamadbah2/stones/internal/service/forms"
)

// FormHandler exposes add-stone form sessions over HTTP.
type FormHandler struct {
	registry *forms.Registry
	logger   *zap.Logger
}

// NewFormHandler constructs the HTTP handler adapter.
func NewFormHandler(registry *forms.Registry, logger *zap.Logger) *FormHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FormHandler{registry: registry, logger: logger}
}

type setFieldRequest struct {
	Name  string `json:"name" binding:"required"`
	Value string `json:"value"`
}

// Open starts a new form with default values.
func (h *FormHandler) Open(c *gin.Context) {
	session := h.registry.Open()
	c.JSON(http.StatusCreated, gin.H{"id": session.ID, "form": session.Controller.View()})
}

// Show returns the current form view.
func (h *FormHandler) Show(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"form": session.Controller.View()})
}

// SetField changes one field value.
func (h *FormHandler) SetField(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var req setFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := session.Controller.SetField(req.Name, req.Value); err != nil {
		if errors.Is(err, models.ErrUnknownField) {
			errorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
		errorResponse(c, formStatus(err), err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"form": session.Controller.View()})
}

// Submit sends the form to the stones backend. The backend call is not tied to
// the HTTP request: a client that disconnects does not abort the save.
func (h *FormHandler) Submit(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	stone, err := session.Controller.Submit(context.WithoutCancel(c.Request.Context()))
	view := session.Controller.View()
	if err != nil {
		var verr *addstone.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": verr.Fields, "form": view})
			return
		}

		status := formStatus(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("add stone failed", zap.String("form_id", session.ID), zap.Error(err))
		}
		c.JSON(status, gin.H{"error": err.Error(), "form": view})
		return
	}

	c.JSON(http.StatusOK, gin.H{"stone": stone, "form": view})
}

// Reset clears the form back to its defaults.
func (h *FormHandler) Reset(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	if err := session.Controller.Reset(); err != nil {
		errorResponse(c, formStatus(err), err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"form": session.Controller.View()})
}

// Cancel leaves the form without saving.
func (h *FormHandler) Cancel(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	if err := session.Controller.Cancel(); err != nil {
		errorResponse(c, formStatus(err), err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"form": session.Controller.View()})
}

// Close tears the form down and forgets it.
func (h *FormHandler) Close(c *gin.Context) {
	if err := h.registry.Close(c.Param("id")); err != nil {
		errorResponse(c, formStatus(err), err.Error())
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *FormHandler) session(c *gin.Context) (*forms.Session, bool) {
	session, err := h.registry.Get(c.Param("id"))
	if err != nil {
		errorResponse(c, formStatus(err), err.Error())
		return nil, false
	}
	return session, true
}
