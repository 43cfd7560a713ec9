package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mamadbah2/stones/internal/service/addstone"
	"github.com/mamadbah2/stones/internal/service/forms"
	"github.com/mamadbah2/stones/pkg/clients/stones"
)

// upstreamStatus maps a stones backend failure to the status this service answers with.
// A backend 404 stays a 404; everything else is a bad gateway.
func upstreamStatus(err error) int {
	if status, ok := stones.StatusCode(err); ok && status == http.StatusNotFound {
		return http.StatusNotFound
	}
	return http.StatusBadGateway
}

// formStatus maps controller and registry errors to HTTP statuses.
func formStatus(err error) int {
	var verr *addstone.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, forms.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, addstone.ErrClosed):
		return http.StatusGone
	case errors.Is(err, addstone.ErrSubmitInFlight), errors.Is(err, addstone.ErrAlreadySubmitted):
		return http.StatusConflict
	default:
		return upstreamStatus(err)
	}
}

func errorResponse(c *gin.Context, status int, message any) {
	c.JSON(status, gin.H{"error": message})
}
