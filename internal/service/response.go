package service

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gitlab.com/dirk.krummacker/contacts-app/internal/model"
	"gitlab.com/dirk.krummacker/contacts-app/pkg/errorx"
	api "gitlab.com/dirk.krummacker/contacts-app/pkg/model"
)

// statusFor maps an error code to the HTTP status code of the response.
func statusFor(code int) int {
	switch code {
	case errorx.CodeValidation:
		return http.StatusBadRequest
	case errorx.CodeNotFound:
		return http.StatusNotFound
	case errorx.CodeUpload:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// handleError responds with the user-visible message of err. Errors that carry no code are
// logged, since their message is not passed on.
//
// Usage:
//
//	if err != nil {
//	    h.handleError(c, err)
//	    return
//	}
func (h *handler) handleError(c *gin.Context, err error) {
	code := errorx.GetCode(err)
	if code == errorx.CodeServerBusy {
		h.logger.Error("system error",
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
			zap.Error(err),
		)
	}
	c.AbortWithStatusJSON(statusFor(code), api.Message{Message: errorx.Message(err)})
}

// toAPI converts a contact into its HTTP representation.
func toAPI(c model.Contact) api.Contact {
	return api.Contact{
		Id:              c.Id,
		Name:            c.Name,
		Image:           c.Image,
		LastContactDate: c.LastContactDate,
	}
}
