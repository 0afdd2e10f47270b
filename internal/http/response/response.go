package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/survey-backend/internal/platform/apierr"
)

type ErrorEnvelope struct {
	Error string `json:"error"`
}

// RespondError writes the public message of err. Non-apierr errors become a generic 500.
func RespondError(c *gin.Context, err error) {
	ae := apierr.From(err)
	c.AbortWithStatusJSON(ae.Status, ErrorEnvelope{Error: ae.PublicMessage()})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
