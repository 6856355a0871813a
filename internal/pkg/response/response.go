package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type errBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

func Error(c *gin.Context, status int, code string, message string) {
	c.AbortWithStatusJSON(status, errBody{Code: code, Message: message})
}
