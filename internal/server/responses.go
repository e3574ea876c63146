package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type linkPayload struct {
	Rel     string `json:"rel"`
	Href    string `json:"href"`
	Method  string `json:"method"`
	Warning string `json:"warning,omitempty"`
}

func selfLink(href string) linkPayload {
	return linkPayload{Rel: "self", Href: href, Method: http.MethodGet}
}

func parseIDParam(requestContext *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(requestContext.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		requestContext.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}
