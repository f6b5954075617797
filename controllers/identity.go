package controllers

import (
	"strconv"

	"smartorder/services"
	"smartorder/utils"

	"github.com/gin-gonic/gin"
)

func identity(c *gin.Context) services.Identity {
	return services.Identity{UserID: utils.CurrentUser(c), Role: utils.CurrentRole(c)}
}

func uintParam(c *gin.Context, name string) (uint, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

func intQuery(c *gin.Context, name string, def int) int {
	n, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return def
	}
	return n
}
