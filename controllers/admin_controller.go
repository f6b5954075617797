package controllers

import (
	"smartorder/pkg/resp"
	"smartorder/services"

	"github.com/gin-gonic/gin"
)

type AdminController struct {
	Reports *services.ReportService
}

func NewAdminController(r *services.ReportService) *AdminController {
	return &AdminController{Reports: r}
}

// GET /admin/analytics?days=7&tz=Asia/Karachi
func (h *AdminController) Analytics(c *gin.Context) {
	a, err := h.Reports.Analytics(c.Request.Context(), intQuery(c, "days", 7), c.Query("tz"))
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, a)
}

// GET /admin/dashboard
func (h *AdminController) Dashboard(c *gin.Context) {
	d, err := h.Reports.Dashboard(c.Request.Context())
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, d)
}
