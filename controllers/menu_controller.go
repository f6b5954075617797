package controllers

import (
	"smartorder/pkg/resp"
	"smartorder/services"

	"github.com/gin-gonic/gin"
)

type MenuController struct{ Svc *services.MenuService }

func NewMenuController(s *services.MenuService) *MenuController { return &MenuController{Svc: s} }

// GET /menu?category=
func (h *MenuController) List(c *gin.Context) {
	items, err := h.Svc.List(c.Request.Context(), c.Query("category"))
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, items)
}

// GET /menu/:id
func (h *MenuController) Get(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		resp.BadRequest(c, "invalid id")
		return
	}
	m, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, m)
}
