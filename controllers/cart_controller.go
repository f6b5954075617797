package controllers

import (
	"smartorder/pkg/resp"
	"smartorder/services"
	"smartorder/utils"

	"github.com/gin-gonic/gin"
)

type CartController struct{ Svc *services.CartService }

func NewCartController(s *services.CartService) *CartController { return &CartController{Svc: s} }

// GET /cart
func (h *CartController) Get(c *gin.Context) {
	v, err := h.Svc.Get(c.Request.Context(), utils.CurrentUserID(c))
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, v)
}

// PUT /cart replaces every item
func (h *CartController) Save(c *gin.Context) {
	var req services.SaveCartReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	v, err := h.Svc.Save(c.Request.Context(), utils.CurrentUserID(c), &req)
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, v)
}

// DELETE /cart
func (h *CartController) Clear(c *gin.Context) {
	if err := h.Svc.Clear(c.Request.Context(), utils.CurrentUserID(c)); err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, gin.H{"cleared": true})
}

// DELETE /admin/carts/:userId
func (h *CartController) ClearForUser(c *gin.Context) {
	uid, ok := uintParam(c, "userId")
	if !ok {
		resp.BadRequest(c, "invalid user id")
		return
	}
	if err := h.Svc.Clear(c.Request.Context(), uid); err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, gin.H{"cleared": true, "userId": uid})
}
