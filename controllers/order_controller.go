package controllers

import (
	"smartorder/pkg/resp"
	"smartorder/services"
	"smartorder/utils"

	"github.com/gin-gonic/gin"
)

type OrderController struct{ Svc *services.OrderService }

func NewOrderController(s *services.OrderService) *OrderController { return &OrderController{Svc: s} }

// POST /orders (guest or authenticated)
func (oc *OrderController) Create(c *gin.Context) {
	var req services.CreateOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	o, err := oc.Svc.Create(c.Request.Context(), identity(c), &req)
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.Created(c, o)
}

// GET /orders/:id
func (oc *OrderController) Get(c *gin.Context) {
	o, err := oc.Svc.Get(c.Request.Context(), identity(c), c.Param("id"))
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, o)
}

// GET /orders/:id/history
func (oc *OrderController) History(c *gin.Context) {
	logs, err := oc.Svc.History(c.Request.Context(), identity(c), c.Param("id"))
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, logs)
}

// GET /profile/orders
func (oc *OrderController) ListMine(c *gin.Context) {
	out, err := oc.Svc.ListForUser(c.Request.Context(), utils.CurrentUserID(c), intQuery(c, "limit", 50))
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, out)
}

type updateStatusReq struct {
	Status string `json:"status"`
}

// PATCH /orders/:id/status (chef, admin)
func (oc *OrderController) UpdateStatus(c *gin.Context) {
	var req updateStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	o, err := oc.Svc.UpdateStatus(c.Request.Context(), identity(c), c.Param("id"), req.Status)
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, gin.H{"id": o.ID, "status": o.Status, "updatedAt": o.UpdatedAt})
}

// GET /kitchen/orders?status=
func (oc *OrderController) Kitchen(c *gin.Context) {
	out, err := oc.Svc.ListActive(c.Request.Context(), c.Query("status"))
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, out)
}
