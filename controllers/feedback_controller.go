package controllers

import (
	"smartorder/pkg/resp"
	"smartorder/repository"
	"smartorder/services"

	"github.com/gin-gonic/gin"
)

type FeedbackController struct{ Svc *services.FeedbackService }

func NewFeedbackController(s *services.FeedbackService) *FeedbackController {
	return &FeedbackController{Svc: s}
}

// POST /feedback
func (h *FeedbackController) Create(c *gin.Context) {
	var req services.CreateFeedbackReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	f, err := h.Svc.Create(c.Request.Context(), identity(c), &req)
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.Created(c, f)
}

// GET /feedback/exists?orderId=
func (h *FeedbackController) Exists(c *gin.Context) {
	ok, err := h.Svc.Exists(c.Request.Context(), identity(c), c.Query("orderId"))
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, gin.H{"exists": ok})
}

// GET /feedback/eligibility/:orderId
func (h *FeedbackController) Eligibility(c *gin.Context) {
	d, err := h.Svc.Eligibility(c.Request.Context(), identity(c), c.Param("orderId"))
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, d)
}

// GET /admin/feedback?unanswered=true&limit=&offset=
func (h *FeedbackController) List(c *gin.Context) {
	items, total, err := h.Svc.List(c.Request.Context(), repository.FeedbackFilter{
		Unanswered: c.Query("unanswered") == "true",
		Limit:      intQuery(c, "limit", 20),
		Offset:     intQuery(c, "offset", 0),
	})
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, gin.H{"items": items, "total": total})
}

// PATCH /admin/feedback/:id/response
func (h *FeedbackController) Respond(c *gin.Context) {
	var req services.RespondReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	f, err := h.Svc.Respond(c.Request.Context(), identity(c), c.Param("id"), req.Response)
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, f)
}
