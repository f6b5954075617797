package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"smartorder/entity"
	"smartorder/pkg/lifecycle"
	"smartorder/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type FeedbackService struct {
	Orders *repository.OrderRepository
	Repo   *repository.FeedbackRepository
	Log    *logrus.Logger
	Now    func() time.Time
}

func NewFeedbackService(orders *repository.OrderRepository, repo *repository.FeedbackRepository, log *logrus.Logger) *FeedbackService {
	return &FeedbackService{Orders: orders, Repo: repo, Log: log, Now: time.Now}
}

type CreateFeedbackReq struct {
	OrderID string   `json:"orderId" binding:"required"`
	Rating  *float64 `json:"rating"`
	Message string   `json:"message"`
}

type RespondReq struct {
	Response string `json:"response" binding:"required"`
}

// Eligibility runs the shared decision for caller and orderID. A caller
// asking about somebody else's order gets ErrForbidden rather than a decision.
func (s *FeedbackService) Eligibility(ctx context.Context, caller Identity, orderID string) (lifecycle.Decision, error) {
	if !caller.Authenticated() {
		return lifecycle.Decision{}, ErrUnauthorized
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return lifecycle.Decision{}, validationError("orderId is required")
	}

	o, err := s.Orders.GetOrder(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return lifecycle.Decide(false, "", false), nil
	}
	if err != nil {
		return lifecycle.Decision{}, err
	}
	if o.UserID != nil && !o.OwnedBy(*caller.UserID) {
		return lifecycle.Decision{}, ErrForbidden
	}

	exists, err := s.Repo.Exists(ctx, *caller.UserID, orderID)
	if err != nil {
		return lifecycle.Decision{}, err
	}
	return lifecycle.Decide(true, o.Status, exists), nil
}

func (s *FeedbackService) Exists(ctx context.Context, caller Identity, orderID string) (bool, error) {
	if !caller.Authenticated() {
		return false, ErrUnauthorized
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return false, validationError("orderId is required")
	}
	return s.Repo.Exists(ctx, *caller.UserID, orderID)
}

// Create re-checks eligibility at submission. Two racing submissions can both
// pass the check; the unique index turns the loser into ErrAlreadySubmitted.
func (s *FeedbackService) Create(ctx context.Context, caller Identity, req *CreateFeedbackReq) (*entity.Feedback, error) {
	if !caller.Authenticated() {
		return nil, ErrUnauthorized
	}
	if err := lifecycle.ValidateRating(req.Rating); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	d, err := s.Eligibility(ctx, caller, req.OrderID)
	if err != nil {
		return nil, err
	}
	if !d.Eligible {
		return nil, d.Err()
	}

	now := s.Now().UTC()
	f := &entity.Feedback{
		ID:        uuid.NewString(),
		OrderID:   strings.TrimSpace(req.OrderID),
		UserID:    caller.UserID,
		Rating:    *req.Rating,
		Message:   strings.TrimSpace(req.Message),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Repo.Create(ctx, f); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, lifecycle.ErrAlreadySubmitted
		}
		return nil, err
	}

	s.Log.WithFields(logrus.Fields{
		"feedback_id": f.ID,
		"order_id":    f.OrderID,
		"user_id":     *caller.UserID,
		"rating":      f.Rating,
	}).Info("feedback recorded")
	return f, nil
}

func (s *FeedbackService) List(ctx context.Context, filter repository.FeedbackFilter) ([]entity.Feedback, int64, error) {
	return s.Repo.List(ctx, filter)
}

// Respond stores the staff reply; a second reply overwrites the first.
func (s *FeedbackService) Respond(ctx context.Context, actor Identity, id, response string) (*entity.Feedback, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	response = strings.TrimSpace(response)
	if response == "" {
		return nil, validationError("response is required")
	}

	n, err := s.Repo.SetResponse(ctx, id, response, s.Now().UTC())
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("feedback %s: %w", id, ErrNotFound)
	}
	return s.Repo.Get(ctx, id)
}
