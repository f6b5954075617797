package services

import (
	"context"
	"strings"
	"time"

	"smartorder/pkg/lifecycle"
	"smartorder/repository"
)

const (
	defaultReportDays = 7
	maxReportDays     = 366
	topItemsLimit     = 5
)

// ReportService builds the admin analytics and dashboard views. Buckets are
// computed in Go so the result does not depend on the database's date functions.
type ReportService struct {
	repo     *repository.ReportRepository
	users    *repository.UserRepository
	feedback *repository.FeedbackRepository
	timezone string
	now      func() time.Time
}

func NewReportService(repo *repository.ReportRepository, users *repository.UserRepository, feedback *repository.FeedbackRepository, timezone string) *ReportService {
	return &ReportService{repo: repo, users: users, feedback: feedback, timezone: timezone, now: time.Now}
}

type RevenueBucket struct {
	Start   string  `json:"start"`
	Orders  int     `json:"orders"`
	Revenue float64 `json:"revenue"`
}

type HourBucket struct {
	Hour    int     `json:"hour"`
	Orders  int     `json:"orders"`
	Revenue float64 `json:"revenue"`
}

type Analytics struct {
	Timezone  string               `json:"timezone"`
	Days      int                  `json:"days"`
	From      time.Time            `json:"from"`
	Orders    int                  `json:"orders"`
	Revenue   float64              `json:"revenue"`
	Daily     []RevenueBucket      `json:"daily"`
	Weekly    []RevenueBucket      `json:"weekly"`
	PeakHours []HourBucket         `json:"peakHours"`
	TopItems  []repository.TopItem `json:"topItems"`
}

type Dashboard struct {
	Users              int64   `json:"users"`
	OrdersToday        int64   `json:"ordersToday"`
	ActiveOrders       int64   `json:"activeOrders"`
	UnansweredFeedback int64   `json:"unansweredFeedback"`
	FeedbackCount      int64   `json:"feedbackCount"`
	AverageRating      float64 `json:"averageRating"`
}

var closedStatuses = []string{lifecycle.StatusCompleted, lifecycle.StatusDelivered, lifecycle.StatusCancelled}

func (s *ReportService) location(tz string) (*time.Location, error) {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		tz = s.timezone
	}
	if tz == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, validationError("unknown timezone %q", tz)
	}
	return loc, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// startOfWeek returns the Monday at or before t.
func startOfWeek(t time.Time) time.Time {
	day := startOfDay(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// Analytics covers the last days calendar days (today included) in tz.
// Cancelled orders are left out of every figure.
func (s *ReportService) Analytics(ctx context.Context, days int, tz string) (*Analytics, error) {
	if days <= 0 {
		days = defaultReportDays
	}
	if days > maxReportDays {
		return nil, validationError("days must be at most %d", maxReportDays)
	}
	loc, err := s.location(tz)
	if err != nil {
		return nil, err
	}

	from := startOfDay(s.now().In(loc)).AddDate(0, 0, -(days - 1))
	exclude := []string{lifecycle.StatusCancelled}

	rows, err := s.repo.RevenueSince(ctx, from.UTC(), exclude)
	if err != nil {
		return nil, err
	}
	top, err := s.repo.TopItems(ctx, from.UTC(), exclude, topItemsLimit)
	if err != nil {
		return nil, err
	}
	if top == nil {
		top = []repository.TopItem{}
	}

	a := bucketRevenue(rows, from, days)
	a.Timezone = loc.String()
	a.TopItems = top
	return a, nil
}

// bucketRevenue groups rows by local day, Monday-based week and hour of day.
// from must be local midnight in the reporting location.
func bucketRevenue(rows []repository.RevenueRow, from time.Time, days int) *Analytics {
	loc := from.Location()
	a := &Analytics{Days: days, From: from}

	dayIdx := make(map[string]int, days)
	weekIdx := map[string]int{}
	for i := 0; i < days; i++ {
		d := from.AddDate(0, 0, i)
		key := d.Format(time.DateOnly)
		dayIdx[key] = len(a.Daily)
		a.Daily = append(a.Daily, RevenueBucket{Start: key})

		wk := startOfWeek(d).Format(time.DateOnly)
		if _, ok := weekIdx[wk]; !ok {
			weekIdx[wk] = len(a.Weekly)
			a.Weekly = append(a.Weekly, RevenueBucket{Start: wk})
		}
	}
	a.PeakHours = make([]HourBucket, 24)
	for h := range a.PeakHours {
		a.PeakHours[h].Hour = h
	}

	for _, r := range rows {
		t := r.CreatedAt.In(loc)
		i, ok := dayIdx[t.Format(time.DateOnly)]
		if !ok {
			continue
		}
		a.Daily[i].Orders++
		a.Daily[i].Revenue += r.Total

		w := weekIdx[startOfWeek(t).Format(time.DateOnly)]
		a.Weekly[w].Orders++
		a.Weekly[w].Revenue += r.Total

		a.PeakHours[t.Hour()].Orders++
		a.PeakHours[t.Hour()].Revenue += r.Total

		a.Orders++
		a.Revenue += r.Total
	}
	return a
}

func (s *ReportService) Dashboard(ctx context.Context) (*Dashboard, error) {
	loc, err := s.location("")
	if err != nil {
		return nil, err
	}
	var d Dashboard
	if d.Users, err = s.users.Count(ctx); err != nil {
		return nil, err
	}
	today := startOfDay(s.now().In(loc)).UTC()
	if d.OrdersToday, err = s.repo.CountOrdersSince(ctx, today); err != nil {
		return nil, err
	}
	if d.ActiveOrders, err = s.repo.CountOpenOrders(ctx, closedStatuses); err != nil {
		return nil, err
	}
	if d.UnansweredFeedback, err = s.repo.CountUnansweredFeedback(ctx); err != nil {
		return nil, err
	}
	if d.AverageRating, d.FeedbackCount, err = s.feedback.AverageRating(ctx); err != nil {
		return nil, err
	}
	return &d, nil
}
