package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"smartorder/entity"
	"smartorder/repository"

	"gorm.io/gorm"
)

type MenuService struct {
	Repo *repository.MenuRepository
}

func NewMenuService(repo *repository.MenuRepository) *MenuService {
	return &MenuService{Repo: repo}
}

func (s *MenuService) List(ctx context.Context, category string) ([]entity.MenuItem, error) {
	return s.Repo.FindAll(ctx, strings.TrimSpace(category))
}

func (s *MenuService) Get(ctx context.Context, id uint) (*entity.MenuItem, error) {
	m, err := s.Repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("menu item %d: %w", id, ErrNotFound)
	}
	return m, err
}
