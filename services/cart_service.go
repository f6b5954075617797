package services

import (
	"context"
	"errors"

	"smartorder/entity"
	"smartorder/repository"

	"gorm.io/gorm"
)

type CartService struct {
	DB       *gorm.DB
	CartRepo *repository.CartRepository
	MenuRepo *repository.MenuRepository
}

func NewCartService(db *gorm.DB, cr *repository.CartRepository, mr *repository.MenuRepository) *CartService {
	return &CartService{DB: db, CartRepo: cr, MenuRepo: mr}
}

type CartItemIn struct {
	ProductID uint `json:"productId" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1"`
}

type SaveCartReq struct {
	Items []CartItemIn `json:"items" binding:"dive"`
}

type CartView struct {
	*entity.Cart
	Subtotal float64 `json:"subtotal"`
}

func view(c *entity.Cart) *CartView {
	var subtotal float64
	for _, it := range c.Items {
		subtotal += it.Price * float64(it.Quantity)
	}
	if c.Items == nil {
		c.Items = []entity.CartItem{}
	}
	return &CartView{Cart: c, Subtotal: subtotal}
}

func (s *CartService) Get(ctx context.Context, userID uint) (*CartView, error) {
	c, err := s.CartRepo.GetCartWithItems(ctx, userID)
	if err != nil {
		return nil, err
	}
	return view(c), nil
}

// Save replaces the cart contents. Name, price and image are snapshotted
// from the menu so later menu edits do not change a saved cart.
func (s *CartService) Save(ctx context.Context, userID uint, req *SaveCartReq) (*CartView, error) {
	items := make([]entity.CartItem, 0, len(req.Items))
	for i, in := range req.Items {
		if in.Quantity < 1 {
			return nil, validationError("items[%d].quantity must be at least 1", i)
		}
		m, err := s.MenuRepo.FindByID(ctx, in.ProductID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, validationError("items[%d]: unknown product %d", i, in.ProductID)
		}
		if err != nil {
			return nil, err
		}
		if !m.Available {
			return nil, validationError("items[%d]: %s is unavailable", i, m.Name)
		}
		items = append(items, entity.CartItem{
			MenuItemID: m.ID,
			Name:       m.Name,
			Price:      m.Price,
			Image:      m.Image,
			Quantity:   in.Quantity,
		})
	}

	var out *entity.Cart
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := s.CartRepo.ReplaceItems(tx, userID, items)
		out = c
		return err
	})
	if err != nil {
		return nil, err
	}
	return view(out), nil
}

func (s *CartService) Clear(ctx context.Context, userID uint) error {
	return s.CartRepo.ClearCart(s.DB.WithContext(ctx), userID)
}
