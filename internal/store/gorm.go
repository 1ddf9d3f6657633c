package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/yuditriaji/ruhmrita-backend/internal/domain"
	"github.com/yuditriaji/ruhmrita-backend/pkg/database"
)

// GormStore persists to PostgreSQL through gorm.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an open connection. Call database.Migrate before use.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

var _ Store = (*GormStore)(nil)

func (s *GormStore) WithTransaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}

func orderedImages(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func toSaree(item *domain.StockItem) database.Saree {
	row := database.Saree{
		ID:          item.ID,
		Name:        item.Name,
		Type:        item.Type,
		Price:       item.Price,
		Quantity:    item.Quantity,
		ImageURL:    item.ImageURL(),
		Tags:        pq.StringArray(append([]string{}, item.Tags...)),
		Description: item.Description,
		Version:     item.Version,
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}
	row.Images = imageRows(item.ID, item.Images)
	return row
}

func imageRows(id uuid.UUID, urls []string) []database.SareeImage {
	rows := make([]database.SareeImage, 0, len(urls))
	for i, u := range urls {
		rows = append(rows, database.SareeImage{SareeID: id, ImageURL: u, Position: i})
	}
	return rows
}

func fromSaree(row database.Saree) domain.StockItem {
	images := make([]string, 0, len(row.Images))
	for _, img := range row.Images {
		images = append(images, img.ImageURL)
	}
	// rows written before saree_images existed only carry image_url
	if len(images) == 0 && row.ImageURL != "" {
		images = append(images, row.ImageURL)
	}
	tags := []string(row.Tags)
	if tags == nil {
		tags = []string{}
	}
	return domain.StockItem{
		ID:          row.ID,
		Name:        row.Name,
		Type:        row.Type,
		Price:       row.Price,
		Quantity:    row.Quantity,
		Images:      images,
		Tags:        tags,
		Description: row.Description,
		Version:     row.Version,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

func (s *GormStore) ListItems(ctx context.Context) ([]domain.StockItem, error) {
	var rows []database.Saree
	err := s.db.WithContext(ctx).
		Preload("Images", orderedImages).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list sarees: %w", err)
	}
	items := make([]domain.StockItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, fromSaree(r))
	}
	return items, nil
}

func (s *GormStore) GetItem(ctx context.Context, id uuid.UUID) (*domain.StockItem, error) {
	var row database.Saree
	err := s.db.WithContext(ctx).
		Preload("Images", orderedImages).
		Where("id = ?", id).
		First(&row).Error
	if err != nil {
		return nil, notFound(err)
	}
	item := fromSaree(row)
	return &item, nil
}

func (s *GormStore) CreateItem(ctx context.Context, item *domain.StockItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	item.Version = 1
	row := toSaree(item)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("create saree: %w", err)
	}
	item.CreatedAt = row.CreatedAt
	item.UpdatedAt = row.UpdatedAt
	return nil
}

func (s *GormStore) UpdateItem(ctx context.Context, item *domain.StockItem, expectedVersion int) error {
	return s.WithTransaction(ctx, func(txs Store) error {
		tx := txs.(*GormStore).db

		q := tx.Model(&database.Saree{}).Where("id = ?", item.ID)
		if expectedVersion != 0 {
			q = q.Where("version = ?", expectedVersion)
		}
		res := q.Updates(map[string]interface{}{
			"name":        item.Name,
			"type":        item.Type,
			"price":       item.Price,
			"quantity":    item.Quantity,
			"image_url":   item.ImageURL(),
			"tags":        pq.StringArray(append([]string{}, item.Tags...)),
			"description": item.Description,
			"version":     gorm.Expr("version + 1"),
			"updated_at":  time.Now().UTC(),
		})
		if res.Error != nil {
			return fmt.Errorf("update saree: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&database.Saree{}).Where("id = ?", item.ID).Count(&count).Error; err != nil {
				return fmt.Errorf("update saree: %w", err)
			}
			if count == 0 {
				return domain.ErrNotFound
			}
			return domain.ErrConflict
		}

		if err := tx.Where("saree_id = ?", item.ID).Delete(&database.SareeImage{}).Error; err != nil {
			return fmt.Errorf("clear saree images: %w", err)
		}
		if rows := imageRows(item.ID, item.Images); len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return fmt.Errorf("insert saree images: %w", err)
			}
		}

		var row database.Saree
		if err := tx.Select("version", "created_at", "updated_at").Where("id = ?", item.ID).First(&row).Error; err != nil {
			return notFound(err)
		}
		item.Version = row.Version
		item.CreatedAt = row.CreatedAt
		item.UpdatedAt = row.UpdatedAt
		return nil
	})
}

func (s *GormStore) DeleteItem(ctx context.Context, id uuid.UUID) error {
	return s.WithTransaction(ctx, func(txs Store) error {
		tx := txs.(*GormStore).db
		if err := tx.Where("saree_id = ?", id).Delete(&database.SareeImage{}).Error; err != nil {
			return fmt.Errorf("delete saree images: %w", err)
		}
		res := tx.Where("id = ?", id).Delete(&database.Saree{})
		if res.Error != nil {
			return fmt.Errorf("delete saree: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

// AdjustQuantity applies delta with a conditional update so concurrent sellers
// cannot drive the stored quantity below zero.
func (s *GormStore) AdjustQuantity(ctx context.Context, id uuid.UUID, delta int) (*domain.StockItem, error) {
	db := s.db.WithContext(ctx)
	res := db.Model(&database.Saree{}).
		Where("id = ? AND quantity + ? >= 0", id, delta).
		Updates(map[string]interface{}{
			"quantity":   gorm.Expr("quantity + ?", delta),
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return nil, fmt.Errorf("adjust quantity: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		cur, err := s.GetItem(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, &domain.StockError{Requested: -delta, Available: cur.Quantity}
	}
	return s.GetItem(ctx, id)
}

func toSaleRow(sale *domain.SaleRecord) database.Sale {
	return database.Sale{
		ID:           sale.ID,
		SareeID:      sale.ItemID,
		SareeName:    sale.ItemName,
		CustomerName: sale.CustomerName,
		Quantity:     sale.Quantity,
		SellingPrice: sale.SellingPrice,
		CostPrice:    sale.CostPrice,
		Margin:       sale.Margin,
		Type:         sale.Category,
		ImageURL:     sale.ImageURL,
		CreatedAt:    sale.CreatedAt,
	}
}

func fromSaleRow(row database.Sale) domain.SaleRecord {
	return domain.SaleRecord{
		ID:           row.ID,
		ItemID:       row.SareeID,
		ItemName:     row.SareeName,
		CustomerName: row.CustomerName,
		Quantity:     row.Quantity,
		SellingPrice: row.SellingPrice,
		CostPrice:    row.CostPrice,
		Margin:       row.Margin,
		Category:     row.Type,
		ImageURL:     row.ImageURL,
		CreatedAt:    row.CreatedAt,
	}
}

func applyRange(q *gorm.DB, from, to *time.Time) *gorm.DB {
	if from != nil {
		q = q.Where("created_at >= ?", *from)
	}
	if to != nil {
		q = q.Where("created_at < ?", *to)
	}
	return q
}

func (s *GormStore) ListSales(ctx context.Context, f SaleFilter) ([]domain.SaleRecord, error) {
	q := applyRange(s.db.WithContext(ctx).Model(&database.Sale{}), f.From, f.To)
	if f.ItemID != nil {
		q = q.Where("saree_id = ?", *f.ItemID)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	var rows []database.Sale
	if err := q.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	out := make([]domain.SaleRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, fromSaleRow(r))
	}
	return out, nil
}

func (s *GormStore) GetSale(ctx context.Context, id uuid.UUID) (*domain.SaleRecord, error) {
	var row database.Sale
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, notFound(err)
	}
	sale := fromSaleRow(row)
	return &sale, nil
}

func (s *GormStore) CreateSale(ctx context.Context, sale *domain.SaleRecord) error {
	if sale.ID == uuid.Nil {
		sale.ID = uuid.New()
	}
	row := toSaleRow(sale)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("create sale: %w", err)
	}
	sale.CreatedAt = row.CreatedAt
	return nil
}

func (s *GormStore) UpdateSale(ctx context.Context, sale *domain.SaleRecord) error {
	res := s.db.WithContext(ctx).Model(&database.Sale{}).
		Where("id = ?", sale.ID).
		Updates(map[string]interface{}{
			"customer_name": sale.CustomerName,
			"quantity":      sale.Quantity,
			"selling_price": sale.SellingPrice,
			"margin":        sale.Margin,
			"image_url":     sale.ImageURL,
		})
	if res.Error != nil {
		return fmt.Errorf("update sale: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *GormStore) DeleteSale(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&database.Sale{})
	if res.Error != nil {
		return fmt.Errorf("delete sale: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *GormStore) ListPurchases(ctx context.Context, f PurchaseFilter) ([]domain.Purchase, error) {
	var rows []database.Purchase
	q := applyRange(s.db.WithContext(ctx).Model(&database.Purchase{}), f.From, f.To)
	if err := q.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	out := make([]domain.Purchase, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.Purchase{
			ID:        r.ID,
			ItemID:    r.SareeID,
			ItemName:  r.SareeName,
			Quantity:  r.Quantity,
			UnitCost:  r.UnitCost,
			TotalCost: r.TotalCost,
			CreatedAt: r.CreatedAt,
		})
	}
	return out, nil
}

func (s *GormStore) CreatePurchase(ctx context.Context, p *domain.Purchase) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	row := database.Purchase{
		ID:        p.ID,
		SareeID:   p.ItemID,
		SareeName: p.ItemName,
		Quantity:  p.Quantity,
		UnitCost:  p.UnitCost,
		TotalCost: p.TotalCost,
		CreatedAt: p.CreatedAt,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("create purchase: %w", err)
	}
	p.CreatedAt = row.CreatedAt
	return nil
}

func fromUserRow(row database.User) *domain.User {
	return &domain.User{
		ID:           row.ID,
		Email:        row.Email,
		Name:         row.Name,
		PasswordHash: row.PasswordHash,
		GoogleID:     row.GoogleID,
		Role:         row.Role,
		IsActive:     row.IsActive,
		CreatedAt:    row.CreatedAt,
	}
}

func (s *GormStore) findUser(ctx context.Context, query string, arg interface{}) (*domain.User, error) {
	var row database.User
	if err := s.db.WithContext(ctx).Where(query, arg).First(&row).Error; err != nil {
		return nil, notFound(err)
	}
	return fromUserRow(row), nil
}

func (s *GormStore) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.findUser(ctx, "LOWER(email) = LOWER(?)", email)
}

func (s *GormStore) FindUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.findUser(ctx, "id = ?", id)
}

func (s *GormStore) FindUserByGoogleID(ctx context.Context, googleID string) (*domain.User, error) {
	if googleID == "" {
		return nil, domain.ErrNotFound
	}
	return s.findUser(ctx, "google_id = ?", googleID)
}

func (s *GormStore) CreateUser(ctx context.Context, u *domain.User) error {
	if _, err := s.FindUserByEmail(ctx, u.Email); err == nil {
		return domain.ErrConflict
	}
	row := database.User{
		Email:        u.Email,
		GoogleID:     u.GoogleID,
		PasswordHash: u.PasswordHash,
		Name:         u.Name,
		Role:         u.Role,
		IsActive:     u.IsActive,
	}
	row.ID = u.ID
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	u.ID = row.ID
	u.CreatedAt = row.CreatedAt
	return nil
}

func (s *GormStore) UpdateUser(ctx context.Context, u *domain.User) error {
	res := s.db.WithContext(ctx).Model(&database.User{}).
		Where("id = ?", u.ID).
		Updates(map[string]interface{}{
			"name":          u.Name,
			"google_id":     u.GoogleID,
			"password_hash": u.PasswordHash,
			"role":          u.Role,
			"is_active":     u.IsActive,
		})
	if res.Error != nil {
		return fmt.Errorf("update user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *GormStore) CreateActivity(ctx context.Context, a *domain.Activity) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	row := database.ActivityLog{
		ID:         a.ID,
		UserID:     a.UserID,
		Action:     a.Action,
		EntityType: a.EntityType,
		EntityID:   a.EntityID,
		Details:    a.Details,
		IPAddress:  a.IPAddress,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("create activity log: %w", err)
	}
	a.CreatedAt = row.CreatedAt
	return nil
}

func (s *GormStore) ListActivities(ctx context.Context, limit int) ([]domain.Activity, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []database.ActivityLog
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list activity logs: %w", err)
	}
	out := make([]domain.Activity, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.Activity{
			ID:         r.ID,
			UserID:     r.UserID,
			Action:     r.Action,
			EntityType: r.EntityType,
			EntityID:   r.EntityID,
			Details:    r.Details,
			IPAddress:  r.IPAddress,
			CreatedAt:  r.CreatedAt,
		})
	}
	return out, nil
}
