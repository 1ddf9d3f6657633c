package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Base model for all entities
type BaseModel struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Saree is one stock item in the catalog
type Saree struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Name        string          `gorm:"not null" json:"name"`
	Type        string          `gorm:"not null;index" json:"type"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Quantity    int             `gorm:"not null;default:0;check:quantity >= 0" json:"quantity"`
	ImageURL    string          `json:"image_url"` // primary image, mirrors the first row of Images
	Tags        pq.StringArray  `gorm:"type:text[]" json:"tags"`
	Description string          `gorm:"type:text" json:"description"`
	Version     int             `gorm:"not null;default:1" json:"version"`
	Images      []SareeImage    `gorm:"foreignKey:SareeID;constraint:OnDelete:CASCADE" json:"images,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// SareeImage is one image of a saree, ordered by Position
type SareeImage struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	SareeID  uuid.UUID `gorm:"type:uuid;not null;index" json:"saree_id"`
	ImageURL string    `gorm:"not null" json:"image_url"`
	Position int       `gorm:"not null;default:0" json:"position"`
}

// Sale is a sale logged against a saree. saree_id is a weak reference: the row
// survives deletion of the saree.
type Sale struct {
	ID           uuid.UUID           `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	SareeID      uuid.UUID           `gorm:"type:uuid;not null;index" json:"saree_id"`
	SareeName    string              `json:"saree_name"`
	CustomerName string              `gorm:"not null" json:"customer_name"`
	Quantity     int                 `gorm:"not null" json:"quantity"`
	SellingPrice decimal.Decimal     `gorm:"type:numeric(12,2);not null" json:"selling_price"`
	CostPrice    decimal.NullDecimal `gorm:"type:numeric(12,2)" json:"cost_price"`
	Margin       decimal.NullDecimal `gorm:"type:numeric(12,2)" json:"margin"`
	Type         string              `gorm:"index" json:"type"`
	ImageURL     string              `json:"image_url"`
	CreatedAt    time.Time           `gorm:"index" json:"created_at"`
}

// Purchase is stock bought in (investment)
type Purchase struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	SareeID   *uuid.UUID      `gorm:"type:uuid;index" json:"saree_id"`
	SareeName string          `json:"saree_name"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	UnitCost  decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_cost"`
	TotalCost decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total_cost"`
	CreatedAt time.Time       `gorm:"index" json:"created_at"`
}

// User represents a back office user
type User struct {
	BaseModel
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	GoogleID     string `gorm:"index" json:"-"`
	PasswordHash string `json:"-"` // Optional for OAuth users
	Name         string `gorm:"not null" json:"name"`
	Role         string `gorm:"default:'owner'" json:"role"` // owner, staff
	IsActive     bool   `gorm:"default:true" json:"is_active"`
}

// ActivityLog tracks user actions for audit trail
type ActivityLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	Action     string     `gorm:"not null" json:"action"` // create, update, delete, sale, purchase, import
	EntityType string     `json:"entity_type"`            // saree, sale, purchase
	EntityID   *uuid.UUID `gorm:"type:uuid" json:"entity_id"`
	Details    string     `gorm:"type:text" json:"details"` // JSON details
	IPAddress  string     `json:"ip_address"`
	CreatedAt  time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
}

// Migrate runs database migrations
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Saree{},
		&SareeImage{},
		&Sale{},
		&Purchase{},
		&ActivityLog{},
	)
}
