package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Roles an account can hold.
const (
	RoleAdmin   = "admin"
	RoleCashier = "cashier"
)

// SettingsID is the well-known key of the singleton settings row.
const SettingsID = "app-settings"

// ValidRole reports whether r is a known role.
func ValidRole(r string) bool {
	return r == RoleAdmin || r == RoleCashier
}

// Account - a person who can sign in to the till
type Account struct {
	ID           string     `gorm:"primaryKey;size:36" json:"id"`
	Username     string     `gorm:"uniqueIndex;size:50;not null" json:"username"`
	PasswordHash string     `gorm:"not null" json:"-"` // Never return this in JSON
	Role         string     `gorm:"size:20;not null" json:"role"`
	IsActive     bool       `gorm:"not null" json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLoginAt  *time.Time `json:"last_login_at"`

	// ActiveSessionToken is the single authority token. A new login
	// overwrites it, logout clears it.
	ActiveSessionToken *string `gorm:"type:text" json:"-"`
}

func (Account) TableName() string { return "users" }

func (a *Account) BeforeCreate(*gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// Online reports whether the account currently holds a session.
func (a Account) Online() bool {
	return a.ActiveSessionToken != nil && *a.ActiveSessionToken != ""
}

// MarshalJSON exposes the online flag instead of the token itself.
func (a Account) MarshalJSON() ([]byte, error) {
	type plain Account
	return json.Marshal(struct {
		plain
		Online bool `json:"online"`
	}{plain(a), a.Online()})
}

// Product - the inventory
type Product struct {
	ID              string          `gorm:"primaryKey;size:36" json:"id"`
	Name            string          `gorm:"index;not null" json:"name"`
	Barcode         string          `gorm:"uniqueIndex;size:64;not null" json:"barcode"`
	Price           decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Stock           int             `gorm:"not null" json:"stock"`
	PrimaryCategory *string         `json:"primary_category"`
	SubCategory     *string         `json:"sub_category"`
	TechnicalTags   *string         `gorm:"type:text" json:"technical_tags"`
	ImageURL        *string         `json:"image_url"`
	IsActive        bool            `gorm:"not null" json:"is_active"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// Discount kinds accepted at checkout. An empty value means no discount.
const (
	DiscountNone       = ""
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

// SaleItem - snapshot of a product at the moment of sale
type SaleItem struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
}

// Sale - the transaction record, written once and never updated
type Sale struct {
	ID             string                        `gorm:"primaryKey;size:36" json:"id"`
	Items          datatypes.JSONSlice[SaleItem] `gorm:"not null" json:"items"`
	Subtotal       decimal.Decimal               `gorm:"type:decimal(10,2);not null" json:"subtotal"`
	DiscountType   string                        `gorm:"size:20" json:"discount_type"`
	DiscountValue  decimal.Decimal               `gorm:"type:decimal(10,2);not null" json:"discount_value"`
	DiscountAmount decimal.Decimal               `gorm:"type:decimal(10,2);not null" json:"discount_amount"`
	TaxRate        decimal.Decimal               `gorm:"type:decimal(5,2);not null" json:"tax_rate"`
	TaxAmount      decimal.Decimal               `gorm:"type:decimal(10,2);not null" json:"tax_amount"`
	Total          decimal.Decimal               `gorm:"type:decimal(10,2);not null" json:"total"`
	CashierID      string                        `gorm:"index;size:36;not null" json:"cashier_id"`
	CashierName    string                        `gorm:"not null" json:"cashier_name"`
	CreatedAt      time.Time                     `gorm:"index" json:"created_at"`
}

func (s *Sale) BeforeCreate(*gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// Settings - the store profile, one row only
type Settings struct {
	ID               string                      `gorm:"primaryKey;size:36" json:"id"`
	IsSetupComplete  bool                        `gorm:"not null" json:"is_setup_complete"`
	StoreName        string                      `gorm:"not null" json:"store_name"`
	StoreLogoURL     *string                     `json:"store_logo_url"`
	StoreEmail       *string                     `json:"store_email"`
	StorePhone       *string                     `json:"store_phone"`
	StoreAddress     *string                     `json:"store_address"`
	StoreDescription *string                     `json:"store_description"`
	Currency         string                      `gorm:"size:8;not null" json:"currency"`
	TaxRate          decimal.Decimal             `gorm:"type:decimal(5,2);not null" json:"tax_rate"`
	Categories       datatypes.JSONSlice[string] `json:"categories"`
	TechnicalTags    datatypes.JSONSlice[string] `json:"technical_tags"`
}

// DefaultSettings is what a fresh install starts with.
func DefaultSettings() Settings {
	return Settings{
		ID:        SettingsID,
		StoreName: "Store",
		Currency:  "PHP",
	}
}

// All lists every table for AutoMigrate.
func All() []any {
	return []any{&Account{}, &Product{}, &Sale{}, &Settings{}}
}
