package installment

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductLine is one financed product on a plan.
// It is a value object within the InstallmentPlan aggregate, stored as JSONB.
type ProductLine struct {
	ProductID   uuid.UUID       `json:"product_id"`
	Name        string          `json:"name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	Category    string          `json:"category,omitempty"`
	Description string          `json:"description,omitempty"`
}

// LineTotal returns unit price times quantity
func (l *ProductLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Validate checks the line for basic sanity
func (l *ProductLine) Validate() error {
	if l.ProductID == uuid.Nil {
		return ErrInvalidProductLine
	}
	if l.Name == "" {
		return ErrInvalidProductLine
	}
	if l.Quantity <= 0 {
		return ErrInvalidProductLine
	}
	if !l.UnitPrice.IsPositive() {
		return ErrInvalidProductLine
	}
	return nil
}

// ProductLines is the ordered product list of a plan, stored as JSONB
type ProductLines []ProductLine

// Value implements driver.Valuer for GORM to store as JSONB
func (p ProductLines) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner for GORM to read from JSONB
func (p *ProductLines) Scan(value interface{}) error {
	if value == nil {
		*p = ProductLines{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan ProductLines: unsupported type")
	}

	if len(bytes) == 0 {
		*p = ProductLines{}
		return nil
	}

	return json.Unmarshal(bytes, p)
}

// Total returns the sum of line totals
func (p ProductLines) Total() decimal.Decimal {
	total := decimal.Zero
	for i := range p {
		total = total.Add(p[i].LineTotal())
	}
	return total
}

// Validate checks every line for basic sanity
func (p ProductLines) Validate() error {
	for i := range p {
		if err := p[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}
