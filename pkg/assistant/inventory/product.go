// Package inventory is the read-only view of pharmacy stock the assistant
// consumes. Implementations live outside the core.
package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pharmacy-assistant-be/pkg/assistant/classifier"
)

// SourceLabel is shown to users when an answer used stock data.
const SourceLabel = "Pharmacy inventory"

type Product struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	BrandName    string     `json:"brandName,omitempty"`
	GenericName  string     `json:"genericName,omitempty"`
	DosageForm   string     `json:"dosageForm,omitempty"`
	Strength     string     `json:"strength,omitempty"`
	CategoryName string     `json:"categoryName,omitempty"`
	Stock        int        `json:"stock"`
	Price        float64    `json:"price"`
	ExpiryDate   *time.Time `json:"expiryDate,omitempty"`
}

// Lookup searches non-deleted, in-stock, non-expired products, best match first.
type Lookup interface {
	Search(ctx context.Context, term string, limit int) ([]Product, error)
}

// Evidence is what the classifier gets to see of a product.
func (p Product) Evidence() classifier.Evidence {
	return classifier.Evidence{
		ProductName:  p.Name,
		GenericName:  p.GenericName,
		DosageForm:   p.DosageForm,
		CategoryName: p.CategoryName,
	}
}

// Line renders the product for a stock listing.
func (p Product) Line() string {
	var b strings.Builder
	b.WriteString(p.Name)
	if p.Strength != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(p.Strength)) {
		b.WriteString(" " + p.Strength)
	}
	var details []string
	if p.BrandName != "" && !strings.EqualFold(p.BrandName, p.Name) {
		details = append(details, "brand "+p.BrandName)
	}
	if p.GenericName != "" && !strings.EqualFold(p.GenericName, p.Name) {
		details = append(details, "generic "+p.GenericName)
	}
	if p.DosageForm != "" {
		details = append(details, p.DosageForm)
	}
	if len(details) > 0 {
		b.WriteString(" (" + strings.Join(details, ", ") + ")")
	}
	fmt.Fprintf(&b, ": %d in stock, %.2f", p.Stock, p.Price)
	if p.ExpiryDate != nil {
		fmt.Fprintf(&b, ", expires %s", p.ExpiryDate.Format("2006-01-02"))
	}
	return b.String()
}
