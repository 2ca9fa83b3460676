package specification

import (
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// NameOrGenericILike matches the term anywhere in the product, brand or
// generic name, case-insensitively.
type NameOrGenericILike struct {
	Term string
}

func (s NameOrGenericILike) Apply(db *gorm.DB) *gorm.DB {
	pattern := "%" + likeEscaper.Replace(strings.TrimSpace(s.Term)) + "%"
	return db.Where(
		"(products.name ILIKE ? OR products.brand_name ILIKE ? OR products.generic_name ILIKE ?)",
		pattern, pattern, pattern,
	)
}

// ByExactName matches the product name ignoring case.
type ByExactName struct {
	Name string
}

func (s ByExactName) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("LOWER(products.name) = ?", strings.ToLower(strings.TrimSpace(s.Name)))
}

// InStock keeps rows that can actually be sold.
var InStock = Where{Query: "products.stock > 0"}

// NotExpired keeps rows without an expiry date or expiring on/after At.
type NotExpired struct {
	At time.Time
}

func (s NotExpired) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("(products.expiry_date IS NULL OR products.expiry_date >= ?)", datatypes.Date(s.At))
}

// ExactMatchFirst ranks rows whose name, brand or generic equals the term
// ahead of partial matches.
type ExactMatchFirst struct {
	Term string
}

func (s ExactMatchFirst) Apply(db *gorm.DB) *gorm.DB {
	term := strings.ToLower(strings.TrimSpace(s.Term))
	return db.Order(clause.OrderBy{Expression: clause.Expr{
		SQL: "CASE WHEN LOWER(products.name) = ? OR LOWER(products.brand_name) = ? " +
			"OR LOWER(products.generic_name) = ? THEN 0 ELSE 1 END",
		Vars:               []interface{}{term, term, term},
		WithoutParentheses: true,
	}})
}

// Sellable is the inventory search used by the assistant: matching, in stock,
// not expired, best match first then highest stock.
func Sellable(term string, at time.Time, limit int) []Specification {
	return []Specification{
		NameOrGenericILike{Term: term},
		InStock,
		NotExpired{At: at},
		ExactMatchFirst{Term: term},
		OrderBy{Field: "products.stock", Desc: true},
		Pagination{Limit: limit},
	}
}
