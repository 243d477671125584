package catalog

import (
	"strconv"
	"strings"

	"github.com/ziadkadry99/pneumabot/internal/textnorm"
)

const selectProducts = `SELECT p.id, p.code, p.name, COALESCE(b.name, ''), COALESCE(i.current_stock, 0), p.unit_price
FROM products p
LEFT JOIN brands b ON b.id = p.brand_id
LEFT JOIN inventory i ON i.product_id = p.id`

// buildFind renders q for a dialect. placeholder returns the n-th (1-based)
// bind marker: "?" for SQLite, "$n" for PostgreSQL.
func buildFind(q Query, placeholder func(n int) string) (string, []any) {
	var (
		where []string
		args  []any
	)
	next := func(v any) string {
		args = append(args, v)
		return placeholder(len(args))
	}
	for _, term := range q.All {
		pattern := "%" + escapeLike(textnorm.Fold(term)) + "%"
		cond := "p.name_folded LIKE " + next(pattern) + ` ESCAPE '\'`
		if q.MatchCode {
			cond = "(" + cond + " OR LOWER(p.code) LIKE " + next(pattern) + ` ESCAPE '\')`
		}
		where = append(where, cond)
	}
	if q.InStockOnly {
		where = append(where, "COALESCE(i.current_stock, 0) >= 1")
	}

	var b strings.Builder
	b.WriteString(selectProducts)
	if len(where) > 0 {
		b.WriteString("\nWHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString("\nORDER BY COALESCE(i.current_stock, 0) DESC, p.code")
	if q.Limit > 0 {
		b.WriteString("\nLIMIT " + strconv.Itoa(q.Limit))
	}
	return b.String(), args
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

const selectByCode = selectProducts + "\nWHERE LOWER(p.code) = LOWER(%s)"

const selectStock = `SELECT COALESCE(i.current_stock, 0)
FROM products p LEFT JOIN inventory i ON i.product_id = p.id
WHERE p.id = %s`

// rowScanner is satisfied by *sql.Row(s) and pgx.Row(s).
type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(r rowScanner) (ProductRef, error) {
	var p ProductRef
	err := r.Scan(&p.ID, &p.Code, &p.DisplayName, &p.Brand, &p.Stock, &p.UnitPrice)
	return p, err
}
