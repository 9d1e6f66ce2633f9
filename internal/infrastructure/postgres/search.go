package postgres

import (
	"fmt"
	"strings"

	domain "userdir/backend/internal/domain/user"
)

// Fixed SQL expressions for the closed filter and sort enumerations.
// Client input only ever reaches the query as bound parameters.
var filterExprs = map[domain.FilterField]string{
	domain.FilterAge:         "u.age",
	domain.FilterNameLength:  "char_length(u.name)",
	domain.FilterEmailLength: "char_length(u.email)",
}

// Text keys sort byte-wise, independent of the database collation.
var sortExprs = map[domain.SortField]string{
	domain.SortAge:   "u.age",
	domain.SortName:  `u.name COLLATE "C"`,
	domain.SortEmail: `u.email COLLATE "C"`,
}

type searchSQL struct {
	where   string
	orderBy string
	args    []any
}

// buildSearch translates a validated query into WHERE and ORDER BY
// clauses. Creation order is always the final ordering key.
func buildSearch(q domain.Query) searchSQL {
	var (
		conds []string
		args  []any
	)
	param := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	for _, f := range q.Filters {
		expr, ok := filterExprs[f.Field]
		if !ok {
			continue
		}
		conds = append(conds, fmt.Sprintf("%s BETWEEN %s AND %s", expr, param(f.Min), param(f.Max)))
	}
	if len(q.Roles) > 0 {
		names := make([]string, 0, len(q.Roles))
		for _, r := range q.Roles {
			names = append(names, strings.ToLower(r))
		}
		conds = append(conds, fmt.Sprintf(`EXISTS (
SELECT 1 FROM user_roles ur JOIN roles r ON r.id = ur.role_id
WHERE ur.user_id = u.id AND lower(r.name) = ANY(%s))`, param(names)))
	}

	out := searchSQL{args: args, orderBy: "ORDER BY u.seq ASC"}
	if len(conds) > 0 {
		out.where = "WHERE " + strings.Join(conds, " AND ")
	}
	if q.Sort != nil {
		if expr, ok := sortExprs[q.Sort.Field]; ok {
			out.orderBy = fmt.Sprintf("ORDER BY %s %s, u.seq ASC", expr, q.Sort.Direction)
		}
	}
	return out
}

// page returns the LIMIT/OFFSET clause and the full argument list.
func (s searchSQL) page(p domain.Page) (string, []any) {
	args := append(append([]any{}, s.args...), p.Size, p.Offset())
	return fmt.Sprintf("LIMIT $%d OFFSET $%d", len(args)-1, len(args)), args
}
