package postgres

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	domain "userdir/backend/internal/domain/user"
)

func TestBuildSearchDefaultsToCreationOrder(t *testing.T) {
	s := buildSearch(domain.Query{Page: domain.Page{Number: 1, Size: 5}})

	assert.Empty(t, s.where)
	assert.Equal(t, "ORDER BY u.seq ASC", s.orderBy)
	assert.Empty(t, s.args)

	limit, args := s.page(domain.Page{Number: 1, Size: 5})
	assert.Equal(t, "LIMIT $1 OFFSET $2", limit)
	assert.Equal(t, []any{5, 0}, args)
}

func TestBuildSearchFiltersAndSort(t *testing.T) {
	q := domain.Query{
		Filters: domain.ParseFilters([]domain.FilterParam{
			{Param: "age", Min: 20, Max: 30},
			{Param: "name", Min: 2, Max: 8},
			{Param: "email", Min: 9, Max: 3},
		}),
		Sort: domain.ParseSort("email", domain.Descending),
		Page: domain.Page{Number: 3, Size: 10},
	}
	s := buildSearch(q)

	assert.Equal(t, "WHERE u.age BETWEEN $1 AND $2 AND char_length(u.name) BETWEEN $3 AND $4", s.where)
	assert.Equal(t, `ORDER BY u.email COLLATE "C" DESC, u.seq ASC`, s.orderBy)
	assert.Equal(t, []any{20, 30, 2, 8}, s.args)

	limit, args := s.page(q.Page)
	assert.Equal(t, "LIMIT $5 OFFSET $6", limit)
	assert.Equal(t, []any{20, 30, 2, 8, 10, 20}, args)
	assert.Len(t, s.args, 4, "page must not mutate the shared args")
}

func TestBuildSearchRoleSelection(t *testing.T) {
	s := buildSearch(domain.Query{
		Filters: []domain.Filter{{Field: domain.FilterAge, Min: 1, Max: 99}},
		Roles:   []string{"Admin", "SUPPORT"},
	})

	assert.True(t, strings.HasPrefix(s.where, "WHERE u.age BETWEEN $1 AND $2 AND EXISTS ("))
	assert.Contains(t, s.where, "lower(r.name) = ANY($3)")
	assert.Equal(t, []any{1, 99, []string{"admin", "support"}}, s.args)
}

func TestBuildSearchNeverEmbedsClientText(t *testing.T) {
	s := buildSearch(domain.Query{
		Roles: []string{"x'); DROP TABLE users; --"},
		Sort:  domain.ParseSort("name; DROP TABLE users", domain.Ascending),
	})

	assert.NotContains(t, s.where, "DROP")
	assert.NotContains(t, s.orderBy, "DROP")
	assert.Equal(t, "ORDER BY u.seq ASC", s.orderBy)
}

func TestBuildSearchTextSortIsByteOrdered(t *testing.T) {
	s := buildSearch(domain.Query{Sort: domain.ParseSort("name", domain.Ascending)})
	assert.Equal(t, `ORDER BY u.name COLLATE "C" ASC, u.seq ASC`, s.orderBy)

	s = buildSearch(domain.Query{Sort: domain.ParseSort("age", domain.Descending)})
	assert.Equal(t, "ORDER BY u.age DESC, u.seq ASC", s.orderBy)
}
