package user

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

// FilterField enumerates the attributes a range filter can target.
type FilterField string

const (
	// FilterAge bounds the user's age.
	FilterAge FilterField = "age"
	// FilterNameLength bounds the character length of the name.
	FilterNameLength FilterField = "name"
	// FilterEmailLength bounds the character length of the email.
	FilterEmailLength FilterField = "email"
)

// FilterParam is a raw client supplied range filter. Either Param or Field
// names the target attribute.
type FilterParam struct {
	Param string `json:"param"`
	Field string `json:"field"`
	Min   int    `json:"min"`
	Max   int    `json:"max"`
}

func (p FilterParam) name() string {
	if strings.TrimSpace(p.Param) != "" {
		return p.Param
	}
	return p.Field
}

// Filter is a validated inclusive range over one FilterField.
type Filter struct {
	Field FilterField
	Min   int
	Max   int
}

// Predicate reports whether a user belongs to a result set.
type Predicate func(*User) bool

var filterValues = map[FilterField]func(*User) int{
	FilterAge:         func(u *User) int { return u.Age },
	FilterNameLength:  func(u *User) int { return utf8.RuneCountInString(u.Name) },
	FilterEmailLength: func(u *User) int { return utf8.RuneCountInString(u.Email) },
}

// Predicate returns the closure testing f's range against a user.
func (f Filter) Predicate() Predicate {
	value := filterValues[f.Field]
	lo, hi := f.Min, f.Max
	return func(u *User) bool {
		v := value(u)
		return v >= lo && v <= hi
	}
}

// ParseFilters keeps the well-formed params and silently drops the rest:
// blank or unknown field, negative bound, or max below min.
func ParseFilters(params []FilterParam) []Filter {
	filters := make([]Filter, 0, len(params))
	for _, p := range params {
		name := strings.ToLower(strings.TrimSpace(p.name()))
		if name == "" || p.Min < 0 || p.Max < p.Min {
			continue
		}
		field := FilterField(name)
		if _, ok := filterValues[field]; !ok {
			continue
		}
		filters = append(filters, Filter{Field: field, Min: p.Min, Max: p.Max})
	}
	return filters
}

// SortField enumerates the attributes results can be ordered by.
type SortField string

const (
	SortAge   SortField = "age"
	SortName  SortField = "name"
	SortEmail SortField = "email"
)

// SortDirection orders results ascending or descending.
type SortDirection int

const (
	Ascending SortDirection = iota
	Descending
)

// String returns the SQL keyword for the direction.
func (d SortDirection) String() string {
	if d == Descending {
		return "DESC"
	}
	return "ASC"
}

// UnmarshalJSON accepts 0/1 as well as "asc", "ascending", "desc" and "descending".
func (d *SortDirection) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*d = Ascending
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		switch SortDirection(n) {
		case Ascending, Descending:
			*d = SortDirection(n)
			return nil
		}
		return fmt.Errorf("%w: unknown sort direction %d", ErrValidation, n)
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: sort direction must be a number or string", ErrValidation)
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "0", "asc", "ascending":
		*d = Ascending
	case "1", "desc", "descending":
		*d = Descending
	default:
		return fmt.Errorf("%w: unknown sort direction %q", ErrValidation, s)
	}
	return nil
}

// Sort is a validated ordering.
type Sort struct {
	Field     SortField
	Direction SortDirection
}

var sortKeys = map[SortField]func(a, b *User) int{
	SortAge:   func(a, b *User) int { return a.Age - b.Age },
	SortName:  func(a, b *User) int { return strings.Compare(a.Name, b.Name) },
	SortEmail: func(a, b *User) int { return strings.Compare(a.Email, b.Email) },
}

// ParseSort returns nil when field is not a recognised sort field; the
// store then keeps its default creation order.
func ParseSort(field string, direction SortDirection) *Sort {
	f := SortField(strings.ToLower(strings.TrimSpace(field)))
	if _, ok := sortKeys[f]; !ok {
		return nil
	}
	return &Sort{Field: f, Direction: direction}
}

// Compare orders a before b according to s. Equal keys compare as zero so
// that a stable sort keeps creation order.
func (s Sort) Compare(a, b *User) int {
	c := sortKeys[s.Field](a, b)
	if s.Direction == Descending {
		return -c
	}
	return c
}

// Page addresses one 1-based slice of a result set.
type Page struct {
	Number int
	Size   int
}

// NewPage validates paging input.
func NewPage(number, size int) (Page, error) {
	if number < 1 {
		return Page{}, fmt.Errorf("%w: page number must be at least 1", ErrValidation)
	}
	if size < 1 {
		return Page{}, fmt.Errorf("%w: page size must be at least 1", ErrValidation)
	}
	return Page{Number: number, Size: size}, nil
}

// Offset is the number of records skipped before the page. It saturates at
// math.MaxInt so that a far page past the end is simply empty.
func (p Page) Offset() int {
	if p.Number <= 1 || p.Size <= 0 {
		return 0
	}
	if p.Number-1 > math.MaxInt/p.Size {
		return math.MaxInt
	}
	return (p.Number - 1) * p.Size
}

// Query is a fully validated search over the directory.
type Query struct {
	Filters []Filter
	// Roles restricts results to users holding any of the named roles.
	Roles []string
	Sort  *Sort
	Page  Page
}

// Predicate composes the filters and the role selection conjunctively.
func (q Query) Predicate() Predicate {
	preds := make([]Predicate, 0, len(q.Filters)+1)
	for _, f := range q.Filters {
		preds = append(preds, f.Predicate())
	}
	if len(q.Roles) > 0 {
		roles := q.Roles
		preds = append(preds, func(u *User) bool { return u.HasAnyRole(roles) })
	}
	return func(u *User) bool {
		for _, p := range preds {
			if !p(u) {
				return false
			}
		}
		return true
	}
}

// Result is one page of users plus the size of the whole filtered set.
type Result struct {
	Items      []*User `json:"items"`
	PageNumber int     `json:"pageNumber"`
	PageSize   int     `json:"pageSize"`
	Total      int     `json:"total"`
	TotalPages int     `json:"totalPages"`
}

// NewResult computes pagination metadata for items.
func NewResult(items []*User, page Page, total int) *Result {
	if items == nil {
		items = []*User{}
	}
	return &Result{
		Items:      items,
		PageNumber: page.Number,
		PageSize:   page.Size,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(page.Size))),
	}
}
