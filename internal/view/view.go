// Package view derives the filtered, paginated projection of the directory.
// Everything here is pure: no I/O, no shared state.
package view

import (
	"strings"

	"github.com/and161185/userdir/internal/errs"
	"github.com/and161185/userdir/internal/model"
)

// Filter keeps users whose first name contains q, case-insensitively.
// An empty query keeps everything.
func Filter(users []model.User, q string) []model.User {
	if q == "" {
		return users
	}
	q = strings.ToLower(q)
	out := make([]model.User, 0, len(users))
	for _, u := range users {
		if strings.Contains(strings.ToLower(u.FirstName), q) {
			out = append(out, u)
		}
	}
	return out
}

// Paginate returns users[page*size : page*size+size] clamped to len(users).
func Paginate(users []model.User, page, size int) []model.User {
	if page < 0 || size <= 0 || page >= Pages(len(users), size) {
		return []model.User{}
	}
	start := page * size
	end := start + size
	if end > len(users) {
		end = len(users)
	}
	return users[start:end]
}

// Pages returns the number of pages needed for total items at the given size.
func Pages(total, size int) int {
	if size <= 0 || total <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// Build filters, then paginates users according to st.
// The returned items never alias users.
func Build(users []model.User, st model.ViewState) (model.View, error) {
	if !model.ValidPageSize(st.PageSize) {
		return model.View{}, errs.ErrInvalidPageSize
	}
	if st.Page < 0 {
		return model.View{}, errs.ErrInvalidPage
	}
	filtered := Filter(users, st.Filter)
	page := Paginate(filtered, st.Page, st.PageSize)
	items := make([]model.User, len(page))
	copy(items, page)
	return model.View{
		Items:    items,
		Total:    len(filtered),
		Page:     st.Page,
		PageSize: st.PageSize,
		Pages:    Pages(len(filtered), st.PageSize),
	}, nil
}
