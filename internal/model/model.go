// Package model defines domain entities used by the store, the cache and the presentation surfaces.
package model

// UnknownDepartment is assigned to users whose department is not known (e.g. seeded users).
const UnknownDepartment = "Unknown"

// SnapshotVersion is the current schema version of the persisted directory.
const SnapshotVersion = 1

// DefaultPageSize is the page size a fresh ViewState starts with.
const DefaultPageSize = 5

// PageSizes lists the allowed page sizes.
var PageSizes = []int{5, 10, 25}

// User is a single directory record. ID is assigned by the store and is the only key.
type User struct {
	ID         int    `json:"id"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Department string `json:"department"`
}

// Snapshot is the persisted form of the directory.
type Snapshot struct {
	Version int    `json:"version"`
	NextID  int    `json:"nextId,omitempty"` // high-water mark, only used by the monotonic id policy
	Users   []User `json:"users"`
}

// Draft is the single in-flight add-or-edit record.
type Draft struct {
	User
	Editing bool `json:"editing"`
}

// NewDraft starts a draft for a new user.
func NewDraft() *Draft { return &Draft{} }

// EditDraft starts a draft that targets an existing user.
func EditDraft(u User) *Draft { return &Draft{User: u, Editing: true} }

// Reset discards the draft contents.
func (d *Draft) Reset() { *d = Draft{} }

// ViewState is the presentation-owned view configuration.
type ViewState struct {
	Filter   string `json:"filter"`
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
}

// NewViewState returns the initial view state: no filter, first page, default size.
func NewViewState() ViewState {
	return ViewState{PageSize: DefaultPageSize}
}

// SetFilter changes the filter text and rewinds to the first page.
func (s *ViewState) SetFilter(q string) {
	s.Filter = q
	s.Page = 0
}

// SetPage moves to the given page. Negative pages are ignored.
func (s *ViewState) SetPage(p int) {
	if p >= 0 {
		s.Page = p
	}
}

// SetPageSize changes the page size if it is allowed and rewinds to the first page.
func (s *ViewState) SetPageSize(n int) bool {
	if !ValidPageSize(n) {
		return false
	}
	s.PageSize = n
	s.Page = 0
	return true
}

// ValidPageSize reports whether n is one of PageSizes.
func ValidPageSize(n int) bool {
	for _, v := range PageSizes {
		if v == n {
			return true
		}
	}
	return false
}

// View is the derived, filtered and paginated projection of the directory.
type View struct {
	Items    []User `json:"items"`
	Total    int    `json:"total"` // number of users matching the filter
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
	Pages    int    `json:"pages"`
}

// Status reports the store lifecycle flags consumed by presentation surfaces.
type Status struct {
	Loading bool   `json:"loading"`
	Ready   bool   `json:"ready"`
	Error   string `json:"error,omitempty"`
	Count   int    `json:"count"`
}
