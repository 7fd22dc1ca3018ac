package model

// Category is one node of the marketplace category tree as the API returns
// it: a flat record with an optional parent reference.
type Category struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Parent *int64 `json:"parent"`
}

// RootCategories filters the flat list down to top-level entries.
func RootCategories(all []Category) []Category {
	var roots []Category
	for _, c := range all {
		if c.Parent == nil {
			roots = append(roots, c)
		}
	}
	return roots
}

// ChildCategories returns the direct children of the given category. A leaf
// category yields an empty slice, which callers must render gracefully.
func ChildCategories(all []Category, parentID int64) []Category {
	var children []Category
	for _, c := range all {
		if c.Parent != nil && *c.Parent == parentID {
			children = append(children, c)
		}
	}
	return children
}

// FindCategoryByName looks an entry up by its display name within the given
// slice. Matching is exact: keyboard buttons echo names verbatim.
func FindCategoryByName(list []Category, name string) (Category, bool) {
	for _, c := range list {
		if c.Name == name {
			return c, true
		}
	}
	return Category{}, false
}
