package model

// Category is one node of the category forest reported by a blog service.
// Parent is the id of another category in the same set; an unresolved or
// empty Parent means the category is a root.
type Category struct {
	ID     string
	Name   string
	Parent string
}

// NormalizeParents clears any Parent reference that does not resolve to
// another category in the same set, so consumers can treat the result as a
// well-formed forest.
func NormalizeParents(categories []Category) []Category {
	ids := make(map[string]bool, len(categories))
	for _, c := range categories {
		ids[c.ID] = true
	}

	out := make([]Category, len(categories))
	for i, c := range categories {
		if c.Parent != "" && !ids[c.Parent] {
			c.Parent = ""
		}
		out[i] = c
	}
	return out
}

// Keyword is a tag known to the blog service.
type Keyword struct {
	Name string
}
