package book

// Page is the derived rendering state of one page of the book.
type Page struct {
	Index int `json:"index"`
	// Flipped pages have been turned to the left pile.
	Flipped bool `json:"flipped"`
	// StackOrder is the layer priority within the page's pile (higher is on top).
	StackOrder int `json:"stack_order"`
	// Cover marks page 0.
	Cover bool `json:"cover,omitempty"`
	// Current marks the page facing the reader.
	Current bool `json:"current,omitempty"`
}

// IsFlipped reports whether page p has been turned when the book is open at current.
func IsFlipped(p, current int) bool {
	return p < current
}

// StackOrder returns the layer of page p.
// Flipped pages keep their own index, so the cover lies at the bottom of the left
// pile. Unflipped pages use total-p, so the page closest to the reader covers the
// ones after it.
func StackOrder(p, current, total int) int {
	if IsFlipped(p, current) {
		return p
	}
	return total - p
}

// Clamp bounds current to [0, total].
func Clamp(current, total int) int {
	if current < 0 {
		return 0
	}
	if current > total {
		return total
	}
	return current
}

// Layout derives the state of every page for a book of total pages open at current.
func Layout(total, current int) []Page {
	if total <= 0 {
		return nil
	}
	current = Clamp(current, total)

	pages := make([]Page, total)
	for p := range pages {
		pages[p] = Page{
			Index:      p,
			Flipped:    IsFlipped(p, current),
			StackOrder: StackOrder(p, current, total),
			Cover:      p == 0,
			Current:    p == current,
		}
	}
	return pages
}

// FlippedCount returns how many pages are on the left pile.
func FlippedCount(pages []Page) int {
	n := 0
	for _, p := range pages {
		if p.Flipped {
			n++
		}
	}
	return n
}
