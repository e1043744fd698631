/*
Package book computes the layering of the flipping-book view.

Every page is either flipped (already read, on the left pile) or not (on the right
pile). Both facts are derived from the page count and the current index alone, so a
view can recompute the whole layout on every step change instead of keeping per-page
flags in sync.

	pages := book.Layout(10, 3)
	// pages[0..2] are flipped, pages[3] is the visible page.
*/
package book
