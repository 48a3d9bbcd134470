// Package ui holds what the terminal views share.
package ui

// Base tracks the size of a view. Embed it in a model to get the standard
// size methods.
type Base struct {
	width, height int
}

// SetSize sets the view dimensions.
func (b *Base) SetSize(width, height int) {
	b.width = width
	b.height = height
}

// Width returns the view width.
func (b Base) Width() int {
	return b.width
}

// Height returns the view height.
func (b Base) Height() int {
	return b.height
}
