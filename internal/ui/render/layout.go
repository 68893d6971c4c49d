package render

// layout holds the column geometry of one frame.
type layout struct {
	listWidth     int
	previewX      int
	previewWidth  int
	secondX       int
	secondWidth   int
	contentTop    int
	contentHeight int
}

func sidebarWidthForWidth(width int) int {
	switch {
	case width < 40:
		return width
	case width < 80:
		return width / 3
	default:
		return min(width/4, 40)
	}
}

func computeLayout(width, height int, dualPane bool) layout {
	l := layout{
		contentTop:    1,
		contentHeight: max(height-3, 1),
	}
	l.listWidth = sidebarWidthForWidth(width)
	remaining := width - l.listWidth - 1
	if remaining <= 0 {
		l.listWidth = width
		return l
	}
	l.previewX = l.listWidth + 1
	l.previewWidth = remaining
	if dualPane && remaining >= 20 {
		l.previewWidth = (remaining - 1) / 2
		l.secondX = l.previewX + l.previewWidth + 1
		l.secondWidth = width - l.secondX
	}
	return l
}
