package window

// WindowBuilderOption is a functional option for configuring a window before it opens.
// Use the With* functions to create options.
type WindowBuilderOption func(s *settings)

// WithTitle sets the window title displayed in the title bar.
//
// Parameters:
//   - title: the window title text
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithTitle(title string) WindowBuilderOption {
	return func(s *settings) {
		s.title = title
	}
}

// WithSizeLimits bounds the framebuffer size the user can resize the window to.
//
// Parameters:
//   - minWidth: minimum width in pixels
//   - minHeight: minimum height in pixels
//   - maxWidth: maximum width in pixels
//   - maxHeight: maximum height in pixels
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithSizeLimits(minWidth, minHeight, maxWidth, maxHeight int) WindowBuilderOption {
	return func(s *settings) {
		s.minWidth, s.minHeight = minWidth, minHeight
		s.maxWidth, s.maxHeight = maxWidth, maxHeight
	}
}

// WithWidth sets the initial window width.
//
// Parameters:
//   - width: initial width in pixels
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithWidth(width int) WindowBuilderOption {
	return func(s *settings) {
		s.width = width
	}
}

// WithHeight sets the initial window height.
func WithHeight(height int) WindowBuilderOption {
	return func(s *settings) {
		s.height = height
	}
}
