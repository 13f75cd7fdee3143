package dto

// OverlayRender is one frame of an overlay plugin's dialog.
type OverlayRender struct {
	Title  string
	Width  int
	Height int
	Close  bool
	Tick   bool
	Lines  []string
}
