package render

import "github.com/gdamore/tcell/v2"

// ColorTheme defines application colors.
type ColorTheme struct {
	Background  tcell.Color
	Foreground  tcell.Color
	HiddenFg    tcell.Color
	SelectionBg tcell.Color
	SelectionFg tcell.Color
	DirectoryFg tcell.Color
	SymlinkFg   tcell.Color
	SpecialFg   tcell.Color
	FileFg      tcell.Color
	FooterBg    tcell.Color
	FooterFg    tcell.Color
	PreviewBg   tcell.Color
	PreviewFg   tcell.Color
	TitleFg     tcell.Color
	HexOffsetFg tcell.Color
	WarningFg   tcell.Color
	ErrorFg     tcell.Color
}

// GetColorTheme returns the default color scheme.
func GetColorTheme() ColorTheme {
	return ColorTheme{
		Background:  tcell.ColorDefault,
		Foreground:  tcell.ColorDefault,
		HiddenFg:    tcell.ColorLightSlateGray,
		SelectionBg: tcell.Color33,
		SelectionFg: tcell.ColorWhite,
		DirectoryFg: tcell.Color33,
		SymlinkFg:   tcell.Color51,
		SpecialFg:   tcell.Color178,
		FileFg:      tcell.ColorDefault,
		FooterBg:    tcell.ColorDefault,
		FooterFg:    tcell.ColorDefault,
		PreviewBg:   tcell.ColorDefault,
		PreviewFg:   tcell.ColorDefault,
		TitleFg:     tcell.Color44,
		HexOffsetFg: tcell.Color244,
		WarningFg:   tcell.Color214,
		ErrorFg:     tcell.Color196,
	}
}
