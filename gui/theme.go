//go:build gui

package gui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

var (
	panelColor  = color.NRGBA{R: 16, G: 16, B: 18, A: 235}
	textColor   = color.NRGBA{R: 210, G: 210, B: 210, A: 255}
	recordColor = color.NRGBA{R: 230, G: 57, B: 70, A: 255}
)

// meterTheme keeps the floating meter window dark and tight around its
// content regardless of the system appearance.
type meterTheme struct{}

func (meterTheme) Color(name fyne.ThemeColorName, _ fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNameBackground, theme.ColorNameOverlayBackground:
		return panelColor
	case theme.ColorNameForeground:
		return textColor
	case theme.ColorNamePrimary, theme.ColorNameError:
		return recordColor
	}
	return theme.DefaultTheme().Color(name, theme.VariantDark)
}

func (meterTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (meterTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (meterTheme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNamePadding, theme.SizeNameInnerPadding:
		return 2
	}
	return theme.DefaultTheme().Size(name)
}
