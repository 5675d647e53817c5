// Package settings provides reader display preferences: text size, font and view type.
// Values are stored as enum names under text_size, font and view_type keys.
package settings

import (
	"fmt"
)

// preference keys
const (
	KeyTextSize = "text_size"
	KeyFont     = "font"
	KeyViewType = "view_type"
)

// TextSize of article cards
type TextSize string

// AppFont is a font family choice
type AppFont string

// ViewType is an article layout
type ViewType string

// FontFamily is a resolved font family
type FontFamily string

// enum values, names match stored strings
const (
	Small  TextSize = "Small"
	Medium TextSize = "Medium"
	Large  TextSize = "Large"

	Default   AppFont = "Default"
	Serif     AppFont = "Serif"
	Monospace AppFont = "Monospace"

	HeadlinesOnly ViewType = "HeadlinesOnly"
	Tile          ViewType = "Tile"

	FamilyDefault   FontFamily = "default"
	FamilySerif     FontFamily = "serif"
	FamilyMonospace FontFamily = "monospace"
)

// Prefs is a snapshot of all display preferences
type Prefs struct {
	TextSize TextSize `json:"text_size"`
	Font     AppFont  `json:"font"`
	ViewType ViewType `json:"view_type"`
}

// Defaults returns preferences used when nothing is stored
func Defaults() Prefs {
	return Prefs{TextSize: Medium, Font: Default, ViewType: Tile}
}

// ParseError is a stored preference value which doesn't match any enum name
type ParseError struct {
	Key   string
	Value string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unknown %s value %q", e.Key, e.Value)
}

// ParseTextSize converts stored name to TextSize
func ParseTextSize(s string) (TextSize, error) {
	switch v := TextSize(s); v {
	case Small, Medium, Large:
		return v, nil
	}
	return Medium, &ParseError{Key: KeyTextSize, Value: s}
}

// ParseFont converts stored name to AppFont
func ParseFont(s string) (AppFont, error) {
	switch v := AppFont(s); v {
	case Default, Serif, Monospace:
		return v, nil
	}
	return Default, &ParseError{Key: KeyFont, Value: s}
}

// ParseViewType converts stored name to ViewType
func ParseViewType(s string) (ViewType, error) {
	switch v := ViewType(s); v {
	case HeadlinesOnly, Tile:
		return v, nil
	}
	return Tile, &ParseError{Key: KeyViewType, Value: s}
}

// TitleFontSize in logical size units
func (t TextSize) TitleFontSize() int {
	switch t {
	case Small:
		return 16
	case Large:
		return 24
	default:
		return 20
	}
}

// BodyFontSize in logical size units
func (t TextSize) BodyFontSize() int {
	switch t {
	case Small:
		return 12
	case Large:
		return 16
	default:
		return 14
	}
}

// Family resolves font choice to the font family
func (f AppFont) Family() FontFamily {
	switch f {
	case Serif:
		return FamilySerif
	case Monospace:
		return FamilyMonospace
	default:
		return FamilyDefault
	}
}
