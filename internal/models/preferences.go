package models

import "slices"

const (
	ThemeLight  = "light"
	ThemeDark   = "dark"
	ThemeSystem = "system"

	DefaultLocale = "en"
)

var SupportedLocales = []string{"en", "ka"}

type Preferences struct {
	Theme  string `json:"theme"`
	Locale string `json:"locale"`
}

func DefaultPreferences() Preferences {
	return Preferences{Theme: ThemeSystem, Locale: DefaultLocale}
}

func ValidTheme(theme string) bool {
	return theme == ThemeLight || theme == ThemeDark || theme == ThemeSystem
}

func ValidLocale(locale string) bool {
	return slices.Contains(SupportedLocales, locale)
}
