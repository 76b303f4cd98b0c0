package models

import "gorm.io/datatypes"

// Template is a selectable portfolio layout
type Template struct {
	ID           string                    `json:"id" gorm:"primaryKey;size:64"`
	Name         string                    `json:"name" gorm:"size:100"`
	Category     string                    `json:"category" gorm:"size:50;index"`
	PreviewURL   string                    `json:"preview_url"`
	DefaultTheme datatypes.JSONType[Theme] `json:"default_theme"`
}

// DefaultTemplates is the seeded catalog
func DefaultTemplates() []Template {
	return []Template{
		{
			ID: "minimal", Name: "Minimal", Category: "general",
			PreviewURL:   "/static/templates/minimal.png",
			DefaultTheme: datatypes.NewJSONType(Theme{PrimaryColor: "#111827", Font: "Inter"}),
		},
		{
			ID: "developer", Name: "Developer", Category: "engineering",
			PreviewURL:   "/static/templates/developer.png",
			DefaultTheme: datatypes.NewJSONType(Theme{PrimaryColor: "#10b981", Font: "JetBrains Mono", DarkMode: true}),
		},
		{
			ID: "creative", Name: "Creative", Category: "design",
			PreviewURL:   "/static/templates/creative.png",
			DefaultTheme: datatypes.NewJSONType(Theme{PrimaryColor: "#ec4899", Font: "Playfair Display"}),
		},
		{
			ID: "academic", Name: "Academic", Category: "research",
			PreviewURL:   "/static/templates/academic.png",
			DefaultTheme: datatypes.NewJSONType(Theme{PrimaryColor: "#1d4ed8", Font: "Merriweather"}),
		},
	}
}
