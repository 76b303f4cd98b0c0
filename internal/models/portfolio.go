package models

import (
	"time"

	"gorm.io/datatypes"
)

type Theme struct {
	PrimaryColor string `json:"primary_color"`
	Font         string `json:"font"`
	DarkMode     bool   `json:"dark_mode"`
}

type Project struct {
	Name        string   `json:"name" validate:"required,max=100"`
	Description string   `json:"description,omitempty"`
	URL         string   `json:"url,omitempty" validate:"omitempty,url"`
	ImageURL    string   `json:"image_url,omitempty" validate:"omitempty,url"`
	Tags        []string `json:"tags,omitempty"`
}

type Skill struct {
	Name  string `json:"name" validate:"required,max=50"`
	Level int    `json:"level,omitempty" validate:"omitempty,min=1,max=5"`
}

type Testimonial struct {
	Author  string `json:"author" validate:"required,max=100"`
	Role    string `json:"role,omitempty"`
	Content string `json:"content" validate:"required,max=2000"`
}

type Portfolio struct {
	ID           string                           `json:"id" gorm:"primaryKey;size:36"`
	UserID       string                           `json:"user_id" gorm:"size:255;index"`
	Slug         string                           `json:"slug" gorm:"size:100;uniqueIndex"`
	TemplateID   string                           `json:"template_id" gorm:"size:64"`
	Theme        datatypes.JSONType[Theme]        `json:"theme"`
	Title        string                           `json:"title" gorm:"size:200"`
	Headline     string                           `json:"headline" gorm:"size:200"`
	Bio          string                           `json:"bio"`
	AvatarURL    string                           `json:"avatar_url,omitempty"`
	Projects     datatypes.JSONSlice[Project]     `json:"projects"`
	Skills       datatypes.JSONSlice[Skill]       `json:"skills"`
	Testimonials datatypes.JSONSlice[Testimonial] `json:"testimonials"`
	Sections     datatypes.JSONSlice[Section]     `json:"sections"`
	Published    bool                             `json:"published" gorm:"index"`
	CreatedAt    time.Time                        `json:"created_at"`
	UpdatedAt    time.Time                        `json:"updated_at"`
}

type PortfolioRequest struct {
	Slug         string        `json:"slug" validate:"required,min=3,max=100"`
	TemplateID   string        `json:"template_id" validate:"required"`
	Theme        *Theme        `json:"theme,omitempty"`
	Title        string        `json:"title" validate:"required,max=200"`
	Headline     string        `json:"headline,omitempty" validate:"omitempty,max=200"`
	Bio          string        `json:"bio,omitempty" validate:"omitempty,max=5000"`
	AvatarURL    string        `json:"avatar_url,omitempty" validate:"omitempty,url"`
	Projects     []Project     `json:"projects,omitempty" validate:"omitempty,dive"`
	Skills       []Skill       `json:"skills,omitempty" validate:"omitempty,dive"`
	Testimonials []Testimonial `json:"testimonials,omitempty" validate:"omitempty,dive"`
	Sections     []Section     `json:"sections,omitempty"`
}
