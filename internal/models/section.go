package models

import (
	"encoding/json"
	"fmt"
)

type SectionKind string

const (
	SectionEducation   SectionKind = "education"
	SectionExperience  SectionKind = "experience"
	SectionPublication SectionKind = "publication"
	SectionContact     SectionKind = "contact"
	SectionCustom      SectionKind = "custom"
)

// SectionContent is implemented by each known section kind
type SectionContent interface {
	Kind() SectionKind
}

type EducationEntry struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree"`
	Field       string `json:"field,omitempty"`
	StartYear   int    `json:"start_year,omitempty"`
	EndYear     int    `json:"end_year,omitempty"`
}

type Education struct {
	Entries []EducationEntry `json:"entries"`
}

func (Education) Kind() SectionKind { return SectionEducation }

type ExperienceEntry struct {
	Company     string `json:"company"`
	Position    string `json:"position"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
	Description string `json:"description,omitempty"`
}

type Experience struct {
	Entries []ExperienceEntry `json:"entries"`
}

func (Experience) Kind() SectionKind { return SectionExperience }

type PublicationEntry struct {
	Title     string `json:"title"`
	Publisher string `json:"publisher,omitempty"`
	Year      int    `json:"year,omitempty"`
	URL       string `json:"url,omitempty"`
}

type Publication struct {
	Entries []PublicationEntry `json:"entries"`
}

func (Publication) Kind() SectionKind { return SectionPublication }

type Contact struct {
	Email    string            `json:"email,omitempty"`
	Phone    string            `json:"phone,omitempty"`
	Location string            `json:"location,omitempty"`
	Links    map[string]string `json:"links,omitempty"`
}

func (Contact) Kind() SectionKind { return SectionContact }

// Custom holds any section the catalog does not know. Label keeps the kind name it arrived with.
type Custom struct {
	Label      string              `json:"label,omitempty"`
	Properties []map[string]string `json:"properties"`
}

func (Custom) Kind() SectionKind { return SectionCustom }

// Section is a titled, tagged portfolio block
type Section struct {
	Title   string
	Content SectionContent
}

type sectionWire struct {
	Kind    SectionKind     `json:"kind"`
	Title   string          `json:"title"`
	Content json.RawMessage `json:"content"`
}

func (s Section) MarshalJSON() ([]byte, error) {
	content := s.Content
	if content == nil {
		content = Custom{}
	}
	raw, err := json.Marshal(content)
	if err != nil {
		return nil, err
	}
	kind := content.Kind()
	if c, ok := content.(Custom); ok && c.Label != "" {
		kind = SectionKind(c.Label)
	}
	return json.Marshal(sectionWire{Kind: kind, Title: s.Title, Content: raw})
}

func (s *Section) UnmarshalJSON(data []byte) error {
	var w sectionWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	s.Title = w.Title

	var content SectionContent
	switch w.Kind {
	case SectionEducation:
		content = decodeSection[Education](w.Content)
	case SectionExperience:
		content = decodeSection[Experience](w.Content)
	case SectionPublication:
		content = decodeSection[Publication](w.Content)
	case SectionContact:
		content = decodeSection[Contact](w.Content)
	default:
		custom := decodeCustom(w.Content)
		if w.Kind != SectionCustom && w.Kind != "" {
			custom.Label = string(w.Kind)
		}
		content = custom
	}
	if content == nil {
		return fmt.Errorf("section %q: malformed %s content", w.Title, w.Kind)
	}
	s.Content = content
	return nil
}

func decodeSection[T SectionContent](raw json.RawMessage) SectionContent {
	var v T
	if len(raw) == 0 || string(raw) == "null" {
		return v
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}

// decodeCustom accepts either the Custom shape or a bare list/object of string properties
func decodeCustom(raw json.RawMessage) Custom {
	var c Custom
	if len(raw) == 0 || string(raw) == "null" {
		return c
	}
	if err := json.Unmarshal(raw, &c); err == nil && c.Properties != nil {
		return c
	}
	var items []map[string]any
	if err := json.Unmarshal(raw, &items); err == nil {
		c.Properties = stringify(items)
		return c
	}
	var item map[string]any
	if err := json.Unmarshal(raw, &item); err == nil {
		c.Properties = stringify([]map[string]any{item})
	}
	return c
}

func stringify(items []map[string]any) []map[string]string {
	out := make([]map[string]string, 0, len(items))
	for _, item := range items {
		m := make(map[string]string, len(item))
		for k, v := range item {
			if s, ok := v.(string); ok {
				m[k] = s
				continue
			}
			m[k] = fmt.Sprint(v)
		}
		out = append(out, m)
	}
	return out
}
