// Package parser extracts frontmatter, searchable text, and heading outlines
// from Markdown content.
package parser

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"
)

// formats lists the accepted frontmatter headers: YAML between "---" fences
// and TOML between "+++" fences.
var formats = []*frontmatter.Format{
	frontmatter.NewFormat("---", "---", yaml.Unmarshal),
	frontmatter.NewFormat("+++", "+++", toml.Unmarshal),
}

// Meta holds the typed frontmatter fields of an article. Absent fields are zero.
type Meta struct {
	Title       string
	Slug        string
	Date        string
	Category    string
	Tags        []string
	Excerpt     string
	Description string
	Cover       string
	Series      string
	Issue       string
	ReadingTime string
	Draft       bool
}

// Result holds the output of parsing a Markdown file.
type Result struct {
	Meta        Meta
	Frontmatter map[string]any
	Body        []byte
}

// Parse splits raw Markdown into typed frontmatter and body.
// A document without a frontmatter header yields empty Meta and the whole input as body.
// A header that is present but not decodable is an error.
func Parse(data []byte) (*Result, error) {
	fm := map[string]any{}
	body, err := frontmatter.Parse(bytes.NewReader(data), &fm, formats...)
	if err != nil {
		return nil, fmt.Errorf("parser: frontmatter: %w", err)
	}
	meta, err := metaFromMap(fm)
	if err != nil {
		return nil, err
	}
	return &Result{Meta: meta, Frontmatter: fm, Body: body}, nil
}

func metaFromMap(fm map[string]any) (Meta, error) {
	var m Meta
	var err error
	fields := []struct {
		key string
		dst *string
	}{
		{"title", &m.Title},
		{"slug", &m.Slug},
		{"date", &m.Date},
		{"category", &m.Category},
		{"excerpt", &m.Excerpt},
		{"description", &m.Description},
		{"cover", &m.Cover},
		{"series", &m.Series},
		{"issue", &m.Issue},
		{"readingTime", &m.ReadingTime},
	}
	for _, f := range fields {
		if *f.dst, err = scalar(fm, f.key); err != nil {
			return Meta{}, err
		}
	}
	if m.ReadingTime == "" {
		if m.ReadingTime, err = scalar(fm, "reading_time"); err != nil {
			return Meta{}, err
		}
	}
	if m.Tags, err = stringList(fm, "tags"); err != nil {
		return Meta{}, err
	}
	if raw, ok := fm["draft"]; ok {
		switch v := raw.(type) {
		case bool:
			m.Draft = v
		case string:
			m.Draft, _ = strconv.ParseBool(strings.TrimSpace(v))
		default:
			return Meta{}, fmt.Errorf("parser: field %q: expected boolean, got %T", "draft", raw)
		}
	}
	return m, nil
}

// scalar renders a scalar frontmatter value as a trimmed string.
func scalar(fm map[string]any, key string) (string, error) {
	raw, ok := fm[key]
	if !ok || raw == nil {
		return "", nil
	}
	switch v := raw.(type) {
	case string:
		return strings.TrimSpace(v), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	case time.Time:
		if v.Hour() == 0 && v.Minute() == 0 && v.Second() == 0 && v.Nanosecond() == 0 {
			return v.Format("2006-01-02"), nil
		}
		return v.Format(time.RFC3339), nil
	default:
		return "", fmt.Errorf("parser: field %q: expected scalar, got %T", key, raw)
	}
}

// stringList accepts either a sequence of scalars or a comma-separated string.
func stringList(fm map[string]any, key string) ([]string, error) {
	raw, ok := fm[key]
	if !ok || raw == nil {
		return nil, nil
	}
	var out []string
	switch v := raw.(type) {
	case string:
		for _, part := range strings.Split(v, ",") {
			if s := strings.TrimSpace(part); s != "" {
				out = append(out, s)
			}
		}
	case []any:
		for _, item := range v {
			s, err := scalar(map[string]any{key: item}, key)
			if err != nil {
				return nil, err
			}
			if s != "" {
				out = append(out, s)
			}
		}
	default:
		return nil, fmt.Errorf("parser: field %q: expected list, got %T", key, raw)
	}
	return out, nil
}
