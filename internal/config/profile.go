package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"catalogdeck/internal/util"
)

// FieldStyle decides how a label and its value are joined on the slide.
type FieldStyle string

const (
	StyleInline FieldStyle = "inline" // "{label} {value}"
	StyleBlock  FieldStyle = "block"  // "{label}\n{value}"
	StyleSpaced FieldStyle = "spaced" // "{label}\n\n{value}"
)

type TextField struct {
	Token string     `yaml:"token"`
	Label string     `yaml:"label"`
	Style FieldStyle `yaml:"style"`
}

type LinkField struct {
	Token string `yaml:"token"`
	Label string `yaml:"label"`
}

// Profile describes which catalog columns feed which template tokens and how they
// are labelled. Catalog column names are the normalized tokens.
type Profile struct {
	CodeToken      string      `yaml:"code_token"`
	NameToken      string      `yaml:"name_token"`
	StockKeyColumn string      `yaml:"stock_key_column"`
	TextFields     []TextField `yaml:"text_fields"`
	Links          []LinkField `yaml:"links"`
	Images         []string    `yaml:"images"`

	RTSToken   string `yaml:"rts_token"`
	RTSHeading string `yaml:"rts_heading"`
	MTOToken   string `yaml:"mto_token"`
	MTOHeading string `yaml:"mto_heading"`

	LegColorsLabel string `yaml:"leg_colors_label"`
	SizesLabel     string `yaml:"sizes_label"`
}

func DefaultProfile() Profile {
	return Profile{
		CodeToken:      "{{Product code}}",
		NameToken:      "{{Product name}}",
		StockKeyColumn: "ProductKey",
		TextFields: []TextField{
			{Token: "{{Product name}}", Label: "Product Name:", Style: StyleInline},
			{Token: "{{Product code}}", Label: "Product Code:", Style: StyleInline},
			{Token: "{{Product country of origin}}", Label: "Country of origin:", Style: StyleInline},
			{Token: "{{Product height}}", Label: "Height:", Style: StyleBlock},
			{Token: "{{Product width}}", Label: "Width:", Style: StyleBlock},
			{Token: "{{Product length}}", Label: "Length:", Style: StyleBlock},
			{Token: "{{Product depth}}", Label: "Depth:", Style: StyleBlock},
			{Token: "{{Product seat height}}", Label: "Seat Height:", Style: StyleBlock},
			{Token: "{{Product diameter}}", Label: "Diameter:", Style: StyleBlock},
			{Token: "{{CertificateName}}", Label: "Test & certificates for the product:", Style: StyleSpaced},
			{Token: "{{Product Consumption COM}}", Label: "Consumption information for COM:", Style: StyleSpaced},
		},
		Links: []LinkField{
			{Token: "{{Product Fact Sheet link}}", Label: "Download Product Fact Sheet"},
			{Token: "{{Product configurator link}}", Label: "Click to configure product"},
		},
		Images: []string{
			"{{Product Packshot1}}",
			"{{Product Lifestyle1}}",
			"{{Product Lifestyle2}}",
			"{{Product Lifestyle3}}",
			"{{Product Lifestyle4}}",
		},
		RTSToken:       "{{Product RTS}}",
		RTSHeading:     "Product in stock versions:",
		MTOToken:       "{{Product MTO}}",
		MTOHeading:     "Avilable for made to order:",
		LegColorsLabel: "Leg colors:",
		SizesLabel:     "Sizes:",
	}
}

// LoadProfile overlays the YAML file at path onto DefaultProfile. Lists present in the
// file replace the defaults wholesale. An empty path yields the defaults.
func LoadProfile(path string) (Profile, error) {
	p := DefaultProfile()
	if strings.TrimSpace(path) == "" {
		return p, nil
	}
	blob, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read deck profile: %w", err)
	}
	if err := yaml.Unmarshal(blob, &p); err != nil {
		return Profile{}, fmt.Errorf("parse deck profile %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return Profile{}, fmt.Errorf("deck profile %s: %w", path, err)
	}
	return p, nil
}

func (p Profile) Validate() error {
	if util.IsBlank(p.CodeToken) {
		return fmt.Errorf("code_token is required")
	}
	if util.IsBlank(p.StockKeyColumn) {
		return fmt.Errorf("stock_key_column is required")
	}
	hasCode := false
	for _, f := range p.TextFields {
		switch f.Style {
		case StyleInline, StyleBlock, StyleSpaced:
		default:
			return fmt.Errorf("text field %s: unknown style %q", f.Token, f.Style)
		}
		if f.Token == p.CodeToken {
			hasCode = true
		}
	}
	if !hasCode {
		return fmt.Errorf("code_token %s is not listed in text_fields", p.CodeToken)
	}
	return nil
}

func (p Profile) CodeColumn() string { return util.Normalize(p.CodeToken) }
func (p Profile) NameColumn() string { return util.Normalize(p.NameToken) }
func (p Profile) StockKeyField() string { return util.Normalize(p.StockKeyColumn) }

// RequiredCatalogColumns lists every normalized column the catalog sheet must carry.
func (p Profile) RequiredCatalogColumns() []string {
	cols := []string{}
	for _, f := range p.TextFields {
		cols = append(cols, util.Normalize(f.Token))
	}
	for _, l := range p.Links {
		cols = append(cols, util.Normalize(l.Token))
	}
	for _, img := range p.Images {
		cols = append(cols, util.Normalize(img))
	}
	return append(cols, p.StockKeyField())
}

// Tokens lists every template token the profile fills, in substitution order.
func (p Profile) Tokens() []string {
	out := []string{}
	for _, f := range p.TextFields {
		out = append(out, f.Token)
	}
	out = append(out, p.RTSToken, p.MTOToken)
	for _, l := range p.Links {
		out = append(out, l.Token)
	}
	return append(out, p.Images...)
}
