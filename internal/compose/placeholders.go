package compose

import (
	"strings"

	"catalogdeck/internal"
	"catalogdeck/internal/config"
	"catalogdeck/internal/images"
	"catalogdeck/internal/util"
)

type TextValue struct {
	Token string
	Value string
}

type LinkValue struct {
	Token string
	Label string
	URL   string
}

type ImageValue struct {
	Token string
	URL   string
}

// PlaceholderSet holds every value bound to one item's slide. Slices keep substitution in
// declaration order.
type PlaceholderSet struct {
	Item   string
	Text   []TextValue
	Links  []LinkValue
	Images []ImageValue
}

// ImageRequests lists the image tokens that have a URL.
func (s PlaceholderSet) ImageRequests() []images.Request {
	out := []images.Request{}
	for _, img := range s.Images {
		if util.IsBlank(img.URL) {
			continue
		}
		out = append(out, images.Request{Token: img.Token, URL: strings.TrimSpace(img.URL)})
	}
	return out
}

// StockSource renders the availability summaries of a catalog row.
type StockSource interface {
	ResolveRTS(row internal.Record) (string, error)
	ResolveMTO(row internal.Record) (string, error)
}

// FormatField joins label and value according to style. A blank value renders as "".
func FormatField(style config.FieldStyle, label, value string) string {
	if util.IsBlank(value) {
		return ""
	}
	switch style {
	case config.StyleInline:
		return label + " " + value
	case config.StyleSpaced:
		return label + "\n\n" + value
	default:
		return label + "\n" + value
	}
}

// Availability holds the rendered RTS and MTO bodies of one item.
type Availability struct {
	RTS string
	MTO string
}

// ResolveAvailability renders both summaries. A resolver error degrades that summary to ""
// and is reported as a warning.
func ResolveAvailability(item string, row internal.Record, stock StockSource, profile config.Profile) (Availability, []internal.Warning) {
	var (
		out      Availability
		warnings []internal.Warning
		err      error
	)
	if out.RTS, err = stock.ResolveRTS(row); err != nil {
		warnings = append(warnings, internal.Warning{Item: item, Field: profile.RTSToken, Message: err.Error()})
		out.RTS = ""
	}
	if out.MTO, err = stock.ResolveMTO(row); err != nil {
		warnings = append(warnings, internal.Warning{Item: item, Field: profile.MTOToken, Message: err.Error()})
		out.MTO = ""
	}
	return out, warnings
}

// BuildPlaceholders binds a matched catalog row to the profile's tokens.
func BuildPlaceholders(item string, row internal.Record, avail Availability, profile config.Profile) PlaceholderSet {
	set := PlaceholderSet{Item: item}

	for _, f := range profile.TextFields {
		value := row.Get(util.Normalize(f.Token))
		set.Text = append(set.Text, TextValue{Token: f.Token, Value: FormatField(f.Style, f.Label, value)})
	}
	set.Text = append(set.Text,
		TextValue{Token: profile.RTSToken, Value: profile.RTSHeading + "\n\n" + avail.RTS},
		TextValue{Token: profile.MTOToken, Value: profile.MTOHeading + "\n\n" + avail.MTO},
	)

	for _, l := range profile.Links {
		url := row.Get(util.Normalize(l.Token))
		if util.IsBlank(url) {
			url = ""
		}
		set.Links = append(set.Links, LinkValue{Token: l.Token, Label: l.Label, URL: strings.TrimSpace(url)})
	}
	for _, token := range profile.Images {
		url := row.Get(util.Normalize(token))
		if util.IsBlank(url) {
			url = ""
		}
		set.Images = append(set.Images, ImageValue{Token: token, URL: strings.TrimSpace(url)})
	}
	return set
}

// MissingPlaceholders is the set for an item with no catalog row: only the code is shown,
// the availability headings stay with empty bodies and links and images are blanked.
func MissingPlaceholders(item string, profile config.Profile) PlaceholderSet {
	set := PlaceholderSet{Item: item}
	for _, f := range profile.TextFields {
		value := ""
		if f.Token == profile.CodeToken {
			value = f.Label + " " + item
		}
		set.Text = append(set.Text, TextValue{Token: f.Token, Value: value})
	}
	set.Text = append(set.Text,
		TextValue{Token: profile.RTSToken, Value: profile.RTSHeading + "\n\n"},
		TextValue{Token: profile.MTOToken, Value: profile.MTOHeading + "\n\n"},
	)
	for _, l := range profile.Links {
		set.Links = append(set.Links, LinkValue{Token: l.Token})
	}
	for _, token := range profile.Images {
		set.Images = append(set.Images, ImageValue{Token: token})
	}
	return set
}
