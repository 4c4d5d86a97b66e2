package compose

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"catalogdeck/internal"
	"catalogdeck/internal/images"
	"catalogdeck/internal/pptx"
	"catalogdeck/internal/util"
)

// ImageSource resolves image requests to bitmaps; a nil bitmap means the image is absent.
type ImageSource interface {
	FetchAll(ctx context.Context, reqs []images.Request) map[string]*images.Bitmap
}

type Composer struct {
	images ImageSource

	mu       sync.Mutex
	patterns map[string]*regexp.Regexp
}

func NewComposer(images ImageSource) *Composer {
	return &Composer{images: images, patterns: map[string]*regexp.Regexp{}}
}

// Compose clones template into deck and fills the clone from set.
func (c *Composer) Compose(ctx context.Context, deck *pptx.Deck, template *pptx.Slide, set PlaceholderSet) (*pptx.Slide, []internal.Warning, error) {
	slide, err := deck.AddSlideFrom(template)
	if err != nil {
		return nil, nil, fmt.Errorf("clone template for %s: %w", set.Item, err)
	}
	return slide, c.Fill(ctx, slide, set), nil
}

// Fill runs the text, hyperlink and image passes over slide. Every image is fetched before
// any substitution starts.
func (c *Composer) Fill(ctx context.Context, slide *pptx.Slide, set PlaceholderSet) []internal.Warning {
	var bitmaps map[string]*images.Bitmap
	if reqs := set.ImageRequests(); len(reqs) > 0 && c.images != nil {
		bitmaps = c.images.FetchAll(ctx, reqs)
	}

	var warnings []internal.Warning
	c.replaceText(slide, set)
	warnings = append(warnings, c.replaceLinks(slide, set)...)
	warnings = append(warnings, c.replaceImages(slide, set, bitmaps)...)
	for _, w := range warnings {
		slog.Warn("Degraded slide field", "item", w.Item, "field", w.Field, "reason", w.Message)
	}
	return warnings
}

// pattern matches "{{ name }}" with any whitespace inside the braces.
func (c *Composer) pattern(token string) *regexp.Regexp {
	c.mu.Lock()
	defer c.mu.Unlock()
	if re, ok := c.patterns[token]; ok {
		return re
	}
	key := strings.TrimSpace(strings.Trim(token, "{}"))
	re := regexp.MustCompile(`\{\{\s*` + regexp.QuoteMeta(key) + `\s*\}\}`)
	c.patterns[token] = re
	return re
}

// textPattern matches any of the given tokens in one alternation, so a substituted value is
// never scanned again for further tokens.
func (c *Composer) textPattern(tokens []string) *regexp.Regexp {
	key := "text\x00" + strings.Join(tokens, "\x00")
	c.mu.Lock()
	defer c.mu.Unlock()
	if re, ok := c.patterns[key]; ok {
		return re
	}
	alts := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		name := strings.TrimSpace(strings.Trim(tok, "{}"))
		alts = append(alts, regexp.QuoteMeta(name))
	}
	re := regexp.MustCompile(`\{\{\s*(?:` + strings.Join(alts, "|") + `)\s*\}\}`)
	c.patterns[key] = re
	return re
}

// replaceText substitutes per paragraph on the joined run text so tokens split across runs
// still match. Paragraphs holding a link token are collapsed too, leaving the token in one
// run for the hyperlink pass.
func (c *Composer) replaceText(slide *pptx.Slide, set PlaceholderSet) {
	if len(set.Text) == 0 {
		return
	}
	tokens := make([]string, 0, len(set.Text))
	values := map[string]string{}
	for _, v := range set.Text {
		tokens = append(tokens, v.Token)
		key := util.Normalize(strings.Trim(v.Token, "{}"))
		if _, dup := values[key]; !dup {
			values[key] = v.Value
		}
	}
	re := c.textPattern(tokens)
	substitute := func(match string) string {
		return values[util.Normalize(strings.Trim(match, "{}"))]
	}

	for _, shape := range slide.Shapes() {
		for _, para := range shape.Paragraphs() {
			text := para.Text()
			out := re.ReplaceAllStringFunc(text, substitute)
			if out != text || (len(para.Runs()) > 1 && c.hasLinkToken(out, set)) {
				para.SetText(out)
			}
		}
	}
}

func (c *Composer) hasLinkToken(text string, set PlaceholderSet) bool {
	for _, l := range set.Links {
		if c.pattern(l.Token).MatchString(text) {
			return true
		}
	}
	return false
}

func (c *Composer) replaceLinks(slide *pptx.Slide, set PlaceholderSet) []internal.Warning {
	var warnings []internal.Warning
	for _, shape := range slide.Shapes() {
		for _, para := range shape.Paragraphs() {
			for _, run := range para.Runs() {
				for _, l := range set.Links {
					re := c.pattern(l.Token)
					if !re.MatchString(run.Text()) {
						continue
					}
					run.SetText(re.ReplaceAllLiteralString(run.Text(), l.Label))
					if err := run.SetHyperlink(l.URL); err != nil {
						warnings = append(warnings, internal.Warning{Item: set.Item, Field: l.Token, Message: err.Error()})
					}
				}
			}
		}
	}
	return warnings
}

// replaceImages swaps the first image token of each shape for its picture, scaled to fit
// the shape. The token text is cleared whether or not a picture was placed.
func (c *Composer) replaceImages(slide *pptx.Slide, set PlaceholderSet, bitmaps map[string]*images.Bitmap) []internal.Warning {
	var warnings []internal.Warning
	for _, shape := range slide.Shapes() {
		text := util.Normalize(shape.Text())
		for _, img := range set.Images {
			if !strings.Contains(text, util.Normalize(img.Token)) {
				continue
			}
			bmp := bitmaps[img.Token]
			switch {
			case bmp != nil:
				if err := placePicture(slide, shape, bmp); err != nil {
					warnings = append(warnings, internal.Warning{Item: set.Item, Field: img.Token, Message: err.Error()})
				}
			case !util.IsBlank(img.URL):
				warnings = append(warnings, internal.Warning{Item: set.Item, Field: img.Token, Message: "image unavailable: " + img.URL})
			}
			shape.ClearText()
			break
		}
	}
	return warnings
}

func placePicture(slide *pptx.Slide, shape *pptx.Shape, bmp *images.Bitmap) error {
	frame, ok := shape.Frame()
	if !ok {
		return fmt.Errorf("shape %q has no position", shape.Name())
	}
	if bmp.Width <= 0 || bmp.Height <= 0 {
		return fmt.Errorf("image has no size")
	}
	w, h := float64(bmp.Width), float64(bmp.Height)
	scale := min(float64(frame.CX)/w, float64(frame.CY)/h)
	return slide.AddPicture(bmp.Data, pptx.Rect{
		X:  frame.X,
		Y:  frame.Y,
		CX: int64(w * scale),
		CY: int64(h * scale),
	})
}

var anyToken = regexp.MustCompile(`\{\{[^{}]*\}\}`)

// Tokens lists the distinct "{{...}}" markers on slide in reading order.
func Tokens(slide *pptx.Slide) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, tok := range anyToken.FindAllString(slide.Text(), -1) {
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}
