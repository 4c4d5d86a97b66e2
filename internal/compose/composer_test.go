package compose

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"catalogdeck/internal"
	"catalogdeck/internal/config"
	"catalogdeck/internal/images"
	"catalogdeck/internal/pptx"
	"catalogdeck/internal/pptx/pptxtest"
)

type stubStock struct {
	rts, mto string
	mtoErr   error
}

func (s stubStock) ResolveRTS(internal.Record) (string, error) { return s.rts, nil }
func (s stubStock) ResolveMTO(internal.Record) (string, error) { return s.mto, s.mtoErr }

type stubImages struct {
	bitmaps map[string]*images.Bitmap
	calls   int
}

func (s *stubImages) FetchAll(_ context.Context, reqs []images.Request) map[string]*images.Bitmap {
	s.calls++
	out := map[string]*images.Bitmap{}
	for _, r := range reqs {
		out[r.Token] = s.bitmaps[r.URL]
	}
	return out
}

func templateDeck(t *testing.T, slide pptxtest.Slide) (*pptx.Deck, *pptx.Slide) {
	t.Helper()
	deck, err := pptx.OpenBytes(pptxtest.Build(slide))
	if err != nil {
		t.Fatal(err)
	}
	tpl, err := deck.DetachSlide(0)
	if err != nil {
		t.Fatal(err)
	}
	return deck, tpl
}

func shapeTexts(s *pptx.Slide) []string {
	out := []string{}
	for _, sh := range s.Shapes() {
		out = append(out, sh.Text())
	}
	return out
}

func catalogRow() internal.Record {
	return internal.Record{
		"{{productname}}":            "Frame Chair",
		"{{productcode}}":            "03194",
		"{{productcountryoforigin}}": "Denmark",
		"{{productheight}}":          "80 cm",
		"{{productwidth}}":           "",
		"{{productlength}}":          " ",
		"{{productdepth}}":           "50 cm",
		"{{productseatheight}}":      "45 cm",
		"{{productdiameter}}":        "",
		"{{certificatename}}":        "EN 16139",
		"{{productconsumptioncom}}":  "1.2 m",
		"productkey":                 "K1",
	}
}

func TestFormatField(t *testing.T) {
	cases := []struct {
		style config.FieldStyle
		value string
		want  string
	}{
		{style: config.StyleInline, value: "03194", want: "Code: 03194"},
		{style: config.StyleBlock, value: "80 cm", want: "Code:\n80 cm"},
		{style: config.StyleSpaced, value: "EN 16139", want: "Code:\n\nEN 16139"},
		{style: config.StyleInline, value: "  ", want: ""},
		{style: config.StyleSpaced, value: "", want: ""},
	}
	for _, tc := range cases {
		if got := FormatField(tc.style, "Code:", tc.value); got != tc.want {
			t.Fatalf("FormatField(%s, %q)=%q want %q", tc.style, tc.value, got, tc.want)
		}
	}
}

func TestBuildPlaceholders(t *testing.T) {
	profile := config.DefaultProfile()
	row := catalogRow()
	row["{{productfactsheetlink}}"] = " https://example.test/sheet.pdf "
	row["{{productpackshot1}}"] = "https://img.test/p.png"

	avail, warnings := ResolveAvailability("03194", row, stubStock{rts: "Black: Large", mtoErr: errors.New("no mto column")}, profile)
	set := BuildPlaceholders("03194", row, avail, profile)

	if len(warnings) != 1 || warnings[0].Field != "{{Product MTO}}" || warnings[0].Item != "03194" {
		t.Fatalf("warnings=%v", warnings)
	}
	got := map[string]string{}
	for _, v := range set.Text {
		got[v.Token] = v.Value
	}
	want := map[string]string{
		"{{Product name}}":               "Product Name: Frame Chair",
		"{{Product code}}":               "Product Code: 03194",
		"{{Product country of origin}}":  "Country of origin: Denmark",
		"{{Product height}}":             "Height:\n80 cm",
		"{{Product width}}":              "",
		"{{Product length}}":             "",
		"{{Product depth}}":              "Depth:\n50 cm",
		"{{Product seat height}}":        "Seat Height:\n45 cm",
		"{{Product diameter}}":           "",
		"{{CertificateName}}":            "Test & certificates for the product:\n\nEN 16139",
		"{{Product Consumption COM}}":    "Consumption information for COM:\n\n1.2 m",
		"{{Product RTS}}":                "Product in stock versions:\n\nBlack: Large",
		"{{Product MTO}}":                "Avilable for made to order:\n\n",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("text values:\n got %v\nwant %v", got, want)
	}
	if set.Text[0].Token != "{{Product name}}" || set.Text[len(set.Text)-1].Token != "{{Product MTO}}" {
		t.Fatal("text values out of declaration order")
	}
	if set.Links[0].URL != "https://example.test/sheet.pdf" || set.Links[1].URL != "" {
		t.Fatalf("links=%+v", set.Links)
	}
	reqs := set.ImageRequests()
	if len(reqs) != 1 || reqs[0].Token != "{{Product Packshot1}}" {
		t.Fatalf("image requests=%+v", reqs)
	}
}

func TestMissingPlaceholders(t *testing.T) {
	set := MissingPlaceholders("99999-X", config.DefaultProfile())
	for _, v := range set.Text {
		switch v.Token {
		case "{{Product code}}":
			if v.Value != "Product Code: 99999-X" {
				t.Fatalf("code=%q", v.Value)
			}
		case "{{Product RTS}}":
			if v.Value != "Product in stock versions:\n\n" {
				t.Fatalf("rts=%q", v.Value)
			}
		case "{{Product MTO}}":
			if v.Value != "Avilable for made to order:\n\n" {
				t.Fatalf("mto=%q", v.Value)
			}
		default:
			if v.Value != "" {
				t.Fatalf("%s=%q", v.Token, v.Value)
			}
		}
	}
	if len(set.ImageRequests()) != 0 {
		t.Fatal("missing item should not fetch images")
	}
}

func TestComposeEndToEnd(t *testing.T) {
	deck, tpl := templateDeck(t, pptxtest.TextSlide(
		"{{Product code}}",
		"{{Product name}}",
		"{{Product height}}",
		"{{Product width}}",
		"{{CertificateName}}",
		"{{Product RTS}}",
		"{{Product MTO}}",
		"{{Product Fact Sheet link}}",
		"{{Product Packshot1}}",
	))
	set := BuildPlaceholders("03194", catalogRow(), Availability{}, config.DefaultProfile())
	imgs := &stubImages{}
	slide, warnings, err := NewComposer(imgs).Compose(context.Background(), deck, tpl, set)
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 0 {
		t.Fatalf("warnings=%v", warnings)
	}
	if imgs.calls != 0 {
		t.Fatal("no image urls, no fetch expected")
	}

	want := []string{
		"Product Code: 03194",
		"Product Name: Frame Chair",
		"Height:\n80 cm",
		"",
		"Test & certificates for the product:\n\nEN 16139",
		"Product in stock versions:\n\n",
		"Avilable for made to order:\n\n",
		"Download Product Fact Sheet",
		"",
	}
	if got := shapeTexts(slide); !reflect.DeepEqual(got, want) {
		t.Fatalf("texts:\n got %q\nwant %q", got, want)
	}
	if len(slide.Pictures()) != 0 {
		t.Fatal("unexpected picture")
	}
	if link := slide.Shapes()[7].Paragraphs()[0].Runs()[0].Hyperlink(); link != "" {
		t.Fatalf("unexpected link %q", link)
	}
	if deck.Len() != 1 {
		t.Fatalf("deck len=%d", deck.Len())
	}
}

func TestComposeSplitAndSpacedTokens(t *testing.T) {
	deck, tpl := templateDeck(t, pptxtest.Slide{Shapes: []pptxtest.Shape{
		{Paragraphs: [][]string{{"Code: {{Pro", "duct co", "de}}!"}}, CX: 10, CY: 10},
		{Paragraphs: [][]string{{"{{  Product name }}"}}, CX: 10, CY: 10},
		{Paragraphs: [][]string{{"{{product name}}"}}, CX: 10, CY: 10},
		{Paragraphs: [][]string{{"{{Product Fact ", "Sheet link}}"}}, CX: 10, CY: 10},
	}})
	set := PlaceholderSet{
		Item:  "03194",
		Text:  []TextValue{{Token: "{{Product code}}", Value: "03194"}, {Token: "{{Product name}}", Value: "Chair $1"}},
		Links: []LinkValue{{Token: "{{Product Fact Sheet link}}", Label: "Sheet", URL: "https://example.test/s.pdf"}},
	}
	slide, _, err := NewComposer(nil).Compose(context.Background(), deck, tpl, set)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Code: 03194!", "Chair $1", "{{product name}}", "Sheet"}
	if got := shapeTexts(slide); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q want %q", got, want)
	}
	runs := slide.Shapes()[3].Paragraphs()[0].Runs()
	if len(runs) != 1 || runs[0].Hyperlink() != "https://example.test/s.pdf" {
		t.Fatalf("link not applied to collapsed run: %d runs", len(runs))
	}
}

func TestComposeDoesNotExpandTokensInValues(t *testing.T) {
	deck, tpl := templateDeck(t, pptxtest.Slide{Shapes: []pptxtest.Shape{
		{Paragraphs: [][]string{{"{{Product name}} / {{Product code}}"}}, CX: 10, CY: 10},
	}})
	set := PlaceholderSet{
		Item: "03194",
		Text: []TextValue{
			{Token: "{{Product name}}", Value: "Chair {{Product code}}"},
			{Token: "{{Product code}}", Value: "03194"},
		},
	}
	slide, _, err := NewComposer(nil).Compose(context.Background(), deck, tpl, set)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Chair {{Product code}} / 03194"}
	if got := shapeTexts(slide); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestComposeInvalidLinkKeepsLabel(t *testing.T) {
	deck, tpl := templateDeck(t, pptxtest.TextSlide("{{Product configurator link}}"))
	set := PlaceholderSet{
		Item:  "03194",
		Links: []LinkValue{{Token: "{{Product configurator link}}", Label: "Click to configure product", URL: "http://[::1"}},
	}
	slide, warnings, err := NewComposer(nil).Compose(context.Background(), deck, tpl, set)
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 1 || warnings[0].Field != "{{Product configurator link}}" {
		t.Fatalf("warnings=%v", warnings)
	}
	if got := slide.Text(); got != "Click to configure product" {
		t.Fatalf("text=%q", got)
	}
}

func TestComposeImages(t *testing.T) {
	deck, tpl := templateDeck(t, pptxtest.TextSlide(
		"{{Product Packshot1}}",
		"{{ Product Lifestyle1 }}",
		"{{Product Lifestyle2}}",
	))
	imgs := &stubImages{bitmaps: map[string]*images.Bitmap{
		"https://img.test/pack.png": {Data: []byte("jpeg"), Width: 400, Height: 100},
	}}
	set := PlaceholderSet{
		Item: "03194",
		Images: []ImageValue{
			{Token: "{{Product Packshot1}}", URL: "https://img.test/pack.png"},
			{Token: "{{Product Lifestyle1}}", URL: "https://img.test/broken.png"},
			{Token: "{{Product Lifestyle2}}", URL: ""},
		},
	}
	slide, warnings, err := NewComposer(imgs).Compose(context.Background(), deck, tpl, set)
	if err != nil {
		t.Fatal(err)
	}
	if imgs.calls != 1 {
		t.Fatalf("FetchAll calls=%d", imgs.calls)
	}
	if len(warnings) != 1 || warnings[0].Field != "{{Product Lifestyle1}}" {
		t.Fatalf("warnings=%v", warnings)
	}
	if got := shapeTexts(slide); !reflect.DeepEqual(got, []string{"", "", ""}) {
		t.Fatalf("texts=%q", got)
	}
	if n := len(slide.Pictures()); n != 1 {
		t.Fatalf("pictures=%d", n)
	}

	blob, err := deck.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	reopened, err := pptx.OpenBytes(blob)
	if err != nil {
		t.Fatal(err)
	}
	if n := len(reopened.Slides()[0].Pictures()); n != 1 {
		t.Fatalf("pictures after save=%d", n)
	}
}

func TestPlacePictureScalesToFit(t *testing.T) {
	deck, tpl := templateDeck(t, pptxtest.TextSlide("{{img}}"))
	slide, err := deck.AddSlideFrom(tpl)
	if err != nil {
		t.Fatal(err)
	}
	shape := slide.Shapes()[0]
	// TextSlide frames are 2000000 x 1000000 EMU.
	if err := placePicture(slide, shape, &images.Bitmap{Data: []byte("x"), Width: 400, Height: 100}); err != nil {
		t.Fatal(err)
	}
	pics := slide.Pictures()
	if len(pics) != 1 {
		t.Fatalf("pictures=%d", len(pics))
	}
	if f := pics[0].Frame; f.CX != 2000000 || f.CY != 500000 || f.X != 0 || f.Y != 100000 {
		t.Fatalf("frame=%+v", f)
	}
	if err := placePicture(slide, shape, &images.Bitmap{}); err == nil {
		t.Fatal("expected error for empty bitmap")
	}
}

func TestComposeIsIdempotent(t *testing.T) {
	profile := config.DefaultProfile()
	set := BuildPlaceholders("03194", catalogRow(), Availability{RTS: "Black: Large", MTO: "White"}, profile)
	slide := pptxtest.TextSlide("{{Product code}}", "{{Product RTS}}", "{{Product MTO}}", "{{CertificateName}}")

	var outputs [][]string
	for i := 0; i < 2; i++ {
		deck, tpl := templateDeck(t, slide)
		s, _, err := NewComposer(nil).Compose(context.Background(), deck, tpl, set)
		if err != nil {
			t.Fatal(err)
		}
		outputs = append(outputs, shapeTexts(s))
	}
	if !reflect.DeepEqual(outputs[0], outputs[1]) {
		t.Fatalf("outputs differ: %q vs %q", outputs[0], outputs[1])
	}
}
