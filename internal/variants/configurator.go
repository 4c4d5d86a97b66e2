package variants

import "strings"

// Rule is one hand-maintained product family: tabletop surface, core and leg material,
// with the leg colors it ships in. Sizes overrides DefaultSizes when set.
type Rule struct {
	Surface   string
	Core      string
	Legs      string
	LegColors []string
	Sizes     []string
}

type Options struct {
	LegColors []string
	Sizes     []string
}

// Labels prefix the two summary lines rendered for a configurator match.
type Labels struct {
	LegColors string
	Sizes     string
}

func (o Options) Render(labels Labels) string {
	return labels.LegColors + " " + strings.Join(o.LegColors, ", ") + "\n" +
		labels.Sizes + " " + strings.Join(o.Sizes, ", ")
}

var DefaultSizes = []string{
	`170 x 85 cm / 67 x 33.5"`,
	`225 x 90 cm / 88.5 x 35.5"`,
	`255 x 108 cm / 100.5 x 42.5"`,
	`295 x 108 cm / 116 x 42.5"`,
}

var standardLegColors = []string{"Black", "Grey", "Sand", "White"}

// Rules is scanned in order; the first surface found in a display name wins.
var Rules = []Rule{
	{Surface: "Black Linoleum", Core: "Plywood", Legs: "Plywood", LegColors: standardLegColors},
	{Surface: "Grey Linoleum", Core: "Plywood", Legs: "Plywood", LegColors: standardLegColors},
	{Surface: "Oak Lacquered Oak Veneer", Core: "Plywood", Legs: "Plywood", LegColors: standardLegColors},
	{Surface: "Oak Oiled Oak", Core: "Oak Oiled Oak", Legs: "Oak Oiled Oak", LegColors: standardLegColors},
	{
		Surface: "Sand Laminate", Core: "Plywood", Legs: "Plywood", LegColors: standardLegColors,
		Sizes: []string{
			`225 x 90 cm / 88.5 x 35.5"`,
			`255 x 108 cm / 100.5 x 42.5"`,
			`295 x 108 cm / 116 x 42.5"`,
		},
	},
	{Surface: "Smoked Oak Oiled Oak", Core: "Smoked Oak Oiled Oak", Legs: "Smoked Oak Oiled Oak", LegColors: standardLegColors},
	{Surface: "White Laminate", Core: "Plywood", Legs: "Plywood", LegColors: standardLegColors},
}

type Configurator struct {
	rules []Rule
}

func NewConfigurator(rules []Rule) *Configurator {
	return &Configurator{rules: rules}
}

func DefaultConfigurator() *Configurator {
	return NewConfigurator(Rules)
}

// Lookup finds the first rule whose surface appears, case-insensitively, anywhere in
// displayName.
func (c *Configurator) Lookup(displayName string) (Options, bool) {
	name := strings.ToLower(displayName)
	for _, r := range c.rules {
		if !strings.Contains(name, strings.ToLower(r.Surface)) {
			continue
		}
		sizes := r.Sizes
		if len(sizes) == 0 {
			sizes = DefaultSizes
		}
		return Options{LegColors: r.LegColors, Sizes: sizes}, true
	}
	return Options{}, false
}
