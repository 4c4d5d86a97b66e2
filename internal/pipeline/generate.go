package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"catalogdeck/internal"
	"catalogdeck/internal/catalog"
	"catalogdeck/internal/compose"
	"catalogdeck/internal/config"
	"catalogdeck/internal/pptx"
	"catalogdeck/internal/stock"
	"catalogdeck/internal/util"
	"catalogdeck/internal/variants"
)

// Paths are the files one run reads and writes.
type Paths struct {
	Catalog  string
	Stock    string
	Template string
	Output   string
	Missing  string
	Report   string
}

func PathsFromConfig(cfg config.Config) Paths {
	return Paths{
		Catalog:  cfg.MappingFilePath,
		Stock:    cfg.StockFilePath,
		Template: cfg.TemplateFilePath,
		Output:   cfg.OutputPath,
		Missing:  cfg.MissingItemsPath,
		Report:   cfg.ReportPath,
	}
}

// ItemOutcome records what happened to one input code. MatchedCode is the catalog code of
// the matched row, which differs from Item.Code on a prefix match.
type ItemOutcome struct {
	Item        internal.ItemCode
	Match       internal.MatchResult
	Found       bool
	MatchedCode string
	RTS         string
	MTO         string
	Warnings    []internal.Warning
}

type Result struct {
	Slides   int
	Missing  []string
	Warnings []internal.Warning
	Outcomes []ItemOutcome
}

// Generator turns item codes into slides cloned from a template.
type Generator struct {
	profile   config.Profile
	matcher   *catalog.Matcher
	resolver  *stock.Resolver
	composer  *compose.Composer
	batchSize int
}

func NewGenerator(profile config.Profile, catalogTable, stockTable *internal.Table, images compose.ImageSource, batchSize int) *Generator {
	if batchSize <= 0 {
		batchSize = 10
	}
	labels := variants.Labels{LegColors: profile.LegColorsLabel, Sizes: profile.SizesLabel}
	return &Generator{
		profile:   profile,
		matcher:   catalog.NewMatcher(catalogTable, profile.CodeColumn()),
		resolver:  stock.NewResolver(stockTable, variants.DefaultConfigurator(), labels, profile.StockKeyField(), profile.NameColumn()),
		composer:  compose.NewComposer(images),
		batchSize: batchSize,
	}
}

// Run detaches the deck's first slide as the template and appends one slide per item.
// Items are handled one at a time; batches only pace progress logging.
func (g *Generator) Run(ctx context.Context, deck *pptx.Deck, items []internal.ItemCode) (Result, error) {
	template, err := deck.DetachSlide(0)
	if err != nil {
		return Result{}, fmt.Errorf("template: %w", err)
	}

	res := Result{}
	batches := (len(items) + g.batchSize - 1) / g.batchSize
	slog.Info("Generating slides", "items", len(items), "batches", batches)

	for b := 0; b < batches; b++ {
		slog.Info("Processing batch", "batch", b+1, "total", batches)
		end := min((b+1)*g.batchSize, len(items))
		for _, item := range items[b*g.batchSize : end] {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			outcome, err := g.generateItem(ctx, deck, template, item)
			if err != nil {
				return res, err
			}
			res.Slides++
			res.Outcomes = append(res.Outcomes, outcome)
			res.Warnings = append(res.Warnings, outcome.Warnings...)
			if !outcome.Found {
				res.Missing = append(res.Missing, item.Code)
			}
		}
	}
	return res, nil
}

func (g *Generator) generateItem(ctx context.Context, deck *pptx.Deck, template *pptx.Slide, item internal.ItemCode) (ItemOutcome, error) {
	outcome := ItemOutcome{Item: item}
	match, found := g.matcher.Match(item.Code)
	outcome.Match, outcome.Found = match, found
	if found {
		outcome.MatchedCode = match.Row.Get(g.profile.CodeColumn())
	}

	var set compose.PlaceholderSet
	if found {
		avail, warnings := compose.ResolveAvailability(item.Code, match.Row, g.resolver, g.profile)
		for _, w := range warnings {
			slog.Warn("Failed to resolve stock", "item", w.Item, "field", w.Field, "error", w.Message)
		}
		outcome.RTS, outcome.MTO = avail.RTS, avail.MTO
		outcome.Warnings = append(outcome.Warnings, warnings...)
		set = compose.BuildPlaceholders(item.Code, match.Row, avail, g.profile)
	} else {
		slog.Warn("Item not found in catalog", "item", item.Code, "line", item.LineNo)
		set = compose.MissingPlaceholders(item.Code, g.profile)
	}

	_, warnings, err := g.composer.Compose(ctx, deck, template, set)
	if err != nil {
		return outcome, err
	}
	outcome.Warnings = append(outcome.Warnings, warnings...)
	return outcome, nil
}

// Generate runs a full job: load the sheets and the template, build the deck, then write it
// together with the missing-items list and the optional report. Outputs are written all
// together or not at all.
func Generate(ctx context.Context, paths Paths, profile config.Profile, images compose.ImageSource, batchSize int, items []internal.ItemCode) (Result, error) {
	start := time.Now()

	catalogTable, err := catalog.LoadCatalog(paths.Catalog, profile)
	if err != nil {
		return Result{}, fmt.Errorf("catalog: %w", err)
	}
	slog.Info("Catalog loaded", "path", paths.Catalog, "rows", len(catalogTable.Records))

	stockTable, err := catalog.LoadStock(paths.Stock)
	if err != nil {
		return Result{}, fmt.Errorf("stock: %w", err)
	}
	slog.Info("Stock loaded", "path", paths.Stock, "rows", len(stockTable.Records))

	deck, err := pptx.Open(paths.Template)
	if err != nil {
		return Result{}, fmt.Errorf("template: %w", err)
	}
	if deck.Len() == 0 {
		return Result{}, fmt.Errorf("template %s: %w", paths.Template, pptx.ErrNoSlides)
	}

	res, err := NewGenerator(profile, catalogTable, stockTable, images, batchSize).Run(ctx, deck, items)
	if err != nil {
		return res, err
	}

	deckBlob, err := deck.Bytes()
	if err != nil {
		return res, fmt.Errorf("output: %w", err)
	}
	arts := []artifact{{name: "output", path: paths.Output, data: deckBlob}}
	if len(res.Missing) > 0 && paths.Missing != "" {
		arts = append(arts, artifact{name: "missing items", path: paths.Missing, data: missingItemsBlob(res.Missing)})
	}
	if paths.Report != "" {
		report, err := reportBlob(res.Outcomes)
		if err != nil {
			return res, fmt.Errorf("report: %w", err)
		}
		arts = append(arts, artifact{name: "report", path: paths.Report, data: report})
	}
	if err := writeArtifacts(arts); err != nil {
		return res, err
	}

	slog.Info("Presentation saved", "path", paths.Output, "slides", res.Slides, "missing", len(res.Missing), "warnings", len(res.Warnings), "elapsed", time.Since(start).Round(time.Millisecond))
	if len(res.Missing) > 0 && paths.Missing != "" {
		slog.Info("Missing items written", "path", paths.Missing, "count", len(res.Missing))
	}
	if paths.Report != "" {
		slog.Info("Run report written", "path", paths.Report)
	}
	return res, nil
}

// CheckResult summarizes the inputs of a run without generating anything.
type CheckResult struct {
	CatalogRows    int
	StockRows      int
	TemplateSlides int
	TemplateTokens []string
	UnusedTokens   []string
}

// Check loads every input the way Generate does and reports the profile tokens the template
// slide never mentions.
func Check(paths Paths, profile config.Profile) (CheckResult, error) {
	var errs []error
	out := CheckResult{}

	if t, err := catalog.LoadCatalog(paths.Catalog, profile); err != nil {
		errs = append(errs, fmt.Errorf("catalog: %w", err))
	} else {
		out.CatalogRows = len(t.Records)
	}
	if t, err := catalog.LoadStock(paths.Stock); err != nil {
		errs = append(errs, fmt.Errorf("stock: %w", err))
	} else {
		out.StockRows = len(t.Records)
	}

	deck, err := pptx.Open(paths.Template)
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("template: %w", err))
	case deck.Len() == 0:
		errs = append(errs, fmt.Errorf("template %s: %w", paths.Template, pptx.ErrNoSlides))
	default:
		out.TemplateSlides = deck.Len()
		out.TemplateTokens = compose.Tokens(deck.Slides()[0])
		out.UnusedTokens = unusedTokens(profile, out.TemplateTokens)
	}
	return out, errors.Join(errs...)
}

func unusedTokens(profile config.Profile, present []string) []string {
	have := map[string]struct{}{}
	for _, tok := range present {
		have[util.Normalize(tok)] = struct{}{}
	}
	out := []string{}
	for _, tok := range profile.Tokens() {
		if _, ok := have[util.Normalize(tok)]; !ok {
			out = append(out, tok)
		}
	}
	return out
}
