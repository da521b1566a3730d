// Package pipeline wires the choropleth stages together: load both sources
// concurrently, join the table to the reference codes, compute color
// domains and build the three maps.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aclements/go-gg/palette"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/choropleth/internal/colorscale"
	"github.com/sells-group/choropleth/internal/config"
	"github.com/sells-group/choropleth/internal/fetcher"
	"github.com/sells-group/choropleth/internal/fips"
	"github.com/sells-group/choropleth/internal/geo"
	"github.com/sells-group/choropleth/internal/join"
	"github.com/sells-group/choropleth/internal/metric"
	"github.com/sells-group/choropleth/internal/monitoring"
	"github.com/sells-group/choropleth/internal/render"
)

// Map container IDs, in page order.
const (
	PopulationMap = "fig1"
	ChangeMap     = "fig2"
	MetricMap     = "fig3"
)

// Pipeline runs load, join and build against one configuration.
type Pipeline struct {
	cfg      *config.Config
	resolver *fetcher.Resolver
	table    *fips.Table
	metrics  *monitoring.Metrics
	clock    clockwork.Clock
}

// New creates a Pipeline. metrics may be nil; a nil clock uses the real
// clock.
func New(cfg *config.Config, resolver *fetcher.Resolver, table *fips.Table, metrics *monitoring.Metrics, clock clockwork.Clock) *Pipeline {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Pipeline{
		cfg:      cfg,
		resolver: resolver,
		table:    table,
		metrics:  metrics,
		clock:    clock,
	}
}

// NewResolver builds the source resolver from fetch settings.
func NewResolver(cfg config.FetchConfig) *fetcher.Resolver {
	return fetcher.NewResolver(fetcher.HTTPOptions{
		UserAgent:  cfg.UserAgent,
		Timeout:    time.Duration(cfg.TimeoutSecs) * time.Second,
		RatePerSec: cfg.RatePerSec,
	}, fetcher.FTPOptions{
		Timeout: time.Duration(cfg.TimeoutSecs) * time.Second,
	})
}

// Sources holds both loaded datasets.
type Sources struct {
	Regions *geo.Collection
	Records []metric.Record
}

// Phase records how one stage went.
type Phase struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// Result is everything a run produces.
type Result struct {
	RunID       uuid.UUID         `json:"run_id"`
	StartedAt   time.Time         `json:"started_at"`
	FinishedAt  time.Time         `json:"finished_at"`
	Regions     *geo.Collection   `json:"-"`
	Lookup      join.Lookup       `json:"-"`
	Diagnostics []join.Diagnostic `json:"diagnostics"`
	Maps        []render.Map      `json:"-"`
	Phases      []Phase           `json:"phases"`
}

// Map returns the built map with the given container ID.
func (r *Result) Map(id string) (render.Map, bool) {
	for _, m := range r.Maps {
		if m.ID == id {
			return m, true
		}
	}
	return render.Map{}, false
}

// Run loads both sources and builds the maps.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	runID := uuid.New()
	log := zap.L().With(zap.String("component", "pipeline"), zap.String("run_id", runID.String()))
	started := p.clock.Now()
	log.Info("pipeline: starting run",
		zap.String("geometry", p.cfg.Sources.Geometry),
		zap.String("table", p.cfg.Sources.Table),
	)

	src, phases, err := p.load(ctx)
	if err != nil {
		p.metrics.ObserveRun(err)
		log.Error("pipeline: load failed", zap.Error(err))
		return nil, err
	}

	res, err := p.Build(src)
	if err != nil {
		p.metrics.ObserveRun(err)
		log.Error("pipeline: build failed", zap.Error(err))
		return nil, err
	}
	res.RunID = runID
	res.StartedAt = started
	res.FinishedAt = p.clock.Now()
	res.Phases = append(phases, res.Phases...)

	p.metrics.ObserveRun(nil)
	log.Info("pipeline: run complete",
		zap.Int("regions", len(res.Regions.Regions)),
		zap.Int("joined", res.Lookup.Len()),
		zap.Int("unmatched", len(res.Diagnostics)),
		zap.Duration("elapsed", res.FinishedAt.Sub(started)),
	)
	return res, nil
}

// Load fetches the geometry and the table concurrently. Both must succeed;
// the first error cancels the other load and is returned.
func (p *Pipeline) Load(ctx context.Context) (*Sources, error) {
	src, _, err := p.load(ctx)
	return src, err
}

func (p *Pipeline) load(ctx context.Context) (*Sources, []Phase, error) {
	var (
		src    Sources
		mu     sync.Mutex
		phases []Phase
	)
	track := func(name string, fn func() error) error {
		start := p.clock.Now()
		err := fn()
		ph := Phase{Name: name, Duration: p.clock.Since(start)}
		if err != nil {
			ph.Error = err.Error()
		}
		p.metrics.ObserveLoad(name, ph.Duration)
		mu.Lock()
		phases = append(phases, ph)
		mu.Unlock()
		return err
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return track("geometry", func() error {
			c, err := geo.Load(gCtx, p.resolver, geo.Source{
				Location: p.cfg.Sources.Geometry,
				Object:   p.cfg.Sources.GeometryObject,
				TempDir:  p.cfg.Sources.TempDir,
			})
			if err != nil {
				return eris.Wrap(err, "pipeline: load geometry")
			}
			src.Regions = c
			return nil
		})
	})

	g.Go(func() error {
		return track("table", func() error {
			recs, err := metric.Load(gCtx, p.resolver, metric.Source{
				Location: p.cfg.Sources.Table,
				Columns: metric.Columns{
					Code:  p.cfg.Sources.CodeColumn,
					Value: p.cfg.Sources.ValueColumn,
				},
				Sheet:   p.cfg.Sources.Sheet,
				TempDir: p.cfg.Sources.TempDir,
			})
			if err != nil {
				return eris.Wrap(err, "pipeline: load table")
			}
			src.Records = recs
			return nil
		})
	})

	if err := g.Wait(); err != nil {
		return nil, phases, err
	}
	return &src, phases, nil
}

// Build joins the records and builds the population, change and metric
// maps. It does no I/O.
func (p *Pipeline) Build(src *Sources) (*Result, error) {
	if src == nil || src.Regions == nil {
		return nil, eris.New("pipeline: no regions loaded")
	}

	start := p.clock.Now()
	lookup, diags := join.Build(src.Records, p.table)
	joinPhase := Phase{Name: "join", Duration: p.clock.Since(start)}
	p.metrics.ObserveJoin(len(src.Regions.Regions), lookup.Len(), len(diags))

	start = p.clock.Now()
	maps, err := p.buildMaps(src.Regions, lookup)
	if err != nil {
		return nil, err
	}
	buildPhase := Phase{Name: "build", Duration: p.clock.Since(start)}
	for _, m := range maps {
		p.metrics.ObserveMissing(m.ID, m.Missing())
	}

	return &Result{
		Regions:     src.Regions,
		Lookup:      lookup,
		Diagnostics: diags,
		Maps:        maps,
		Phases:      []Phase{joinPhase, buildPhase},
	}, nil
}

func (p *Pipeline) buildMaps(c *geo.Collection, lookup join.Lookup) ([]render.Map, error) {
	noData := colorscale.NoData
	if s := p.cfg.Render.NoDataColor; s != "" {
		parsed, err := colorscale.ParseHex(s)
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: render.no_data_color")
		}
		noData = parsed
	}

	rc := p.cfg.Regions
	layout := render.Layout{
		Width:     p.cfg.Render.MapWidth(),
		Height:    p.cfg.Render.MapHeight(),
		LabelKeys: rc.LabelKeys,
	}

	popDomain, _ := colorscale.SequentialDomain(c.Numbers(rc.EarlierKey))
	changeDomain, _ := colorscale.DivergingDomain(c.Deltas(rc.EarlierKey, rc.LaterKey))
	metricDomain, ok := colorscale.LookupDomain(lookup)
	if !ok {
		zap.L().Warn("pipeline: no joined values; metric map has no domain",
			zap.String("component", "pipeline"),
			zap.String("table", p.cfg.Sources.Table),
		)
	}

	specs := []render.Spec{
		{
			ID:       PopulationMap,
			Title:    fmt.Sprintf("Population (%s)", rc.EarlierKey),
			Strategy: render.PropertyStrategy{Key: rc.EarlierKey},
			Scale:    colorscale.NewLinear(popDomain, colorscale.PopulationLow, colorscale.PopulationHigh).WithNoData(noData),
		},
		{
			ID:       ChangeMap,
			Title:    fmt.Sprintf("Population change (%s − %s)", rc.LaterKey, rc.EarlierKey),
			Strategy: render.Change(rc.EarlierKey, rc.LaterKey),
			Scale:    colorscale.NewDiverging(changeDomain, colorscale.RdBu).WithNoData(noData),
		},
		{
			ID:          MetricMap,
			Title:       p.cfg.Sources.ValueColumn,
			Strategy:    render.LookupStrategy{Lookup: lookup, CodeKey: rc.CodeKey},
			Scale:       colorscale.NewSequential(metricDomain, palette.Viridis).WithNoData(noData),
			ZeroMissing: !p.cfg.Render.UnifyMissing,
		},
	}

	maps := make([]render.Map, 0, len(specs))
	for _, s := range specs {
		maps = append(maps, render.BuildMap(c, layout, s))
	}
	return maps, nil
}
