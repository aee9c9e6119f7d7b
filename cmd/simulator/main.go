// Command simulator is the composition root of the venue order-flow
// simulator: it loads static data from MongoDB, activates one Instrument
// Context per enabled listing, wires the Random Generation Algorithm and
// the Historical Replier behind a shared Dispatcher and venue stub, drives
// every instrument's Phase Scheduler off wall-clock time, and serves the
// session gateway and REST API over HTTP. The shape follows the teacher's
// main.go: a flat composition function, graceful shutdown via
// context-cancel-on-signal, opt-in archival.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ordersim/venue-simulator/internal/archive"
	"github.com/ordersim/venue-simulator/internal/config"
	"github.com/ordersim/venue-simulator/internal/dispatch"
	"github.com/ordersim/venue-simulator/internal/domain"
	"github.com/ordersim/venue-simulator/internal/executor"
	"github.com/ordersim/venue-simulator/internal/genmanager"
	"github.com/ordersim/venue-simulator/internal/historical"
	"github.com/ordersim/venue-simulator/internal/httpapi"
	"github.com/ordersim/venue-simulator/internal/instrument"
	"github.com/ordersim/venue-simulator/internal/metrics"
	"github.com/ordersim/venue-simulator/internal/pgsource"
	"github.com/ordersim/venue-simulator/internal/phase"
	"github.com/ordersim/venue-simulator/internal/randomgen"
	"github.com/ordersim/venue-simulator/internal/session"
	"github.com/ordersim/venue-simulator/internal/staticdata"
	"github.com/ordersim/venue-simulator/internal/venue/book"
)

func main() {
	cfg := config.Load()

	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	log.Println("venue simulator starting")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("received signal %v, shutting down...", sig)
		cancel()
	}()

	loc, err := time.LoadLocation(cfg.VenueTimezone)
	if err != nil {
		log.Printf("warning: unknown venue timezone %q, defaulting to UTC: %v", cfg.VenueTimezone, err)
		loc = time.UTC
	}

	store, err := staticdata.NewStore(ctx, cfg.MongoURI)
	if err != nil {
		log.Fatalf("static data connection failed: %v", err)
	}
	defer store.Close(context.Background())

	if err := store.Migrate(ctx); err != nil {
		log.Fatalf("static data migration failed: %v", err)
	}

	listings, err := store.SelectAllListings(ctx, staticdata.Eq("enabled", true))
	if err != nil {
		log.Fatalf("loading listings: %v", err)
	}
	log.Printf("loaded %d enabled listings", len(listings))

	phaseRecords, err := store.SelectAllPhaseRecords(ctx, nil)
	if err != nil {
		log.Fatalf("loading phase schedule: %v", err)
	}
	log.Printf("loaded %d phase records (timezone=%s)", len(phaseRecords), loc)

	venue, err := store.SelectOneVenue(ctx, nil)
	if err != nil {
		log.Printf("warning: no venue record, defaulting orders_on_startup=false: %v", err)
	}
	genMgr := genmanager.New(venue.OrdersOnStartup)
	log.Printf("generation manager initial state: %s", genMgr.State())

	var datasources []domain.Datasource
	if cfg.HistoricalDatasource != "" {
		datasources, err = store.SelectAllDatasources(ctx, staticdata.Eq("name", cfg.HistoricalDatasource))
		if err != nil {
			log.Printf("warning: loading historical datasource %q: %v", cfg.HistoricalDatasource, err)
		}
	}

	rng := randomgen.NewRNG(cfg.Seed)
	log.Printf("PRNG seed: %d", cfg.Seed)

	venueChannel := book.NewStub()
	defer venueChannel.Close()

	sessionListings := make([]session.Listing, 0, len(listings))
	for _, l := range listings {
		sessionListings = append(sessionListings, session.Listing{InstrumentID: l.InstrumentID, Symbol: l.Symbol})
	}
	mgr := session.NewManager(sessionListings, cfg.SendBufferSize)

	var archiver *archive.Archiver
	if cfg.S3Bucket != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.S3Region))
		if err != nil {
			log.Fatalf("loading AWS config: %v", err)
		}
		archiver = archive.New(s3.NewFromConfig(awsCfg), cfg.S3Bucket, cfg.S3Prefix, cfg.ArchiveMaxGB, cfg.ArchiveInterval)
		go archiver.Run(ctx)
	}

	dispatcher := dispatch.New(venueChannel, mgr, archiver)
	venueChannel.Subscribe(dispatcher)

	parties := newPartyAllocator()

	instruments := make([]*instrument.Context, 0, len(listings))
	phaseSchedulers := make(map[uint64]*phase.Scheduler, len(listings))
	bySymbol := make(map[string]*instrument.Context, len(listings))

	for _, listing := range listings {
		if !listing.CanGenerate() && cfg.HistoricalDatasource == "" {
			log.Printf("listing %s has no active generation path configured, skipping", listing.Symbol)
			continue
		}

		seed, err := store.SelectOnePriceSeed(ctx, staticdata.Eq("symbol", listing.Symbol))
		if err != nil {
			log.Printf("warning: no price seed for %s, generation will rely on market state only: %v", listing.Symbol, err)
		}

		desc := domain.InstrumentDescriptor{InstrumentID: listing.InstrumentID, Symbol: listing.Symbol}
		ictx := instrument.New(desc, listing, seed, venueChannel, genMgr)
		instruments = append(instruments, ictx)
		bySymbol[listing.Symbol] = ictx
		dispatcher.Register(ictx)
		parties.register(listing.InstrumentID)

		sched := phase.New(phaseRecords, loc, rng)
		phaseSchedulers[listing.InstrumentID] = sched
		wireInstrument(ictx, sched, mgr)

		if listing.RandomOrdersEnabled {
			gen := randomgen.NewGenerator(ictx, rng, dispatcher, parties)
			exec := newRandomExecutable(gen, listing)
			e := executor.New("randomgen-"+listing.Symbol, exec, genMgr)
			e.Launch()
		}
	}
	log.Printf("activated %d instrument contexts", len(instruments))

	startPhaseTicker(ctx, instruments, phaseSchedulers)

	if cfg.HistoricalDatasource != "" {
		startHistoricalReplay(ctx, datasources, bySymbol, dispatcher, genMgr, cfg)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/feed", session.Handler(mgr))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","clients":%d,"instruments":%d}`, mgr.ClientCount(), len(instruments))
	})

	apiServer := httpapi.NewServer(instruments, phaseSchedulers, mgr, store)
	apiServer.Register(mux)

	if cfg.MetricsEnabled {
		metrics.Register(mux)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.WSPort)
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("WebSocket server listening on ws://%s/feed", addr)
	log.Printf("REST API listening on http://%s/api", addr)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}

	log.Println("venue simulator stopped")
}

// wireInstrument connects a Phase Scheduler's transitions to session
// broadcast and metrics. The Generation Manager is not gated by any single
// instrument's phase: it is a venue-wide singleton (spec §4.3) whose
// Active/Suspended state is set once at startup from the venue's
// orders_on_startup flag, not toggled per instrument per phase.
func wireInstrument(ctx *instrument.Context, sched *phase.Scheduler, mgr *session.Manager) {
	sched.OnTransition(func(prev, next domain.TradingPhase, allowCancels bool) {
		mgr.BroadcastPhase(ctx.Descriptor.InstrumentID, ctx.Descriptor.Symbol, prev, next, allowCancels)
		metrics.RecordPhaseTransition(ctx.Descriptor.Symbol, next.String())
	})
}

// startPhaseTicker drives every instrument's Phase Scheduler off wall-clock
// time on a dedicated goroutine, since the scheduler is evaluated
// independently of any single instrument's generation activity (spec
// §4.9's wall-clock-driven phase evaluation is not gated by the Generation
// Manager the way executors are).
func startPhaseTicker(ctx context.Context, instruments []*instrument.Context, schedulers map[uint64]*phase.Scheduler) {
	ticker := time.NewTicker(time.Second)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				for _, c := range instruments {
					if sched, ok := schedulers[c.Descriptor.InstrumentID]; ok {
						sched.Evaluate(now)
					}
				}
			}
		}
	}()
}

// startHistoricalReplay builds one Replier per configured datasource and
// drives it with a dedicated executor gated by the venue's shared Generation
// Manager, since spec §5 allows at most one historical-replier executor for
// the whole venue regardless of how many instruments it fans out across.
func startHistoricalReplay(ctx context.Context, datasources []domain.Datasource, bySymbol map[string]*instrument.Context, publisher historical.Publisher, genMgr *genmanager.Manager, cfg *config.Config) {
	for _, ds := range datasources {
		adapter, err := adapterFor(ds, cfg)
		if err != nil {
			log.Printf("historical replay: datasource %s: %v", ds.Name, err)
			continue
		}
		provider, count, err := historical.Prepare(adapter, ds.Repeat)
		if err != nil {
			log.Printf("historical replay: datasource %s: loading records: %v", ds.Name, err)
			continue
		}
		log.Printf("historical replay: datasource %s loaded %d records (repeat=%v)", ds.Name, count, ds.Repeat)

		scheduler := historical.NewScheduler(provider)
		applier := historical.NewApplier()
		resolver := symbolResolver(bySymbol)
		replier := historical.NewReplier(scheduler, applier, resolver, publisher, 100*time.Millisecond)

		e := executor.New("historical-"+ds.Name, replier, genMgr)
		e.Launch()
	}
}

type symbolResolver map[string]*instrument.Context

func (r symbolResolver) Resolve(instrumentKey string) (*instrument.Context, bool) {
	ctx, ok := r[instrumentKey]
	return ctx, ok
}

// randomExecutable adapts a randomgen.Generator's Tick to executor.Executable,
// sleeping between ticks at the period spec §4.4 derives from the listing's
// configured orders/sec rate.
type randomExecutable struct {
	gen    *randomgen.Generator
	period time.Duration
}

func newRandomExecutable(gen *randomgen.Generator, listing domain.Listing) *randomExecutable {
	period := randomgen.Rate(listing.RandomOrdersRate.InexactFloat64())
	if period <= 0 {
		period = time.Second
	}
	return &randomExecutable{gen: gen, period: time.Duration(period * float64(time.Second))}
}

func (r *randomExecutable) Prepare() {}

func (r *randomExecutable) Execute() { r.gen.Tick() }

func (r *randomExecutable) Finished() bool { return false }

func (r *randomExecutable) NextExecTimeout() time.Duration { return r.period }

func adapterFor(ds domain.Datasource, cfg *config.Config) (historical.DataAccessAdapter, error) {
	switch ds.Kind {
	case domain.DatasourceKindCSV:
		mapping := historical.ColumnMapping(ds.ColumnMapping)
		return historical.NewCSVAdapter(historical.CSVConfig{
			Path:      ds.Path,
			Delimiter: ds.Delimiter,
			HeaderRow: ds.HeaderRow,
			DataRow:   ds.DataRow,
			MaxDepth:  ds.MaxDepthLevels,
		}, mapping), nil
	case domain.DatasourceKindRelational:
		return pgsource.NewAdapter(pgsource.Config{
			Host:           cfg.PGHost,
			Port:           cfg.PGPort,
			User:           cfg.PGUser,
			Password:       cfg.PGPassword,
			DBName:         cfg.PGDatabase,
			Table:          ds.Table,
			MaxDepthLevels: ds.MaxDepthLevels,
			ColumnMapping:  ds.ColumnMapping,
		}), nil
	default:
		return nil, fmt.Errorf("unknown datasource kind for %q", ds.Name)
	}
}

// partyAllocator hands out synthetic counterparty identities per instrument
// to the Random Generation Algorithm; the historical replier names its
// counterparties itself (CP<k>).
type partyAllocator struct {
	mu       sync.Mutex
	counters map[uint64]*atomic.Uint64
}

func newPartyAllocator() *partyAllocator {
	return &partyAllocator{counters: make(map[uint64]*atomic.Uint64)}
}

func (p *partyAllocator) register(instrumentID uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.counters[instrumentID]; !ok {
		p.counters[instrumentID] = &atomic.Uint64{}
	}
}

func (p *partyAllocator) NextPartyID(instrumentID uint64) string {
	p.mu.Lock()
	c, ok := p.counters[instrumentID]
	if !ok {
		c = &atomic.Uint64{}
		p.counters[instrumentID] = c
	}
	p.mu.Unlock()
	return "CP-" + strconv.FormatUint(instrumentID, 10) + "-" + strconv.FormatUint(c.Add(1), 10)
}
