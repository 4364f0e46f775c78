package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"

	"github.com/wayfarer-ai/wayfarer/internal/fetch"
	"github.com/wayfarer-ai/wayfarer/internal/observability"
	"github.com/wayfarer-ai/wayfarer/internal/pipeline"
	"github.com/wayfarer-ai/wayfarer/internal/reason"
	"github.com/wayfarer-ai/wayfarer/internal/store"
	"github.com/wayfarer-ai/wayfarer/internal/task"
	"github.com/wayfarer-ai/wayfarer/internal/tools"
	"github.com/wayfarer-ai/wayfarer/pkg/config"
)

func main() {
	var (
		configPath = flag.String("config", "wayfarer.yaml", "path to config file")
		origin     = flag.String("origin", "", "city of departure")
		dests      = flag.String("destinations", "", "comma-separated candidate destinations")
		dates      = flag.String("dates", "", "travel window as YYYY-MM-DD to YYYY-MM-DD")
		interests  = flag.String("interests", "", "traveler interests, free text")
		budget     = flag.Int("budget", 0, "total budget in USD")
		country    = flag.String("country", "", "traveler home country")
		diet       = flag.String("diet", "", "dietary requirements")
		risk       = flag.String("risk", "medium", "risk tolerance: low, medium or high")
		stages     = flag.String("stages", "", "comma-separated stages to run (default all)")
		deep       = flag.Bool("deep", false, "let reasoning units use research tools")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := observability.NewLogger(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	req, err := buildRequest(*origin, *dests, *dates, *interests, *budget, *country, *diet, *risk, *stages, *deep)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(2)
	}

	opts := []openai.Option{
		openai.WithToken(cfg.Provider.APIKey),
		openai.WithModel(cfg.Provider.Model),
	}
	if cfg.Provider.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.Provider.BaseURL))
	}
	model, err := openai.New(opts...)
	if err != nil {
		logger.Fatal("provider init failed", zap.Error(err))
	}

	registry := tools.NewRegistry()
	if searchTool, err := tools.NewSearchTool(); err != nil {
		logger.Warn("search tool unavailable", zap.Error(err))
	} else {
		registry.Register(searchTool)
	}
	registry.Register(tools.NewPageReaderTool())

	client := fetch.NewClient(fetch.ClientConfig{}, logger)
	data := fetch.NewService(fetch.ServiceConfig{
		TicketmasterKey: cfg.Fetch.TicketmasterKey,
		CacheSize:       cfg.Fetch.CacheSize,
	}, client, fetch.StaticGeocoder{Lat: cfg.Fetch.DefaultLat, Lon: cfg.Fetch.DefaultLon}, logger)

	exec := reason.NewExecutor(model, cfg.Planner.MemoCacheSize, registry, logger)
	planner := pipeline.New(exec, data, pipeline.Config{
		PrefetchWorkers:   cfg.Planner.PrefetchWorkers,
		PrefetchTimeout:   cfg.Planner.PrefetchTimeout,
		SpecializeTimeout: cfg.Planner.SpecializeTimeout,
		SelectionRetries:  cfg.Planner.SelectionRetries,
	}, logger)

	if cfg.Metrics.Addr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil {
				logger.Warn("metrics server stopped", zap.Error(err))
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	run, err := planner.Plan(ctx, req)
	if err != nil {
		logger.Fatal("planning failed", zap.Error(err))
	}

	fmt.Println(run.Itinerary)

	if cfg.Journal.Path != "" {
		journal, err := store.Open(cfg.Journal.Path)
		if err != nil {
			logger.Warn("journal unavailable", zap.Error(err))
			return
		}
		defer journal.Close()
		if err := journal.Record(run); err != nil {
			logger.Warn("journal write failed", zap.Error(err))
		}
	}
}

func buildRequest(origin, dests, dates, interests string, budget int, country, diet, risk, stages string, deep bool) (pipeline.TripRequest, error) {
	req := pipeline.TripRequest{
		Origin:     origin,
		Candidates: splitList(dests),
		Interests:  interests,
		Budget:     budget,
		Country:    country,
		Diet:       diet,
		Risk:       pipeline.RiskLevel(risk),
		DeepSearch: deep,
	}

	start, end, ok := strings.Cut(dates, " to ")
	if !ok {
		return req, fmt.Errorf("dates must be given as YYYY-MM-DD to YYYY-MM-DD, got %q", dates)
	}
	req.StartDate = strings.TrimSpace(start)
	req.EndDate = strings.TrimSpace(end)

	if stages != "" {
		req.Stages = make(map[task.Kind]bool)
		for _, s := range splitList(stages) {
			k, err := task.ParseKind(s)
			if err != nil {
				return req, err
			}
			req.Stages[k] = true
		}
	}

	if err := req.Validate(); err != nil {
		return req, err
	}
	return req, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
