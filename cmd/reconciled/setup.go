package main

import (
	"fmt"

	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/reconciled/internal/agent"
	"github.com/fyrsmithlabs/reconciled/internal/config"
	"github.com/fyrsmithlabs/reconciled/internal/decision"
	"github.com/fyrsmithlabs/reconciled/internal/logging"
	"github.com/fyrsmithlabs/reconciled/internal/reconcile"
	"github.com/fyrsmithlabs/reconciled/internal/rules"
	"github.com/fyrsmithlabs/reconciled/internal/store"
)

// pipeline bundles everything a command needs after wiring.
type pipeline struct {
	cfg        *config.Config
	logger     *zap.Logger
	gateway    store.Gateway
	reconciler *reconcile.Reconciler
}

func (p *pipeline) close() {
	if p.gateway != nil {
		_ = p.gateway.Close()
	}
	if p.logger != nil {
		_ = p.logger.Sync()
	}
}

// buildPipeline wires config -> logger -> store -> tools -> agent ->
// decision engine -> reconciler.
func buildPipeline(withMetrics bool) (*pipeline, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	gateway, err := store.New(cfg.Database, logger.Named("store"))
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	receipts := store.NewReceiptStore(gateway, cfg.Database.Table)

	llmOpts := []openai.Option{
		openai.WithModel(cfg.LLM.Model),
		openai.WithToken(cfg.LLM.APIKey),
	}
	if cfg.LLM.BaseURL != "" {
		llmOpts = append(llmOpts, openai.WithBaseURL(cfg.LLM.BaseURL))
	}
	llm, err := openai.New(llmOpts...)
	if err != nil {
		return nil, fmt.Errorf("init llm: %w", err)
	}

	limits := rules.Limits{
		MinAmount: cfg.Reconciliation.MinAmount,
		MaxAmount: cfg.Reconciliation.MaxAmount,
		SanityCap: rules.DefaultLimits().SanityCap,
		MinYear:   cfg.Reconciliation.MinYear,
		MaxYear:   cfg.Reconciliation.MaxYear,
	}
	toolset := rules.NewSet(limits, receipts)

	validator, err := agent.NewValidator(llm, toolset, agent.Config{
		MaxIterations:     cfg.LLM.MaxIterations,
		RequestsPerMinute: cfg.LLM.RequestsPerMinute,
		Temperature:       cfg.LLM.Temperature,
	}, logger.Named("agent"))
	if err != nil {
		return nil, fmt.Errorf("init validator: %w", err)
	}

	engine, err := decision.NewEngine(receipts, decision.Thresholds{
		MinConfidence:       cfg.Reconciliation.MinConfidence,
		AutoReconcile:       cfg.Reconciliation.AutoReconcile,
		EnableAutoReconcile: cfg.Reconciliation.EnableAutoReconcile,
	}, logger.Named("decision"))
	if err != nil {
		return nil, fmt.Errorf("init decision engine: %w", err)
	}

	opts := []reconcile.Option{reconcile.WithLogger(logger.Named("reconcile"))}
	if withMetrics {
		opts = append(opts, reconcile.WithMetrics(reconcile.NewMetrics(nil)))
	}
	reconciler := reconcile.New(gateway, receipts, validator, engine, opts...)

	return &pipeline{
		cfg:        cfg,
		logger:     logger,
		gateway:    gateway,
		reconciler: reconciler,
	}, nil
}
