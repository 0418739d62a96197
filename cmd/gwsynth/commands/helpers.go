package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/gwsynth/gwsynth/pkg/blueprint"
	"github.com/gwsynth/gwsynth/pkg/content"
	"github.com/gwsynth/gwsynth/pkg/engine"
	"github.com/gwsynth/gwsynth/pkg/gws"
	"github.com/gwsynth/gwsynth/pkg/identity"
	"github.com/gwsynth/gwsynth/pkg/telemetry"
)

// buildEngine wires the live collaborators for a run: the Graph identity
// source, the Google Workspace adapters, and the content generator. The
// returned cleanup closes the content cache and must run after the verb.
func buildEngine(ctx context.Context, bp *blueprint.Blueprint, metrics *telemetry.Metrics) (*engine.Engine, func(), error) {
	gwsCfg, err := gws.ConfigFromEnv()
	if err != nil {
		return nil, nil, err
	}
	client, err := gws.NewClient(gwsCfg, metrics)
	if err != nil {
		return nil, nil, err
	}

	directory, err := client.Directory(ctx)
	if err != nil {
		return nil, nil, err
	}
	var licensing engine.Licensing
	if bp.Licenses.Assign {
		svc, err := client.Licensing(ctx)
		if err != nil {
			return nil, nil, err
		}
		licensing = svc
	}

	source, err := identity.GraphSourceFromEnv(ctx)
	if err != nil {
		return nil, nil, err
	}

	generator, cleanup, err := buildGenerator(ctx, bp, metrics)
	if err != nil {
		return nil, nil, err
	}

	eng, err := engine.New(engine.Config{
		Blueprint:   bp,
		Identity:    source,
		Directory:   directory,
		Licensing:   licensing,
		Drives:      client.Drives(ctx),
		Docs:        client.Docs(ctx),
		Generator:   generator,
		Environment: engine.EnvironmentFromOS(),
		Metrics:     metrics,
		Logger:      log.Logger,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return eng, cleanup, nil
}

// buildGenerator selects the content generator for the blueprint's
// generation mode. The openai_cached mode wraps the remote model in the
// SQLite cache so each stable ID is generated once per prompt version.
func buildGenerator(ctx context.Context, bp *blueprint.Blueprint, metrics *telemetry.Metrics) (content.Generator, func(), error) {
	gen := bp.Docs.Generation
	switch gen.Mode {
	case blueprint.GenerationModeTemplate:
		return content.TemplateGenerator{}, func() {}, nil
	case blueprint.GenerationModeOpenAICached:
		cfg, err := content.OpenAIConfigFromEnv(gen.MaxTokens, gen.Temperature)
		if err != nil {
			return nil, nil, err
		}
		cache, err := content.OpenCache(ctx, gen.CacheDir)
		if err != nil {
			return nil, nil, err
		}
		cached := content.NewCachedGenerator(content.NewOpenAIGenerator(cfg), cache, content.GenerationParams{
			Model:         cfg.Model,
			Temperature:   cfg.Temperature,
			PromptVersion: gen.PromptVersion,
		}).WithMetrics(metrics)
		cleanup := func() {
			if err := cache.Close(); err != nil {
				log.Warn().Err(err).Msg("closing content cache")
			}
		}
		return cached, cleanup, nil
	default:
		return nil, nil, fmt.Errorf("unknown generation mode %q", gen.Mode)
	}
}

// printReport writes a report as indented JSON to stdout.
func printReport(report any) error {
	raw, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	_, err = fmt.Fprintln(os.Stdout, string(raw))
	return err
}
