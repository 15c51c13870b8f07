package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/bna-labs/bna-gateway/internal/adapter/config"
	"github.com/bna-labs/bna-gateway/internal/adapter/httpapi"
	"github.com/bna-labs/bna-gateway/internal/application/agent"
	infrallm "github.com/bna-labs/bna-gateway/internal/infrastructure/llm"
	"github.com/bna-labs/bna-gateway/internal/infrastructure/usage"
	"github.com/bna-labs/bna-gateway/pkg/health"
	"github.com/bna-labs/bna-gateway/pkg/logger"
)

// usageAdapter bridges the usage reporter to the agent's recorder interface.
type usageAdapter struct {
	reporter *usage.Reporter
}

func (a *usageAdapter) Record(ctx context.Context, report agent.UsageReport) error {
	return a.reporter.Record(ctx, usage.Record{
		RequestID:      report.RequestID,
		Token:          report.Token,
		Provider:       report.Provider,
		TeamSlug:       report.TeamSlug,
		DeploymentName: report.DeploymentName,
		LastMessage:    report.LastMessage,
		InputTokens:    report.Usage.InputTokens,
		OutputTokens:   report.Usage.OutputTokens,
		TotalTokens:    report.Usage.Total(),
	})
}

func main() {
	configPath := getConfigPath()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.SetLevel(cfg.Log.Level)
	log.Printf("Loaded config from: %s", configPath)

	handler := buildDependencies(cfg)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Starting BNA gateway on %s", addr)

	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func buildDependencies(cfg *config.Config) http.Handler {
	env := infrallm.Env{
		AnthropicModel: cfg.Providers.AnthropicModel,
		OpenAIModel:    cfg.Providers.OpenAIModel,
		XAIModel:       cfg.Providers.XAIModel,
		GoogleModel:    cfg.Providers.GoogleModel,
		BedrockModel:   cfg.Providers.BedrockModel,
		AWSRegion:      cfg.AWS.Region,
		AWSRoleARN:     cfg.AWS.RoleARN,
	}

	checks := map[string]health.CheckFunc{}

	var recorder agent.UsageRecorder
	if !cfg.UsageReportingDisabled() {
		host := cfg.Usage.ProvisionHost
		if host == "" {
			host = usage.DefaultProvisionHost
		}
		recorder = &usageAdapter{reporter: usage.NewReporter(host)}
		checks["provision"] = health.HTTPCheck(host, 5*time.Second)
	}

	runner := agent.NewRunner(env, recorder)

	if cfg.BedrockDisabled() {
		log.Println("Bedrock disabled; requests will run as Anthropic")
	}

	log.Println("Dependency injection complete")

	return httpapi.NewHandler(runner, httpapi.Options{
		DisableBedrock:        cfg.BedrockDisabled(),
		DisableUsageReporting: cfg.UsageReportingDisabled(),
	}, checks)
}

func getConfigPath() string {
	if path := os.Getenv("BNA_CONFIG"); path != "" {
		return path
	}
	return "./config.yaml"
}
