package main

import (
	"context"
	"log/slog"
	"os"
	"strconv"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"reads-agent/handler"
	"reads-agent/internal/integrations/openai"
	"reads-agent/internal/integrations/paramstore"
	"reads-agent/internal/integrations/preview"
	"reads-agent/internal/integrations/telegram"
	"reads-agent/internal/repository"
	"reads-agent/internal/usecase"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	readsTable := mustEnv("READS_TABLE")
	paramPrefix := mustEnv("PARAM_PREFIX")
	duplicateCheckLimit := envInt("DUPLICATE_CHECK_LIMIT", 50)

	// ---- AWS SDK config ----
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		slog.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	// ---- Clients ----
	ssmClient, err := paramstore.New(awsssm.NewFromConfig(cfg))
	if err != nil {
		slog.Error("failed to create SSM client", "err", err)
		os.Exit(1)
	}
	listStore, err := repository.New(awsdynamodb.NewFromConfig(cfg), readsTable)
	if err != nil {
		slog.Error("failed to create reads list store", "err", err)
		os.Exit(1)
	}
	summarizer, err := openai.NewClient(ssmClient, paramPrefix)
	if err != nil {
		slog.Error("failed to create OpenAI client", "err", err)
		os.Exit(1)
	}
	messenger, err := telegram.NewClient(ssmClient, paramPrefix)
	if err != nil {
		slog.Error("failed to create Telegram client", "err", err)
		os.Exit(1)
	}
	previewClient := preview.NewClient()

	webhookSecret, err := ssmClient.GetParameter(ctx, paramPrefix+"/telegram-webhook-secret")
	if err != nil {
		slog.Error("failed to load webhook secret", "err", err)
		os.Exit(1)
	}

	// ---- Handler ----
	conversations, err := usecase.NewService(previewClient, summarizer, listStore, duplicateCheckLimit)
	if err != nil {
		slog.Error("failed to create conversation service", "err", err)
		os.Exit(1)
	}

	h, err := handler.NewHandler(conversations, messenger, webhookSecret)
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		slog.Error("required environment variable is not set", "key", key)
		os.Exit(1)
	}
	return v
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
