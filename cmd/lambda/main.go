package main

import (
	"context"
	"log"
	"time"

	"learnnest/internal/config"
	"learnnest/internal/logger"
	"learnnest/internal/server"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	fiberadapter "github.com/awslabs/aws-lambda-go-api-proxy/fiber"
	"go.uber.org/zap"
)

var fiberLambda *fiberadapter.FiberLambda

// The container is built once per cold start and reused across invocations.
func init() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := logger.Initialize(cfg.Logger); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	container, err := server.Build(ctx, cfg)
	if err != nil {
		logger.Get().Fatal("Failed to initialize application", zap.Error(err))
	}
	fiberLambda = fiberadapter.New(container.App)
	logger.Get().Info("Lambda handler initialized", zap.String("env", cfg.Env))
}

func handler(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	defer logger.Sync()
	return fiberLambda.ProxyWithContext(ctx, req)
}

func main() {
	lambda.Start(handler)
}
