// Package server wires repositories, services and controllers into one HTTP handler.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"iotguardian/internal/ai"
	"iotguardian/internal/auth"
	"iotguardian/internal/config"
	"iotguardian/internal/controller"
	"iotguardian/internal/logx"
	"iotguardian/internal/repository"
	"iotguardian/internal/routes"
	"iotguardian/internal/seed"
	"iotguardian/internal/service"
	"iotguardian/internal/telemetry"
)

// Backends are the optional external stores. Nil fields fall back to process memory.
type Backends struct {
	Redis      *redis.Client
	History    repository.HistoryRepository
	Completers map[string]ai.Completer
}

// Services exposes the domain services, mostly for tests and admin tooling.
type Services struct {
	Notifications *service.NotificationService
	Devices       *service.DeviceService
	Users         *service.UserService
	Sensors       *service.SensorService
	Commands      *service.CommandService
	Issues        *service.IssueService
	Catalog       *service.CatalogService
	Carts         *service.CartService
	Troubleshoot  *service.TroubleshootService
	Auth          *service.AuthService
}

// Server is the assembled application.
type Server struct {
	Services Services
	Issuer   *auth.Issuer
	Router   *mux.Router
	Metrics  *telemetry.Metrics
}

// New builds every service from cfg, seed data and the given backends.
func New(cfg config.Config, data seed.Data, b Backends) *Server {
	var (
		commands repository.CommandStore = repository.NewMemoryCommandStore(cfg.CommandTTL)
		quota    repository.QuotaCounter = repository.NewMemoryQuotaCounter()
	)
	if b.Redis != nil {
		commands = repository.NewRedisCommandStore(b.Redis, cfg.CommandTTL)
		quota = repository.NewRedisQuotaCounter(b.Redis)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := telemetry.NewMetrics(reg)

	notifications := service.NewNotificationService()
	devices := service.NewDeviceService(cfg.OfflineAfter)
	devices.Seed(data.Devices)
	users := service.NewUserService(devices, notifications)
	sensors := service.NewSensorService(devices, users, commands, b.History, notifications, cfg.OfflineAfter)
	sensors.Observe(metrics.ObserveReading)
	commandService := service.NewCommandService(commands, devices)
	issues := service.NewIssueService(data.Issues)
	catalog := service.NewCatalogService(data.Products)
	carts := service.NewCartService(catalog, users, notifications)
	troubleshoot := service.NewTroubleshootService(b.Completers, quota, cfg.AIConfig.Timeout)
	troubleshoot.Observe(metrics.ObserveAI)

	users.OnDelete(devices.ReleaseOwner)
	users.OnDelete(carts.Clear)
	users.OnDelete(notifications.Clear)

	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
	authService := service.NewAuthService(issuer, users, cfg.AdminUsername, cfg.AdminPassword)

	controllers := routes.Controllers{
		Sensors:       controller.NewSensorController(sensors, commandService, users),
		Dashboard:     controller.NewDashboardController(sensors, devices, users),
		Auth:          controller.NewAuthController(authService, users),
		Admin:         controller.NewAdminController(users, devices, commandService, issues),
		Shop:          controller.NewShopController(catalog, carts, issues),
		Notifications: controller.NewNotificationController(notifications),
		Troubleshoot:  controller.NewTroubleshootController(troubleshoot, users),
	}

	return &Server{
		Services: Services{
			Notifications: notifications,
			Devices:       devices,
			Users:         users,
			Sensors:       sensors,
			Commands:      commandService,
			Issues:        issues,
			Catalog:       catalog,
			Carts:         carts,
			Troubleshoot:  troubleshoot,
			Auth:          authService,
		},
		Issuer:  issuer,
		Router:  routes.SetupRouter(controllers, issuer.ValidateToken, users.Get, metrics),
		Metrics: metrics,
	}
}

// Handler returns the router as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.Router
}

// Completers builds a completer for every provider with an API key.
func Completers(ctx context.Context, cfg config.AIConfig) (map[string]ai.Completer, error) {
	out := map[string]ai.Completer{}
	if cfg.GeminiAPIKey != "" {
		gemini, err := ai.NewGeminiCompleter(ctx, ai.GeminiConfig{
			APIKey:      cfg.GeminiAPIKey,
			BaseURL:     cfg.GeminiBaseURL,
			Model:       cfg.GeminiModel,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("gemini: %w", err)
		}
		out[ai.ProviderGemini] = gemini
	} else {
		logx.Warn().Msg("GEMINI_API_KEY not set, gemini troubleshooting disabled")
	}
	if cfg.OpenAIAPIKey != "" {
		out[ai.ProviderChatGPT] = ai.NewOpenAICompleter(ai.OpenAIConfig{
			APIKey:      cfg.OpenAIAPIKey,
			BaseURL:     cfg.OpenAIBaseURL,
			Model:       cfg.OpenAIModel,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		})
	} else {
		logx.Warn().Msg("OPENAI_API_KEY not set, chatgpt troubleshooting disabled")
	}
	return out, nil
}
