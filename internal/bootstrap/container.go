package bootstrap

import (
	"context"
	"fmt"
	"time"

	"littlesteps-be/internal/config"
	"littlesteps-be/internal/constant"
	"littlesteps-be/internal/controller"
	"littlesteps-be/internal/pkg/logger"
	"littlesteps-be/internal/pkg/mailer"
	"littlesteps-be/internal/pkg/serverutils"
	"littlesteps-be/internal/repository/unitofwork"
	"littlesteps-be/internal/service"
	"littlesteps-be/pkg/access"
	"littlesteps-be/pkg/conversation"
	"littlesteps-be/pkg/events"
	"littlesteps-be/pkg/llm/factory"
	"littlesteps-be/pkg/metrics"
	pktNats "littlesteps-be/pkg/nats"
	"littlesteps-be/pkg/oidc"
	"littlesteps-be/pkg/throttle"
	"littlesteps-be/pkg/usage"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const sessionTokenIssuer = "littlesteps-be"

type Container struct {
	Logger  logger.ILogger
	Metrics *metrics.Metrics
	Guard   *serverutils.AccessGuard

	// Controllers
	HealthController controller.IHealthController
	AuthController   controller.IAuthController
	OAuthController  controller.IOAuthController
	UserController   controller.IUserController
	ChatController   controller.IChatController
	AdminController  controller.IAdminController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	NatsSubscriber  *pktNats.Subscriber

	closers []func()
}

// Core holds what both the API and the maintenance CLI need.
type Core struct {
	UowFactory unitofwork.RepositoryFactory
	Logger     logger.ILogger
	Metrics    *metrics.Metrics
	Admins     access.AdminList
	Limiter    *usage.Limiter
	PubSub     *gochannel.GoChannel
	Publisher  events.Multi
	NatsPub    *pktNats.Publisher
}

// NewCore validates the policy config and connects the event buses. NATS is
// optional; without it events stay in process.
func NewCore(ctx context.Context, db *gorm.DB, cfg *config.Config, log logger.ILogger) (*Core, error) {
	limiter, err := usage.NewLimiter(cfg.Policy.WeeklyTokenCap)
	if err != nil {
		return nil, err
	}

	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermill.NewStdLogger(false, false),
	)
	publisher := events.Multi{events.NewChannelPublisher(pubSub)}

	var natsPub *pktNats.Publisher
	if cfg.App.NatsURL != "" {
		natsPub, err = pktNats.NewPublisher(ctx, cfg.App.NatsURL)
		if err != nil {
			log.Warn("NATS", "Failed to connect publisher, events stay in process", map[string]interface{}{"error": err.Error()})
		} else {
			publisher = append(publisher, natsPub)
		}
	}

	return &Core{
		UowFactory: unitofwork.NewRepositoryFactory(db),
		Logger:     log,
		Metrics:    metrics.New(),
		Admins:     access.ParseAdminList(cfg.Policy.AdminEmails),
		Limiter:    limiter,
		PubSub:     pubSub,
		Publisher:  publisher,
		NatsPub:    natsPub,
	}, nil
}

func (c *Core) Close() {
	if c.NatsPub != nil {
		c.NatsPub.Close()
	}
	_ = c.PubSub.Close()
}

func (c *Core) NewCleanupService(cfg *config.Config) service.ICleanupService {
	verifier := oidc.NewVerifier(oidc.Config{
		Issuer:     oidc.GitHubActionsIssuer,
		Audience:   cfg.Policy.CleanupOIDCAudience,
		Repository: cfg.Policy.CleanupRepository,
	})
	return service.NewCleanupService(
		c.UowFactory,
		verifier,
		c.Admins,
		cfg.Policy.InactiveDays,
		c.Publisher,
		c.Metrics,
		c.Logger,
	)
}

func NewContainer(ctx context.Context, db *gorm.DB, cfg *config.Config, log logger.ILogger) (*Container, error) {
	// 1. Core Facades
	core, err := NewCore(ctx, db, cfg, log)
	if err != nil {
		return nil, err
	}
	container := &Container{Logger: log, Metrics: core.Metrics, closers: []func(){core.Close}}

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
		cfg.App.ClientURL,
		log,
	)

	llmProvider, err := factory.NewLLMProvider(factory.Config{
		Provider:          cfg.Ai.LLMProvider,
		Model:             cfg.Ai.LLMModel,
		OpenAIAPIKey:      cfg.Ai.OpenAIAPIKey,
		OpenAIBaseURL:     cfg.Ai.OpenAIBaseURL,
		OllamaBaseURL:     cfg.Ai.OllamaBaseURL,
		RequestsPerSecond: cfg.Ai.RequestsPerSecond,
	})
	if err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}
	log.Info("BOOT", "LLM provider ready", map[string]interface{}{
		"provider": cfg.Ai.LLMProvider,
		"model":    cfg.Ai.LLMModel,
	})

	// 2. Infrastructure
	var touch throttle.Throttle = throttle.NewMemory()
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Warn("REDIS", "Failed to parse Redis URL, using it as an address", map[string]interface{}{"error": err.Error()})
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		rdb := redis.NewClient(opt)
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("REDIS", "Redis unreachable, session throttle falls back to memory", map[string]interface{}{"error": err.Error()})
		}
		touch = throttle.NewRedis(rdb, "littlesteps:session-touch:")
		container.closers = append(container.closers, func() { _ = rdb.Close() })
	}

	if cfg.App.NatsURL != "" {
		natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL, log)
		if err != nil {
			log.Warn("NATS", "Failed to connect subscriber", map[string]interface{}{"error": err.Error()})
		} else {
			container.NatsSubscriber = natsSub
			container.closers = append(container.closers, natsSub.Close)
		}
	}

	// 3. Services
	tokens := serverutils.NewSessionTokens(cfg.Auth.Secret, sessionTokenIssuer)
	sessionTTL := time.Duration(cfg.Auth.SessionTTLHours) * time.Hour

	authService := service.NewAuthService(core.UowFactory, tokens, sessionTTL, touch, emailService, log)
	oauthService := service.NewOAuthService(
		core.UowFactory,
		service.NewGoogleProvider(cfg.Auth.GoogleClientID, cfg.Auth.GoogleClientSecret, cfg.Auth.GoogleRedirectURL),
		authService,
		core.Publisher,
		log,
	)
	userService := service.NewUserService(core.UowFactory, core.Limiter, core.Admins, core.Publisher, log)
	chatService := service.NewChatService(
		core.UowFactory,
		conversation.NewAppender(constant.DefaultSystemPrompt),
		core.Limiter,
		llmProvider,
		core.Admins,
		core.Publisher,
		core.Metrics,
		log,
	)
	threadService := service.NewThreadService(core.UowFactory)
	adminService := service.NewAdminService(core.UowFactory, core.Limiter, core.Admins, log)
	container.ConsumerService = service.NewConsumerService(core.PubSub, log)

	// 4. Controllers
	secureCookies := cfg.App.Environment == "production"
	container.Guard = serverutils.NewAccessGuard(authService, access.NewPolicy(access.Routes), core.Admins, core.Metrics.AccessDenied)
	container.HealthController = controller.NewHealthController(core.Metrics)
	container.AuthController = controller.NewAuthController(authService)
	container.OAuthController = controller.NewOAuthController(oauthService, secureCookies)
	container.UserController = controller.NewUserController(userService)
	container.ChatController = controller.NewChatController(chatService, threadService)
	container.AdminController = controller.NewAdminController(core.NewCleanupService(cfg), adminService)

	return container, nil
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}
