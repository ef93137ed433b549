package bootstrap

import (
	"context"
	"log"

	"subshare-be/internal/config"
	"subshare-be/internal/controller"
	"subshare-be/internal/pkg/clock"
	"subshare-be/internal/pkg/logger"
	"subshare-be/internal/pkg/mailer"
	"subshare-be/internal/repository/memory"
	"subshare-be/internal/repository/unitofwork"
	"subshare-be/internal/scheduler"
	"subshare-be/internal/service"
	"subshare-be/internal/websocket"
	"subshare-be/pkg/gateway/factory"
	"subshare-be/pkg/lock"
	pktNats "subshare-be/pkg/nats"
	"subshare-be/pkg/notification"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	Logger logger.ILogger

	// Controllers
	ServiceInstanceController controller.IServiceInstanceController
	SubscriptionController    controller.ISubscriptionController
	BillingController         controller.IBillingController
	WalletController          controller.IWalletController

	// Services
	BillingService      service.IBillingService
	SubscriptionService service.ISubscriptionService
	WalletService       service.IWalletService

	// Background
	ConsumerService service.IConsumerService // nil when SMTP is not configured
	Hub             *websocket.Hub
	Jobs            *scheduler.Jobs

	closers []func()
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	clk := clock.SystemClock{}
	c := &Container{Logger: sysLogger}

	gw, err := factory.NewProvider(cfg.Gateway.Provider, factory.Options{
		MidtransServerKey:  cfg.Gateway.MidtransServerKey,
		MidtransIrisKey:    cfg.Gateway.MidtransIrisKey,
		MidtransProduction: cfg.Gateway.MidtransProduction,
		StripeSecretKey:    cfg.Gateway.StripeSecretKey,
		StripeCurrency:     cfg.Gateway.StripeCurrency,
	})
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize payment gateway: %v", err)
	}
	log.Printf("[INFO] Using payment gateway: %s", gw.Name())

	// Redis
	var locker *lock.Locker
	var rdb redis.UniversalClient
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		client := redis.NewClient(opt)
		if _, err := client.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
		c.closers = append(c.closers, func() { client.Close() })
		rdb = client
		locker = lock.NewLocker(client, "subshare:lease:")
	}
	// 2. Event Bus
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))
	c.closers = append(c.closers, func() { pubSub.Close() })
	c.Hub = websocket.NewHub(rdb, sysLogger)
	sinks := notification.MultiSink{notification.NewWatermillSink(pubSub), c.Hub}

	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(context.Background(), cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] NATS stream not ready: %v", err)
		}
		if natsPub != nil {
			sinks = append(sinks, notification.NewNatsSink(natsPub))
			c.closers = append(c.closers, natsPub.Close)
		}
	}
	publisher := notification.NewEventPublisher(sinks, sysLogger)

	// 3. Services
	c.WalletService = service.NewWalletService(
		uowFactory,
		memory.NewBalanceCache(cfg.Wallet.BalanceCacheTTL),
		gw,
		publisher,
		clk,
		sysLogger,
		service.WalletOptions{
			MinimumWithdrawal: cfg.Wallet.MinimumWithdrawal,
			CardHoldingWindow: cfg.Wallet.CardHoldingWindow,
		},
	)
	c.BillingService = service.NewBillingService(uowFactory, c.WalletService, publisher, clk, sysLogger, service.BillingOptions{
		SweepWindow:     cfg.Billing.SweepWindow,
		SweepWorkers:    cfg.Billing.SweepWorkers,
		PlatformFeeRate: cfg.Billing.PlatformFeeRate,
	})
	c.SubscriptionService = service.NewSubscriptionService(uowFactory, c.BillingService, c.WalletService, gw, publisher, clk, sysLogger)
	instanceService := service.NewServiceInstanceService(uowFactory, sysLogger)

	if cfg.SMTP.Host != "" {
		emailService := mailer.NewEmailService(
			cfg.SMTP.Host,
			cfg.SMTP.Port,
			cfg.SMTP.Email,
			cfg.SMTP.Password,
			cfg.SMTP.Email,
			cfg.SMTP.SenderName,
		)
		c.ConsumerService = service.NewConsumerService(pubSub, notification.Topic, uowFactory, emailService, sysLogger)
	}

	c.Jobs = scheduler.NewJobs(c.BillingService, c.SubscriptionService, c.WalletService, locker, cfg.Scheduler.LeaseTTL, sysLogger)

	// 4. Controllers
	c.ServiceInstanceController = controller.NewServiceInstanceController(instanceService, c.BillingService)
	c.SubscriptionController = controller.NewSubscriptionController(c.SubscriptionService, c.BillingService)
	c.BillingController = controller.NewBillingController(c.BillingService)
	c.WalletController = controller.NewWalletController(c.WalletService)

	return c
}

// Close releases brokers and connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}
