package main

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"github.com/go-zookeeper/zk"
	"go.opentelemetry.io/otel"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"savor/internal/pkg/bootstrap"
	"savor/internal/pkg/httpclient"
	"savor/internal/pkg/mq"
	pkgredis "savor/internal/pkg/redis"
	"savor/internal/service/checkout/application"
	"savor/internal/service/checkout/domain/port"
	"savor/internal/service/checkout/infrastructure"
	"savor/internal/service/checkout/infrastructure/adapter"
	"savor/internal/service/checkout/interfaces"
	"savor/internal/service/payment/gateway"
	"savor/internal/service/payment/infrastructure/rule"
)

const serviceName = "checkout-service"

func main() {
	if err := bootstrap.LoadConfig(os.Getenv("CONFIG_PATH")); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := bootstrap.GetCurrentConfig()
	tracer := otel.Tracer(serviceName)

	// 1. 支付网关：概率性判定，可选地叠加一条 CEL 拒绝规则
	var outcomes gateway.OutcomeSource = gateway.NewRandomOutcome(cfg.Gateway.SuccessRate, time.Now().UnixNano())
	if cfg.Gateway.DeclineRule != "" {
		celOutcomes, err := rule.NewCELOutcomeAdapter(cfg.Gateway.DeclineRule, outcomes)
		if err != nil {
			log.Fatalf("failed to compile decline rule: %v", err)
		}
		outcomes = celOutcomes
	}
	simulator := gateway.NewSimulator(gateway.Config{
		InitDelay:      cfg.Gateway.InitDelay,
		ProcessDelay:   cfg.Gateway.ProcessDelay,
		CancelDelay:    cfg.Gateway.CancelDelay,
		ProcessTimeout: cfg.Gateway.ProcessTimeout,
	}, outcomes, tracer)

	// 2. 幂等闸：单实例用内存，多实例部署选 redis 或 zookeeper
	var guard port.InflightGuard
	var redisClient *pkgredis.Client
	var zkConn *zk.Conn
	switch cfg.Checkout.GuardBackend {
	case "redis":
		client, err := pkgredis.NewClient(cfg.Infra.Redis.Addrs)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		redisClient = client
		guard = adapter.NewRedisInflightGuard(client, 0)
	case "zookeeper":
		conn, _, err := zk.Connect(strings.Split(cfg.Infra.Zookeeper.Servers, ","), 10*time.Second)
		if err != nil {
			log.Fatalf("failed to connect to zookeeper: %v", err)
		}
		zkConn = conn
		guard, err = adapter.NewZkInflightGuard(conn)
		if err != nil {
			log.Fatalf("failed to initialize zookeeper guard: %v", err)
		}
	default:
		guard = infrastructure.NewMemoryInflightGuard()
	}

	// 3. 持久化边界：默认走订单后台的 REST API，也可直连订单库
	var cartBackend port.CartBackend
	switch cfg.Checkout.CartBackend {
	case "mysql":
		db, err := gorm.Open(mysql.Open(cfg.Infra.Mysql.DSN), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to connect to mysql: %v", err)
		}
		cartBackend = adapter.NewCartGormAdapter(db)
	default:
		cartBackend = adapter.NewCartHTTPAdapter(httpclient.NewClient(tracer), cfg.Infra.CartAPI.BaseURL)
	}

	// 4. 事件出口：websocket 推送 + 可选的 Kafka 广播
	hub := interfaces.NewHub()
	go hub.Run()
	notifiers := infrastructure.CompositeNotifier{hub}
	var kafkaNotifier *adapter.NotificationKafkaAdapter
	if cfg.Infra.Kafka.Brokers != "" {
		writer := mq.NewKafkaWriter(strings.Split(cfg.Infra.Kafka.Brokers, ","), cfg.Infra.Kafka.Topic)
		kafkaNotifier = adapter.NewNotificationKafkaAdapter(writer)
		notifiers = append(notifiers, kafkaNotifier)
	}

	service := application.NewCheckoutApplicationService(simulator, cartBackend, guard, notifiers, tracer)
	handler := interfaces.NewCheckoutHandler(service, hub)

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: cfg.Service.Name,
		Port:        cfg.Service.Port,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			handler.RegisterRoutes(appCtx.Mux)
		},
		OnShutdown: func(ctx context.Context) {
			if kafkaNotifier != nil {
				if err := kafkaNotifier.Close(); err != nil {
					log.Printf("Error closing kafka writer: %v", err)
				}
			}
			if redisClient != nil {
				if err := redisClient.Close(); err != nil {
					log.Printf("Error closing redis client: %v", err)
				}
			}
			if zkConn != nil {
				zkConn.Close()
			}
		},
	})
}
