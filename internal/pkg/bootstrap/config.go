// internal/pkg/bootstrap/config.go
package bootstrap

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 是整个服务的配置树，从 YAML 文件加载，关键项可被环境变量覆盖。
type Config struct {
	Service struct {
		Name string `yaml:"name"`
		Port int    `yaml:"port"`
	} `yaml:"service"`

	Infra struct {
		Jaeger struct {
			Endpoint string `yaml:"endpoint"`
		} `yaml:"jaeger"`
		Kafka struct {
			Brokers string `yaml:"brokers"` // 逗号分隔
			Topic   string `yaml:"topic"`
		} `yaml:"kafka"`
		Redis struct {
			Addrs string `yaml:"addrs"` // 逗号分隔
		} `yaml:"redis"`
		Mysql struct {
			DSN string `yaml:"dsn"`
		} `yaml:"mysql"`
		Zookeeper struct {
			Servers string `yaml:"servers"` // 逗号分隔
		} `yaml:"zookeeper"`
		CartAPI struct {
			BaseURL string `yaml:"base_url"`
		} `yaml:"cart_api"`
	} `yaml:"infra"`

	Checkout struct {
		// GuardBackend 选择幂等闸实现: memory | redis | zookeeper
		GuardBackend string `yaml:"guard_backend"`
		// CartBackend 选择持久化边界实现: http | mysql
		CartBackend string `yaml:"cart_backend"`
	} `yaml:"checkout"`

	Gateway struct {
		SuccessRate    float64       `yaml:"success_rate"`
		InitDelay      time.Duration `yaml:"init_delay"`
		ProcessDelay   time.Duration `yaml:"process_delay"`
		CancelDelay    time.Duration `yaml:"cancel_delay"`
		ProcessTimeout time.Duration `yaml:"process_timeout"`
		// DeclineRule 是可选的 CEL 表达式，放行返回 true。
		// 用于沙箱环境里按金额/方式强制拒绝，留空则纯概率。
		DeclineRule string `yaml:"decline_rule"`
	} `yaml:"gateway"`
}

var currentConfig Config

// LoadConfig 从给定路径加载配置；路径为空或文件不存在时使用内置默认值。
func LoadConfig(path string) error {
	applyDefaults(&currentConfig)

	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if err := yaml.Unmarshal(data, &currentConfig); err != nil {
		return err
	}
	applyDefaults(&currentConfig)
	return nil
}

// GetCurrentConfig 返回当前生效的配置。
func GetCurrentConfig() *Config {
	return &currentConfig
}

func applyDefaults(c *Config) {
	if c.Service.Name == "" {
		c.Service.Name = "checkout-service"
	}
	if c.Service.Port == 0 {
		c.Service.Port = 8086
	}
	if c.Infra.Jaeger.Endpoint == "" {
		c.Infra.Jaeger.Endpoint = getEnv("JAEGER_ENDPOINT", "http://localhost:14268/api/traces")
	}
	if c.Infra.Kafka.Brokers == "" {
		c.Infra.Kafka.Brokers = getEnv("KAFKA_BROKERS", "")
	}
	if c.Infra.Kafka.Topic == "" {
		c.Infra.Kafka.Topic = "checkout-events"
	}
	if c.Infra.Redis.Addrs == "" {
		c.Infra.Redis.Addrs = getEnv("REDIS_ADDRS", "")
	}
	if c.Infra.Mysql.DSN == "" {
		c.Infra.Mysql.DSN = getEnv("MYSQL_DSN", "")
	}
	if c.Infra.Zookeeper.Servers == "" {
		c.Infra.Zookeeper.Servers = getEnv("ZK_SERVERS", "")
	}
	if c.Infra.CartAPI.BaseURL == "" {
		c.Infra.CartAPI.BaseURL = getEnv("CART_API_URL", "http://localhost:8000/api")
	}
	if c.Checkout.GuardBackend == "" {
		c.Checkout.GuardBackend = "memory"
	}
	if c.Checkout.CartBackend == "" {
		c.Checkout.CartBackend = "http"
	}
	if c.Gateway.SuccessRate == 0 {
		c.Gateway.SuccessRate = 0.8
	}
	if c.Gateway.InitDelay == 0 {
		c.Gateway.InitDelay = time.Second
	}
	if c.Gateway.ProcessDelay == 0 {
		c.Gateway.ProcessDelay = 2 * time.Second
	}
	if c.Gateway.CancelDelay == 0 {
		c.Gateway.CancelDelay = time.Second
	}
	if c.Gateway.ProcessTimeout == 0 {
		c.Gateway.ProcessTimeout = 5 * time.Second
	}
}

// getEnv 从环境变量读取配置，带默认值。
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
