// internal/pkg/bootstrap/config.go
package bootstrap

import (
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // 容器里不一定有 zoneinfo

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ServiceConfig 描述一个服务的监听端口和按优先级排列的访问地址
type ServiceConfig struct {
	Port     int      `yaml:"port"`
	BaseURLs []string `yaml:"baseUrls"`
}

type Config struct {
	Env      string `yaml:"env"`
	Timezone string `yaml:"timezone"`

	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`

	HTTP struct {
		ConnectTimeout  time.Duration `yaml:"connectTimeout"`
		ReadTimeout     time.Duration `yaml:"readTimeout"`
		ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	} `yaml:"http"`

	Mongo struct {
		URI      string `yaml:"uri"`
		Database string `yaml:"database"`
	} `yaml:"mongo"`

	Jaeger struct {
		Endpoint string `yaml:"endpoint"`
	} `yaml:"jaeger"`

	Nacos struct {
		Enabled   bool   `yaml:"enabled"`
		Addrs     string `yaml:"addrs"`
		Namespace string `yaml:"namespace"`
		Group     string `yaml:"group"`
	} `yaml:"nacos"`

	Redis struct {
		Addr        string `yaml:"addr"`
		Password    string `yaml:"password"`
		DB          int    `yaml:"db"`
		PushChannel string `yaml:"pushChannel"`
	} `yaml:"redis"`

	Kafka struct {
		Brokers          []string `yaml:"brokers"`
		OrderEventsTopic string   `yaml:"orderEventsTopic"`
		ConsumerGroup    string   `yaml:"consumerGroup"`
	} `yaml:"kafka"`

	Zookeeper struct {
		Servers        []string      `yaml:"servers"`
		SessionTimeout time.Duration `yaml:"sessionTimeout"`
	} `yaml:"zookeeper"`

	Services map[string]ServiceConfig `yaml:"services"`

	VNPay struct {
		TmnCode       string `yaml:"tmnCode"`
		HashSecret    string `yaml:"hashSecret"`
		PayURL        string `yaml:"payUrl"`
		ReturnURL     string `yaml:"returnUrl"`
		ExpireMinutes int    `yaml:"expireMinutes"`
	} `yaml:"vnpay"`

	SendGrid struct {
		APIKey    string `yaml:"apiKey"`
		FromEmail string `yaml:"fromEmail"`
		FromName  string `yaml:"fromName"`
	} `yaml:"sendgrid"`

	Notification struct {
		Transport string `yaml:"transport"` // http | kafka
	} `yaml:"notification"`

	Membership struct {
		ResetInterval time.Duration `yaml:"resetInterval"`
	} `yaml:"membership"`

	Gateway struct {
		AllowedOrigins []string `yaml:"allowedOrigins"`
		AllowedMethods []string `yaml:"allowedMethods"`
		AllowedHeaders []string `yaml:"allowedHeaders"`
		Auth           struct {
			Enabled        bool     `yaml:"enabled"`
			Secret         string   `yaml:"secret"`
			PublicPrefixes []string `yaml:"publicPrefixes"`
		} `yaml:"auth"`
	} `yaml:"gateway"`
}

const (
	ProductService      = "product-service"
	CartService         = "cart-service"
	OrderService        = "order-service"
	PaymentService      = "payment-service"
	NotificationService = "notification-service"
	ReviewService       = "review-service"
	UserService         = "user-service"
	ChatService         = "chat-service"
	APIGateway          = "api-gateway"
)

// DefaultConfig 返回本地开发可直接使用的完整配置
func DefaultConfig() *Config {
	cfg := &Config{Env: "dev", Timezone: "Asia/Ho_Chi_Minh"}
	cfg.Log.Level = "info"
	cfg.HTTP.ConnectTimeout = 5 * time.Second
	cfg.HTTP.ReadTimeout = 10 * time.Second
	cfg.HTTP.ShutdownTimeout = 10 * time.Second
	cfg.Mongo.URI = "mongodb://localhost:27017"
	cfg.Mongo.Database = "nexusmall"
	cfg.Nacos.Addrs = "localhost:8848"
	cfg.Nacos.Group = "DEFAULT_GROUP"
	cfg.Redis.PushChannel = "nexusmall:push"
	cfg.Kafka.OrderEventsTopic = "order-events"
	cfg.Kafka.ConsumerGroup = "notification-service"
	cfg.Zookeeper.SessionTimeout = 10 * time.Second

	cfg.Services = map[string]ServiceConfig{}
	for name, port := range map[string]int{
		APIGateway:          8080,
		ProductService:      8081,
		CartService:         8082,
		OrderService:        8083,
		PaymentService:      8084,
		NotificationService: 8085,
		ReviewService:       8086,
		UserService:         8087,
		ChatService:         8088,
	} {
		cfg.Services[name] = ServiceConfig{Port: port, BaseURLs: []string{"http://localhost:" + strconv.Itoa(port)}}
	}

	cfg.VNPay.PayURL = "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html"
	cfg.VNPay.ReturnURL = "http://localhost:8080/api/payment/callback"
	cfg.VNPay.ExpireMinutes = 15
	cfg.SendGrid.FromEmail = "no-reply@nexusmall.local"
	cfg.SendGrid.FromName = "NexusMall"
	cfg.Notification.Transport = "http"
	cfg.Membership.ResetInterval = time.Hour

	cfg.Gateway.AllowedOrigins = []string{"http://localhost:3000"}
	cfg.Gateway.AllowedMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	cfg.Gateway.AllowedHeaders = []string{"Authorization", "Content-Type", "X-Requested-With"}
	cfg.Gateway.Auth.PublicPrefixes = []string{"/api/products", "/api/reviews", "/api/payment", "/healthz"}
	return cfg
}

// Load 读取 YAML 配置叠加在默认值上，再应用环境变量覆盖。
// 文件不存在时只使用默认值。
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config %s", path)
		}
	case os.IsNotExist(err):
	default:
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	setString("MONGO_URI", &c.Mongo.URI)
	setString("MONGO_DATABASE", &c.Mongo.Database)
	setString("VNPAY_TMN_CODE", &c.VNPay.TmnCode)
	setString("VNPAY_HASH_SECRET", &c.VNPay.HashSecret)
	setString("SENDGRID_API_KEY", &c.SendGrid.APIKey)
	setString("JWT_SECRET", &c.Gateway.Auth.Secret)
	setString("REDIS_ADDR", &c.Redis.Addr)
	setString("JAEGER_ENDPOINT", &c.Jaeger.Endpoint)
	setString("LOG_LEVEL", &c.Log.Level)
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
	}
	if v := os.Getenv("ZK_SERVERS"); v != "" {
		c.Zookeeper.Servers = splitList(v)
	}
	if v := os.Getenv("NACOS_SERVER_ADDRS"); v != "" {
		c.Nacos.Enabled = true
		c.Nacos.Addrs = v
	}
}

func (c *Config) validate() error {
	switch c.Notification.Transport {
	case "http":
	case "kafka":
		if len(c.Kafka.Brokers) == 0 {
			return errors.New("notification.transport is kafka but kafka.brokers is empty")
		}
	default:
		return errors.Errorf("unknown notification.transport %q", c.Notification.Transport)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return errors.Wrapf(err, "timezone %q", c.Timezone)
	}
	if c.Membership.ResetInterval <= 0 {
		return errors.New("membership.resetInterval must be positive")
	}
	if c.Gateway.Auth.Enabled && c.Gateway.Auth.Secret == "" {
		return errors.New("gateway.auth.enabled requires JWT_SECRET")
	}
	return nil
}

// Location 返回业务时区
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Port 返回服务监听端口
func (c *Config) Port(service string) int {
	return c.Services[service].Port
}

// Endpoints 把 Services 转成 service -> baseUrls 的映射
func (c *Config) Endpoints() map[string][]string {
	out := make(map[string][]string, len(c.Services))
	for name, svc := range c.Services {
		out[name] = svc.BaseURLs
	}
	return out
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
