package config

import (
    "github.com/kelseyhightower/envconfig"
)

type Config struct {
    Port             string `envconfig:"PORT" default:"8080"`
    AWSRegion        string `envconfig:"AWS_REGION" default:"ap-northeast-2"`
    ProductTableName string `envconfig:"PRODUCT_TABLE_NAME" default:"pos-products"`
    SaleTableName    string `envconfig:"SALE_TABLE_NAME" default:"pos-sales"`
    ExpenseTableName string `envconfig:"EXPENSE_TABLE_NAME" default:"pos-expenses"`
    CounterTableName string `envconfig:"COUNTER_TABLE_NAME" default:"pos-counters"`
    KafkaBrokers     string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
    KafkaEnabled     bool   `envconfig:"KAFKA_ENABLED" default:"false"`
    JWTSecret        string `envconfig:"JWT_SECRET" default:"dev-secret-change-me"`
    MetricsEnabled   bool   `envconfig:"METRICS_ENABLED" default:"true"`
    LogLevel         string `envconfig:"LOG_LEVEL" default:"info"`
    LocalMode        bool   `envconfig:"LOCAL_MODE" default:"true"` // AWS 없이 로컬 실행 모드
    DynamoEndpoint   string `envconfig:"DYNAMO_ENDPOINT" default:"http://localhost:8000"`
}

func Load() (*Config, error) {
    var cfg Config
    if err := envconfig.Process("", &cfg); err != nil {
        return nil, err
    }
    return &cfg, nil
}
