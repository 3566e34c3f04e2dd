package repository

import (
    "context"

    "github.com/aws/aws-sdk-go-v2/aws"
    "github.com/aws/aws-sdk-go-v2/config"
    "github.com/aws/aws-sdk-go-v2/credentials"
    "github.com/aws/aws-sdk-go-v2/service/dynamodb"
    pkgconfig "github.com/hwmart-pos/pos-service/pkg/config"
)

// NewDynamoDBClient는 DynamoDB 클라이언트를 만든다.
// LocalMode에서는 dynamodb-local 엔드포인트와 고정 자격 증명을 사용한다.
func NewDynamoDBClient(cfg *pkgconfig.Config) (*dynamodb.Client, error) {
    if cfg.LocalMode {
        awsCfg, err := config.LoadDefaultConfig(context.TODO(),
            config.WithRegion(cfg.AWSRegion),
            config.WithCredentialsProvider(
                credentials.NewStaticCredentialsProvider("local", "local", ""),
            ),
        )
        if err != nil {
            return nil, err
        }
        return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
            o.BaseEndpoint = aws.String(cfg.DynamoEndpoint)
        }), nil
    }

    awsCfg, err := config.LoadDefaultConfig(context.TODO(),
        config.WithRegion(cfg.AWSRegion),
    )
    if err != nil {
        return nil, err
    }

    return dynamodb.NewFromConfig(awsCfg), nil
}
