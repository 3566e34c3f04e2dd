package repository

import (
    "context"
    "errors"
    "fmt"

    "github.com/aws/aws-sdk-go-v2/aws"
    "github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
    "github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
    "github.com/aws/aws-sdk-go-v2/service/dynamodb"
    "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
    "github.com/hwmart-pos/pos-service/internal/domain"
)

var (
    ErrSaleNotFound     = errors.New("sale not found")
    ErrDuplicateInvoice = errors.New("duplicate invoice number")
)

const saleDayIndex = "sale_day-index"

type SaleRepository struct {
    client           *dynamodb.Client
    tableName        string
    counterTableName string
}

func NewSaleRepository(client *dynamodb.Client, tableName, counterTableName string) *SaleRepository {
    return &SaleRepository{
        client:           client,
        tableName:        tableName,
        counterTableName: counterTableName,
    }
}

// NextInvoiceSeq는 일자별 송장 순번을 원자적으로 발급한다.
// 카운터 테이블에 ADD 1 — count-then-insert 방식의 레이스가 없다.
func (r *SaleRepository) NextInvoiceSeq(ctx context.Context, day string) (int, error) {
    update := expression.Add(expression.Name("seq"), expression.Value(1))

    expr, err := expression.NewBuilder().WithUpdate(update).Build()
    if err != nil {
        return 0, err
    }

    result, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
        TableName: aws.String(r.counterTableName),
        Key: map[string]types.AttributeValue{
            "counter_id": &types.AttributeValueMemberS{Value: "sale#" + day},
        },
        ExpressionAttributeNames:  expr.Names(),
        ExpressionAttributeValues: expr.Values(),
        UpdateExpression:          expr.Update(),
        ReturnValues:              types.ReturnValueUpdatedNew,
    })
    if err != nil {
        return 0, fmt.Errorf("failed to allocate invoice seq: %w", err)
    }

    var counter struct {
        Seq int `dynamodbav:"seq"`
    }
    if err := attributevalue.UnmarshalMap(result.Attributes, &counter); err != nil {
        return 0, fmt.Errorf("failed to unmarshal counter: %w", err)
    }

    return counter.Seq, nil
}

// CreateSale은 송장 번호 중복 시 ErrDuplicateInvoice를 돌려준다.
// 유니크 보장은 카운터가 하고, 이 조건은 방어선이다.
func (r *SaleRepository) CreateSale(ctx context.Context, sale *domain.Sale) error {
    av, err := attributevalue.MarshalMap(sale)
    if err != nil {
        return fmt.Errorf("failed to marshal sale: %w", err)
    }

    _, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
        TableName:           aws.String(r.tableName),
        Item:                av,
        ConditionExpression: aws.String("attribute_not_exists(invoice_number)"),
    })
    if err != nil {
        var ccf *types.ConditionalCheckFailedException
        if errors.As(err, &ccf) {
            return ErrDuplicateInvoice
        }
        return fmt.Errorf("failed to put sale: %w", err)
    }

    return nil
}

func (r *SaleRepository) GetSale(ctx context.Context, invoiceNumber string) (*domain.Sale, error) {
    result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
        TableName: aws.String(r.tableName),
        Key: map[string]types.AttributeValue{
            "invoice_number": &types.AttributeValueMemberS{Value: invoiceNumber},
        },
    })
    if err != nil {
        return nil, fmt.Errorf("failed to get sale: %w", err)
    }

    if result.Item == nil {
        return nil, ErrSaleNotFound
    }

    var sale domain.Sale
    if err := attributevalue.UnmarshalMap(result.Item, &sale); err != nil {
        return nil, fmt.Errorf("failed to unmarshal sale: %w", err)
    }

    return &sale, nil
}

// ListSalesByDay는 sale_day GSI로 하루치 판매를 조회한다.
func (r *SaleRepository) ListSalesByDay(ctx context.Context, day string) ([]domain.Sale, error) {
    keyCond := expression.Key("sale_day").Equal(expression.Value(day))

    expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
    if err != nil {
        return nil, err
    }

    var sales []domain.Sale

    paginator := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
        TableName:                 aws.String(r.tableName),
        IndexName:                 aws.String(saleDayIndex),
        ExpressionAttributeNames:  expr.Names(),
        ExpressionAttributeValues: expr.Values(),
        KeyConditionExpression:    expr.KeyCondition(),
    })

    for paginator.HasMorePages() {
        page, err := paginator.NextPage(ctx)
        if err != nil {
            return nil, fmt.Errorf("failed to query sales: %w", err)
        }

        var pageSales []domain.Sale
        if err := attributevalue.UnmarshalListOfMaps(page.Items, &pageSales); err != nil {
            return nil, fmt.Errorf("failed to unmarshal sales: %w", err)
        }
        sales = append(sales, pageSales...)
    }

    return sales, nil
}

// UpdateStockStatus는 커밋 이후 재고 반영 결과를 판매 레코드에 기록한다.
func (r *SaleRepository) UpdateStockStatus(ctx context.Context, invoiceNumber string, status domain.StockStatus, failures []string) error {
    update := expression.Set(expression.Name("stock_status"), expression.Value(status))
    if len(failures) > 0 {
        update = update.Set(expression.Name("stock_failures"), expression.Value(failures))
    }
    condition := expression.AttributeExists(expression.Name("invoice_number"))

    expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(condition).Build()
    if err != nil {
        return err
    }

    _, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
        TableName: aws.String(r.tableName),
        Key: map[string]types.AttributeValue{
            "invoice_number": &types.AttributeValueMemberS{Value: invoiceNumber},
        },
        ExpressionAttributeNames:  expr.Names(),
        ExpressionAttributeValues: expr.Values(),
        UpdateExpression:          expr.Update(),
        ConditionExpression:       expr.Condition(),
    })
    if err != nil {
        var ccf *types.ConditionalCheckFailedException
        if errors.As(err, &ccf) {
            return ErrSaleNotFound
        }
        return fmt.Errorf("failed to update stock status: %w", err)
    }
    return nil
}

// DeleteSale은 환불 플로우에서만 호출된다.
func (r *SaleRepository) DeleteSale(ctx context.Context, invoiceNumber string) error {
    _, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
        TableName: aws.String(r.tableName),
        Key: map[string]types.AttributeValue{
            "invoice_number": &types.AttributeValueMemberS{Value: invoiceNumber},
        },
    })
    if err != nil {
        return fmt.Errorf("failed to delete sale: %w", err)
    }
    return nil
}
