package repository

import (
    "context"
    "errors"
    "fmt"
    "time"

    "github.com/aws/aws-sdk-go-v2/aws"
    "github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
    "github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
    "github.com/aws/aws-sdk-go-v2/service/dynamodb"
    "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
    "github.com/hwmart-pos/pos-service/internal/domain"
)

var (
    ErrProductNotFound   = errors.New("product not found")
    ErrInsufficientStock = errors.New("insufficient stock")
)

type ProductRepository struct {
    client    *dynamodb.Client
    tableName string
}

func NewProductRepository(client *dynamodb.Client, tableName string) *ProductRepository {
    return &ProductRepository{
        client:    client,
        tableName: tableName,
    }
}

func (r *ProductRepository) CreateProduct(ctx context.Context, product *domain.Product) error {
    av, err := attributevalue.MarshalMap(product)
    if err != nil {
        return fmt.Errorf("failed to marshal product: %w", err)
    }

    _, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
        TableName:           aws.String(r.tableName),
        Item:                av,
        ConditionExpression: aws.String("attribute_not_exists(product_id)"),
    })

    if err != nil {
        return fmt.Errorf("failed to put item: %w", err)
    }

    return nil
}

func (r *ProductRepository) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
    result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
        TableName: aws.String(r.tableName),
        Key: map[string]types.AttributeValue{
            "product_id": &types.AttributeValueMemberS{Value: productID},
        },
    })

    if err != nil {
        return nil, fmt.Errorf("failed to get item: %w", err)
    }

    if result.Item == nil {
        return nil, ErrProductNotFound
    }

    var product domain.Product
    if err := attributevalue.UnmarshalMap(result.Item, &product); err != nil {
        return nil, fmt.Errorf("failed to unmarshal product: %w", err)
    }

    return &product, nil
}

// ListProducts는 활성 상품 전체를 스캔한다. 카탈로그 규모가 작은 단일 매장 전제.
func (r *ProductRepository) ListProducts(ctx context.Context, category string) ([]domain.Product, error) {
    filter := expression.Equal(expression.Name("is_active"), expression.Value(true))
    if category != "" {
        filter = filter.And(expression.Equal(expression.Name("category"), expression.Value(category)))
    }

    expr, err := expression.NewBuilder().WithFilter(filter).Build()
    if err != nil {
        return nil, err
    }

    return r.scanProducts(ctx, expr)
}

// LowStockProducts는 재고가 최소 기준 이하로 내려간 활성 상품을 돌려준다.
func (r *ProductRepository) LowStockProducts(ctx context.Context) ([]domain.Product, error) {
    filter := expression.Equal(expression.Name("is_active"), expression.Value(true)).
        And(expression.LessThanEqual(expression.Name("quantity"), expression.Name("min_stock_level")))

    expr, err := expression.NewBuilder().WithFilter(filter).Build()
    if err != nil {
        return nil, err
    }

    return r.scanProducts(ctx, expr)
}

func (r *ProductRepository) scanProducts(ctx context.Context, expr expression.Expression) ([]domain.Product, error) {
    var products []domain.Product

    paginator := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
        TableName:                 aws.String(r.tableName),
        ExpressionAttributeNames:  expr.Names(),
        ExpressionAttributeValues: expr.Values(),
        FilterExpression:          expr.Filter(),
    })

    for paginator.HasMorePages() {
        page, err := paginator.NextPage(ctx)
        if err != nil {
            return nil, fmt.Errorf("failed to scan products: %w", err)
        }

        var pageProducts []domain.Product
        if err := attributevalue.UnmarshalListOfMaps(page.Items, &pageProducts); err != nil {
            return nil, fmt.Errorf("failed to unmarshal products: %w", err)
        }
        products = append(products, pageProducts...)
    }

    return products, nil
}

// DeactivateProduct는 소프트 삭제. 판매 이력이 참조하므로 실제 삭제는 하지 않는다.
func (r *ProductRepository) DeactivateProduct(ctx context.Context, productID string) error {
    update := expression.Set(expression.Name("is_active"), expression.Value(false)).
        Set(expression.Name("updated_at"), expression.Value(time.Now()))
    condition := expression.AttributeExists(expression.Name("product_id"))

    expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(condition).Build()
    if err != nil {
        return err
    }

    _, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
        TableName: aws.String(r.tableName),
        Key: map[string]types.AttributeValue{
            "product_id": &types.AttributeValueMemberS{Value: productID},
        },
        ExpressionAttributeNames:  expr.Names(),
        ExpressionAttributeValues: expr.Values(),
        UpdateExpression:          expr.Update(),
        ConditionExpression:       expr.Condition(),
    })
    if err != nil {
        var ccf *types.ConditionalCheckFailedException
        if errors.As(err, &ccf) {
            return ErrProductNotFound
        }
        return fmt.Errorf("failed to deactivate product: %w", err)
    }
    return nil
}

// DeductStock은 조건부 원자 감소. 재고가 충분하고 활성 상품인 경우에만 적용되며,
// 이 조건 검사 자체가 동시 판매에 대한 직렬화 지점이다 (앱 레이어 선검사는 advisory).
func (r *ProductRepository) DeductStock(ctx context.Context, productID string, quantity int) (newStock int, previousStock int, err error) {
    // Get current stock first
    product, err := r.GetProduct(ctx, productID)
    if err != nil {
        return 0, 0, err
    }
    previousStock = product.Quantity

    update := expression.Set(
        expression.Name("quantity"),
        expression.Minus(
            expression.Name("quantity"),
            expression.Value(quantity),
        ),
    ).Set(
        expression.Name("updated_at"),
        expression.Value(time.Now()),
    )

    // 재고가 충분한 활성 상품인 경우에만 업데이트
    condition := expression.GreaterThanEqual(
        expression.Name("quantity"),
        expression.Value(quantity),
    ).And(expression.Equal(
        expression.Name("is_active"),
        expression.Value(true),
    ))

    expr, err := expression.NewBuilder().
        WithUpdate(update).
        WithCondition(condition).
        Build()
    if err != nil {
        return 0, previousStock, err
    }

    input := &dynamodb.UpdateItemInput{
        TableName: aws.String(r.tableName),
        Key: map[string]types.AttributeValue{
            "product_id": &types.AttributeValueMemberS{Value: productID},
        },
        ExpressionAttributeNames:  expr.Names(),
        ExpressionAttributeValues: expr.Values(),
        UpdateExpression:          expr.Update(),
        ConditionExpression:       expr.Condition(),
        ReturnValues:              types.ReturnValueAllNew,
    }

    result, err := r.client.UpdateItem(ctx, input)
    if err != nil {
        var ccf *types.ConditionalCheckFailedException
        if errors.As(err, &ccf) {
            return 0, previousStock, ErrInsufficientStock
        }
        return 0, previousStock, err
    }

    var updatedProduct domain.Product
    if err := attributevalue.UnmarshalMap(result.Attributes, &updatedProduct); err != nil {
        return 0, previousStock, err
    }

    return updatedProduct.Quantity, previousStock, nil
}

// RestoreStock은 환불/입고 시의 재고 가산. 상한 검사 없이 무조건 적용한다.
func (r *ProductRepository) RestoreStock(ctx context.Context, productID string, quantity int) (newStock int, err error) {
    update := expression.Add(
        expression.Name("quantity"),
        expression.Value(quantity),
    ).Set(
        expression.Name("updated_at"),
        expression.Value(time.Now()),
    )

    expr, err := expression.NewBuilder().WithUpdate(update).Build()
    if err != nil {
        return 0, err
    }

    result, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
        TableName: aws.String(r.tableName),
        Key: map[string]types.AttributeValue{
            "product_id": &types.AttributeValueMemberS{Value: productID},
        },
        ExpressionAttributeNames:  expr.Names(),
        ExpressionAttributeValues: expr.Values(),
        UpdateExpression:          expr.Update(),
        ReturnValues:              types.ReturnValueAllNew,
    })
    if err != nil {
        return 0, fmt.Errorf("failed to restore stock: %w", err)
    }

    var updatedProduct domain.Product
    if err := attributevalue.UnmarshalMap(result.Attributes, &updatedProduct); err != nil {
        return 0, err
    }

    return updatedProduct.Quantity, nil
}
