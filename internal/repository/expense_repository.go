package repository

import (
    "context"
    "fmt"
    "time"

    "github.com/aws/aws-sdk-go-v2/aws"
    "github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
    "github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
    "github.com/aws/aws-sdk-go-v2/service/dynamodb"
    "github.com/hwmart-pos/pos-service/internal/domain"
)

type ExpenseRepository struct {
    client    *dynamodb.Client
    tableName string
}

func NewExpenseRepository(client *dynamodb.Client, tableName string) *ExpenseRepository {
    return &ExpenseRepository{
        client:    client,
        tableName: tableName,
    }
}

func (r *ExpenseRepository) CreateExpense(ctx context.Context, expense *domain.Expense) error {
    av, err := attributevalue.MarshalMap(expense)
    if err != nil {
        return fmt.Errorf("failed to marshal expense: %w", err)
    }

    _, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
        TableName: aws.String(r.tableName),
        Item:      av,
    })
    if err != nil {
        return fmt.Errorf("failed to put expense: %w", err)
    }

    return nil
}

// ListExpenses는 기간/카테고리 필터로 스캔한다.
func (r *ExpenseRepository) ListExpenses(ctx context.Context, start, end time.Time, category string) ([]domain.Expense, error) {
    filter := expression.Between(
        expression.Name("expense_date"),
        expression.Value(start),
        expression.Value(end),
    )
    if category != "" {
        filter = filter.And(expression.Equal(expression.Name("category"), expression.Value(category)))
    }

    expr, err := expression.NewBuilder().WithFilter(filter).Build()
    if err != nil {
        return nil, err
    }

    var expenses []domain.Expense

    paginator := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
        TableName:                 aws.String(r.tableName),
        ExpressionAttributeNames:  expr.Names(),
        ExpressionAttributeValues: expr.Values(),
        FilterExpression:          expr.Filter(),
    })

    for paginator.HasMorePages() {
        page, err := paginator.NextPage(ctx)
        if err != nil {
            return nil, fmt.Errorf("failed to scan expenses: %w", err)
        }

        var pageExpenses []domain.Expense
        if err := attributevalue.UnmarshalListOfMaps(page.Items, &pageExpenses); err != nil {
            return nil, fmt.Errorf("failed to unmarshal expenses: %w", err)
        }
        expenses = append(expenses, pageExpenses...)
    }

    return expenses, nil
}
