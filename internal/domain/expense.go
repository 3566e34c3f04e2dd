package domain

import (
	"time"
)

var ValidExpenseCategories = []string{"food", "petrol", "utilities", "maintenance", "salary", "other"}

type Expense struct {
	ExpenseID     string    `dynamodbav:"expense_id" json:"expense_id"`
	Description   string    `dynamodbav:"description" json:"description"`
	Amount        float64   `dynamodbav:"amount" json:"amount"`
	Category      string    `dynamodbav:"category" json:"category"`
	ExpenseDate   time.Time `dynamodbav:"expense_date" json:"expense_date"`
	PaidBy        string    `dynamodbav:"paid_by,omitempty" json:"paid_by,omitempty"`
	ReceiptNumber string    `dynamodbav:"receipt_number,omitempty" json:"receipt_number,omitempty"`
	Notes         string    `dynamodbav:"notes,omitempty" json:"notes,omitempty"`
	AddedBy       string    `dynamodbav:"added_by" json:"added_by"`
	CreatedAt     time.Time `dynamodbav:"created_at" json:"created_at"`
}

func ValidExpenseCategory(category string) bool {
	for _, c := range ValidExpenseCategories {
		if c == category {
			return true
		}
	}
	return false
}

type CreateExpenseRequest struct {
	Description   string  `json:"description" binding:"required"`
	Amount        float64 `json:"amount" binding:"required,min=0"`
	Category      string  `json:"category" binding:"required"`
	ExpenseDate   string  `json:"expense_date"`
	PaidBy        string  `json:"paid_by"`
	ReceiptNumber string  `json:"receipt_number"`
	Notes         string  `json:"notes"`
}
