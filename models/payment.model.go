package models

import "time"

type PaymentMethod string

// Bank transfer is the only method the storefront accepts today.
const PaymentBankTransfer PaymentMethod = "bank_transfer"

func (m PaymentMethod) Valid() bool {
	return m == PaymentBankTransfer
}

// BankAccount is a transfer target shown to customers at checkout.
type BankAccount struct {
	ID            uint      `gorm:"primaryKey" bson:"_id" json:"id"`
	BankName      string    `gorm:"size:128;not null" bson:"bank_name" json:"bank_name"`
	AccountNumber string    `gorm:"size:64;not null" bson:"account_number" json:"account_number"`
	AccountHolder string    `gorm:"size:128;not null" bson:"account_holder" json:"account_holder"`
	IsDefault     bool      `gorm:"not null;default:false" bson:"is_default" json:"is_default"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
}

func (b *BankAccount) Validate() error {
	if b.BankName == "" || b.AccountNumber == "" || b.AccountHolder == "" {
		return ValidationError("bank_name, account_number and account_holder are required")
	}
	return nil
}
