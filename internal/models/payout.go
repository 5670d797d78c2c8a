package models

import "time"

// PayoutMethod is how a tutor receives their share of approved payments.
type PayoutMethod string

const (
	PayoutMethodBankTransfer PayoutMethod = "bank_transfer"
	PayoutMethodPaypal       PayoutMethod = "paypal"
	PayoutMethodUPI          PayoutMethod = "upi"
)

// PayoutSetting holds one tutor's payout configuration. Every tutor has at
// most one row; deleting it reverts the tutor to manual payout handling.
type PayoutSetting struct {
	ID                string       `db:"id" json:"id"`
	TutorID           string       `db:"tutor_id" json:"tutor"`
	Method            PayoutMethod `db:"method" json:"method"`
	AccountName       string       `db:"account_name" json:"accountName"`
	AccountIdentifier string       `db:"account_identifier" json:"accountIdentifier"`
	CommissionPercent float64      `db:"commission_percent" json:"commissionPercent"`
	CreatedAt         time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time    `db:"updated_at" json:"updated_at"`
}

// PayoutSettingDetail enriches a payout setting with tutor context for the
// admin list view.
type PayoutSettingDetail struct {
	PayoutSetting
	TutorName  string `db:"tutor_name" json:"tutor_name"`
	TutorEmail string `db:"tutor_email" json:"tutor_email"`
}

// PayoutSettingFilter provides filters for listing payout settings.
type PayoutSettingFilter struct {
	TutorID   string
	Method    PayoutMethod
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
