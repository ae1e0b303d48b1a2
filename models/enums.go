package models

// DocumentStatus covers the approval sub-machine shared by Bills and
// Disbursement Vouchers plus the post-approval lifecycle states. Invoices use
// the SENT/SHIPPED values instead of the approval states.
type DocumentStatus string

const (
	StatusDraft     DocumentStatus = "DRAFT"
	StatusPendingL1 DocumentStatus = "PENDING_L1"
	StatusPendingL2 DocumentStatus = "PENDING_L2"
	StatusApproved  DocumentStatus = "APPROVED"
	StatusRejected  DocumentStatus = "REJECTED"
	StatusSent      DocumentStatus = "SENT"
	StatusShipped   DocumentStatus = "SHIPPED"
	StatusPartial   DocumentStatus = "PARTIAL"
	StatusPaid      DocumentStatus = "PAID"
	StatusVoid      DocumentStatus = "VOID"
	StatusCancelled DocumentStatus = "CANCELLED"
)

// IsPendingApproval reports whether the document sits in the approval
// sub-machine waiting on a manager.
func (s DocumentStatus) IsPendingApproval() bool {
	return s == StatusPendingL1 || s == StatusPendingL2
}

type AdvanceStatus string

const (
	AdvanceIssued              AdvanceStatus = "ISSUED"
	AdvancePartiallyLiquidated AdvanceStatus = "PARTIALLY_LIQUIDATED"
	AdvanceLiquidated          AdvanceStatus = "LIQUIDATED"
	AdvanceCancelled           AdvanceStatus = "CANCELLED"
)

type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

type AccountSubType string

const (
	AccountSubTypeBank               AccountSubType = "BANK"
	AccountSubTypeCash               AccountSubType = "CASH"
	AccountSubTypeAccountsReceivable AccountSubType = "ACCOUNTS_RECEIVABLE"
	AccountSubTypeEmployeeAdvances   AccountSubType = "EMPLOYEE_ADVANCES"
	AccountSubTypeInventory          AccountSubType = "INVENTORY"
	AccountSubTypePrepaidExpenses    AccountSubType = "PREPAID_EXPENSES"
	AccountSubTypeOtherCurrentAsset  AccountSubType = "OTHER_CURRENT_ASSET"
	AccountSubTypeFixedAsset         AccountSubType = "FIXED_ASSET"
	AccountSubTypeAccountsPayable    AccountSubType = "ACCOUNTS_PAYABLE"
	AccountSubTypeCreditCardPayable  AccountSubType = "CREDIT_CARD_PAYABLE"
	AccountSubTypeAccruedLiabilities AccountSubType = "ACCRUED_LIABILITIES"
	AccountSubTypeUnearnedRevenue    AccountSubType = "UNEARNED_REVENUE"
	AccountSubTypeCurrentLiability   AccountSubType = "CURRENT_LIABILITY"
	AccountSubTypeLongTermLiability  AccountSubType = "LONG_TERM_LIABILITY"
	AccountSubTypeOwnersEquity       AccountSubType = "OWNERS_EQUITY"
	AccountSubTypeRetainedEarnings   AccountSubType = "RETAINED_EARNINGS"
	AccountSubTypeSales              AccountSubType = "SALES"
	AccountSubTypeServiceRevenue     AccountSubType = "SERVICE_REVENUE"
	AccountSubTypeOtherIncome        AccountSubType = "OTHER_INCOME"
	AccountSubTypeCostOfGoodsSold    AccountSubType = "COGS"
	AccountSubTypeOperatingExpense   AccountSubType = "OPERATING_EXPENSE"
	AccountSubTypeSalariesWages      AccountSubType = "SALARIES_WAGES"
	AccountSubTypeRentExpense        AccountSubType = "RENT_EXPENSE"
	AccountSubTypeUtilitiesExpense   AccountSubType = "UTILITIES_EXPENSE"
	AccountSubTypeDepreciation       AccountSubType = "DEPRECIATION"
	AccountSubTypeInterestExpense    AccountSubType = "INTEREST_EXPENSE"
	AccountSubTypeOtherExpense       AccountSubType = "OTHER_EXPENSE"
)

type PayeeType string

const (
	PayeeTypeVendor   PayeeType = "VENDOR"
	PayeeTypeEmployee PayeeType = "EMPLOYEE"
	PayeeTypeOther    PayeeType = "OTHER"
)

type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodCheck        PaymentMethod = "CHECK"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodCreditCard   PaymentMethod = "CREDIT_CARD"
	PaymentMethodGCash        PaymentMethod = "GCASH"
	PaymentMethodMaya         PaymentMethod = "MAYA"
	PaymentMethodOther        PaymentMethod = "OTHER"
)

type ProductType string

const (
	ProductTypeInventory    ProductType = "INVENTORY"
	ProductTypeService      ProductType = "SERVICE"
	ProductTypeNonInventory ProductType = "NON_INVENTORY"
)

type EmploymentStatus string

const (
	EmploymentActive     EmploymentStatus = "ACTIVE"
	EmploymentOnLeave    EmploymentStatus = "ON_LEAVE"
	EmploymentTerminated EmploymentStatus = "TERMINATED"
	EmploymentContractor EmploymentStatus = "CONTRACTOR"
)

// DocumentType selects the concrete table for workflow operations invoked
// through the generic surface.
type DocumentType string

const (
	DocumentTypeBill                DocumentType = "BILL"
	DocumentTypeDisbursementVoucher DocumentType = "DV"
	DocumentTypeSalesInvoice        DocumentType = "INVOICE"
)
