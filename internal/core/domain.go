package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Food          Category = "Food"
	Transport     Category = "Transportation"
	Housing       Category = "Housing"
	Utilities     Category = "Utilities"
	Entertainment Category = "Entertainment"
	Healthcare    Category = "Healthcare"
	Shopping      Category = "Shopping"
	Education     Category = "Education"
	PersonalCare  Category = "Personal Care"
	OtherCategory Category = "Other"
)

const (
	Cash          PaymentMethod = "Cash"
	CreditCard    PaymentMethod = "Credit Card"
	DebitCard     PaymentMethod = "Debit Card"
	BankTransfer  PaymentMethod = "Bank Transfer"
	MobilePayment PaymentMethod = "Mobile Payment"
	Check         PaymentMethod = "Check"
	OtherMethod   PaymentMethod = "Other"
)

type (
	Category      string
	PaymentMethod string

	Date struct {
		time.Time
	}

	// Session is the authenticated identity held by the running client.
	Session struct {
		UserID string `json:"_id"`
		Name   string `json:"name"`
		Email  string `json:"email"`
		Token  string `json:"token"`
	}

	Expense struct {
		ID          string    `json:"_id"`
		User        string    `json:"user,omitempty"`
		Amount      Money     `json:"amount"`
		Description string    `json:"description"`
		Category    Category  `json:"category"`
		Date        Date      `json:"date"`
		CreatedAt   time.Time `json:"createdAt,omitempty"`
		UpdatedAt   time.Time `json:"updatedAt,omitempty"`
	}

	// ExpenseInput is the body of create and update calls.
	ExpenseInput struct {
		Amount      Money    `json:"amount"`
		Description string   `json:"description"`
		Category    Category `json:"category"`
		Date        Date     `json:"date"`
	}

	Budget struct {
		ID            string        `json:"_id"`
		User          string        `json:"user,omitempty"`
		Amount        Money         `json:"amount"`
		Category      Category      `json:"category"`
		PaymentMethod PaymentMethod `json:"paymentMethod"`
		Month         int           `json:"month"`
		Year          int           `json:"year"`
		CreatedAt     time.Time     `json:"createdAt,omitempty"`
		UpdatedAt     time.Time     `json:"updatedAt,omitempty"`
	}

	BudgetInput struct {
		Amount        Money         `json:"amount"`
		Category      Category      `json:"category"`
		PaymentMethod PaymentMethod `json:"paymentMethod"`
		Month         int           `json:"month"`
		Year          int           `json:"year"`
	}

	// DeleteResult is what the API answers to a delete call.
	DeleteResult struct {
		ID string `json:"id"`
	}
)

var (
	ErrInvalidDay         = errors.New("invalid day")
	ErrInvalidMonth       = errors.New("invalid month")
	ErrInvalidYear        = errors.New("invalid year")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyDescription   = errors.New("empty description")
	ErrUnknownCategory    = errors.New("unknown category")
	ErrUnknownPayment     = errors.New("unknown payment method")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
)

var categories = []Category{
	Food, Transport, Housing, Utilities, Entertainment,
	Healthcare, Shopping, Education, PersonalCare, OtherCategory,
}

var paymentMethods = []PaymentMethod{
	Cash, CreditCard, DebitCard, BankTransfer, MobilePayment, Check, OtherMethod,
}

// Categories returns the closed set of expense categories known to the API.
func Categories() []Category {
	return append([]Category(nil), categories...)
}

// PaymentMethods returns the payment methods a budget can be tied to.
func PaymentMethods() []PaymentMethod {
	return append([]PaymentMethod(nil), paymentMethods...)
}

// ParseCategory matches s case-insensitively against the known categories.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range categories {
		if strings.EqualFold(string(c), s) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// ParsePaymentMethod matches s case-insensitively against the known methods.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	s = strings.TrimSpace(s)
	for _, m := range paymentMethods {
		if strings.EqualFold(string(m), s) {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPayment, s)
}

func (c Category) Valid() bool {
	for _, known := range categories {
		if c == known {
			return true
		}
	}
	return false
}

func (m PaymentMethod) Valid() bool {
	for _, known := range paymentMethods {
		if m == known {
			return true
		}
	}
	return false
}

// Valid reports whether the session carries a credential.
func (s Session) Valid() bool {
	return s.Token != ""
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Period returns the month and year the date falls into.
func (d Date) Period() Period {
	return Period{Month: d.Month(), Year: d.Year()}
}

// Noon pins the date to 12:00 UTC so that timezone shifts on the server
// never move an expense to the neighbouring day.
func (d Date) Noon() Date {
	y, m, day := d.Date()
	return Date{Time: time.Date(y, m, day, 12, 0, 0, 0, time.UTC)}
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a date in YYYY-MM-DD format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

func (e ExpenseInput) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(e.Description) > 200 {
		return ErrDescriptionTooLong
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if !e.Category.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, e.Category)
	}
	return nil
}

func (b BudgetInput) Validate() error {
	if err := b.Amount.Validate(); err != nil {
		return err
	}
	if !b.Category.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, b.Category)
	}
	if b.PaymentMethod != "" && !b.PaymentMethod.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownPayment, b.PaymentMethod)
	}
	return Period{Month: b.Month, Year: b.Year}.Validate()
}
