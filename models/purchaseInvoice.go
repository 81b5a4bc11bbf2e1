package models

import (
	"context"
	"strings"
	"time"

	"github.com/mmdatafocus/pos_backend/config"
	"github.com/mmdatafocus/pos_backend/utils"
	"github.com/shopspring/decimal"
)

const MaxInvoiceFileBytes = 15 * 1024 * 1024

type PurchaseInvoice struct {
	ID            int             `gorm:"primary_key" json:"id"`
	InvoiceNumber string          `gorm:"size:100;not null;index" json:"invoiceNumber"`
	CompanyName   string          `gorm:"size:200;not null;index" json:"companyName"`
	InvoiceDate   time.Time       `gorm:"index;not null" json:"invoiceDate"`
	UploadedAt    time.Time       `gorm:"not null" json:"uploadedAt"`
	Total         decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"total"`
	FileKey       string          `gorm:"size:255;not null" json:"-"`
	FileType      string          `gorm:"size:100;not null" json:"fileType"`
	FileName      string          `gorm:"size:255" json:"fileName"`
	CreatedById   *int            `gorm:"index" json:"createdById"`
	CreatedBy     *User           `gorm:"foreignKey:CreatedById" json:"-"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"createdAt"`
}

type NewPurchaseInvoice struct {
	InvoiceNumber string
	CompanyName   string
	InvoiceDate   *time.Time
	Total         decimal.Decimal
}

func isAllowedInvoiceType(contentType string) bool {
	return strings.HasPrefix(contentType, "image/") || contentType == "application/pdf"
}

func (input *NewPurchaseInvoice) validate(file *FileUpload) error {
	input.InvoiceNumber = strings.TrimSpace(input.InvoiceNumber)
	input.CompanyName = strings.TrimSpace(input.CompanyName)
	if file == nil || len(file.Data) == 0 {
		return utils.NewValidationError("file is required")
	}
	if len(file.Data) > MaxInvoiceFileBytes {
		return utils.NewValidationError("file exceeds 15MB limit")
	}
	if !isAllowedInvoiceType(file.ContentType) {
		return utils.NewValidationError("unsupported file type: use images or PDF")
	}
	if input.InvoiceNumber == "" {
		return utils.NewValidationError("invoiceNumber is required")
	}
	if input.CompanyName == "" {
		return utils.NewValidationError("companyName is required")
	}
	if input.Total.IsNegative() {
		return utils.NewValidationError("total must be >= 0")
	}
	return nil
}

func CreatePurchaseInvoice(ctx context.Context, input *NewPurchaseInvoice, file *FileUpload) (*PurchaseInvoice, error) {
	if err := input.validate(file); err != nil {
		return nil, err
	}

	key, err := storeFile(ctx, "invoices", file)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	invoice := PurchaseInvoice{
		InvoiceNumber: input.InvoiceNumber,
		CompanyName:   input.CompanyName,
		InvoiceDate:   now,
		UploadedAt:    now,
		Total:         input.Total,
		FileKey:       key,
		FileType:      file.ContentType,
		FileName:      file.Name,
	}
	if input.InvoiceDate != nil {
		invoice.InvoiceDate = input.InvoiceDate.UTC()
	}
	if userId, ok := utils.GetUserIdFromContext(ctx); ok {
		invoice.CreatedById = &userId
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&invoice).Error; err != nil {
		removeObjects(ctx, key)
		return nil, err
	}
	return &invoice, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// ListPurchaseInvoices filters by invoice date in [from, to) and by a
// case-insensitive match on invoice number or company name.
func ListPurchaseInvoices(ctx context.Context, from *time.Time, to *time.Time, q string) ([]*PurchaseInvoice, error) {
	db := config.GetDB()
	query := db.WithContext(ctx).Model(&PurchaseInvoice{})
	if from != nil {
		query = query.Where("invoice_date >= ?", from.UTC())
	}
	if to != nil {
		query = query.Where("invoice_date < ?", to.UTC())
	}
	if q = strings.TrimSpace(q); q != "" {
		pattern := "%" + escapeLike(strings.ToLower(q)) + "%"
		query = query.Where("(LOWER(invoice_number) LIKE ? OR LOWER(company_name) LIKE ?)", pattern, pattern)
	}

	var invoices []*PurchaseInvoice
	if err := query.Order("invoice_date DESC").Order("id DESC").Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// GetPurchaseInvoiceFile returns the archived file bytes with type and original name.
func GetPurchaseInvoiceFile(ctx context.Context, id int) (*FileUpload, error) {
	invoice, err := utils.FetchModel[PurchaseInvoice](ctx, id)
	if err != nil {
		return nil, err
	}
	data, contentType, err := readObject(ctx, invoice.FileKey)
	if err != nil {
		return nil, err
	}
	if contentType == "" {
		contentType = invoice.FileType
	}
	return &FileUpload{
		Name:        invoice.FileName,
		ContentType: contentType,
		Data:        data,
	}, nil
}
