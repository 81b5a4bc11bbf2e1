package models

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mmdatafocus/pos_backend/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePaymentUnknownOrder(t *testing.T) {
	mock := newMockDB(t)
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `orders` WHERE id = \\?").
		WithArgs(77).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, err := CreatePayment(context.Background(), 77, &NewPayment{Method: PaymentMethodCash, Amount: dec("1000")})
	assert.ErrorIs(t, err, utils.ErrorRecordNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePaymentRejectsInvalidMethod(t *testing.T) {
	_, err := CreatePayment(context.Background(), 1, &NewPayment{Method: "BITCOIN", Amount: dec("1")})
	require.Error(t, err)
	assert.Equal(t, "invalid payment method", err.Error())
}

func TestListPurchaseInvoicesEscapesSearch(t *testing.T) {
	mock := newMockDB(t)
	mock.ExpectQuery("SELECT \\* FROM `purchase_invoices` WHERE \\(LOWER\\(invoice_number\\) LIKE \\? OR LOWER\\(company_name\\) LIKE \\?\\) ORDER BY invoice_date DESC,id DESC").
		WithArgs(`%acme\_1%`, `%acme\_1%`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "invoice_number", "company_name"}).AddRow(3, "F-1", "ACME_1 Ltda"))

	invoices, err := ListPurchaseInvoices(context.Background(), nil, nil, "  ACME_1 ")
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Equal(t, "ACME_1 Ltda", invoices[0].CompanyName)
	require.NoError(t, mock.ExpectationsWereMet())
}
