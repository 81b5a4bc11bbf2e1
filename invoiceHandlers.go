package main

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/pos_backend/config"
	"github.com/mmdatafocus/pos_backend/models"
	"github.com/mmdatafocus/pos_backend/utils"
)

func createInvoiceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !isMultipart(c) {
			badRequest(c, "multipart/form-data required")
			return
		}
		file, err := readUpload(c, "file", models.MaxInvoiceFileBytes)
		if err != nil {
			if errors.Is(err, errUploadTooLarge) {
				badRequest(c, "file exceeds 15MB limit")
				return
			}
			badRequest(c, "invalid file upload")
			return
		}

		input := models.NewPurchaseInvoice{
			InvoiceNumber: c.PostForm("invoiceNumber"),
			CompanyName:   c.PostForm("companyName"),
		}
		if value := c.PostForm("invoiceDate"); value != "" {
			invoiceDate, _, err := utils.ParseDateOrTime(value, config.Location())
			if err != nil {
				badRequest(c, "invalid invoiceDate")
				return
			}
			input.InvoiceDate = &invoiceDate
		}
		total, err := formDecimal(c, "total")
		if err != nil {
			respondError(c, err)
			return
		}
		if total != nil {
			input.Total = *total
		}

		invoice, err := models.CreatePurchaseInvoice(c.Request.Context(), &input, file)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"id": invoice.ID})
	}
}

func listInvoicesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		from, to, err := queryRange(c, false)
		if err != nil {
			respondError(c, err)
			return
		}
		invoices, err := models.ListPurchaseInvoices(c.Request.Context(), from, to, c.Query("q"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, invoices)
	}
}

func invoiceFileHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c, "id")
		if !ok {
			return
		}
		file, err := models.GetPurchaseInvoiceFile(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.Header("Content-Disposition", contentDisposition("inline", url.PathEscape(file.Name)))
		c.Data(http.StatusOK, file.ContentType, file.Data)
	}
}
