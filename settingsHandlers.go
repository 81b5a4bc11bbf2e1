package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/pos_backend/models"
	"github.com/mmdatafocus/pos_backend/utils"
)

// settingsRequest accepts taxRate and autoCopies as JSON numbers or strings.
type settingsRequest struct {
	CompanyName    *string `json:"companyName"`
	Rut            *string `json:"rut"`
	Address        *string `json:"address"`
	Phone          *string `json:"phone"`
	Email          *string `json:"email"`
	ReceiptMessage *string `json:"receiptMessage"`
	Currency       *string `json:"currency"`
	DateTimeFormat *string `json:"dateTimeFormat"`
	TaxName        *string `json:"taxName"`
	TaxRate        any     `json:"taxRate"`
	DocumentType   *string `json:"documentType"`
	AutoCopies     any     `json:"autoCopies"`
}

// numberString turns a decoded JSON scalar into the raw string the model validates.
func numberString(key string, value any) (*string, error) {
	var s string
	switch v := value.(type) {
	case nil:
		return nil, nil
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		s = v
	default:
		return nil, utils.NewValidationError("invalid %s", key)
	}
	return &s, nil
}

func (req *settingsRequest) input() (*models.SettingsInput, error) {
	taxRate, err := numberString("taxRate", req.TaxRate)
	if err != nil {
		return nil, err
	}
	autoCopies, err := numberString("autoCopies", req.AutoCopies)
	if err != nil {
		return nil, err
	}
	return &models.SettingsInput{
		CompanyName:    req.CompanyName,
		Rut:            req.Rut,
		Address:        req.Address,
		Phone:          req.Phone,
		Email:          req.Email,
		ReceiptMessage: req.ReceiptMessage,
		Currency:       req.Currency,
		DateTimeFormat: req.DateTimeFormat,
		TaxName:        req.TaxName,
		TaxRate:        taxRate,
		DocumentType:   req.DocumentType,
		AutoCopies:     autoCopies,
	}, nil
}

func settingsFormInput(c *gin.Context) *models.SettingsInput {
	return &models.SettingsInput{
		CompanyName:    formString(c, "companyName"),
		Rut:            formString(c, "rut"),
		Address:        formString(c, "address"),
		Phone:          formString(c, "phone"),
		Email:          formString(c, "email"),
		ReceiptMessage: formString(c, "receiptMessage"),
		Currency:       formString(c, "currency"),
		DateTimeFormat: formString(c, "dateTimeFormat"),
		TaxName:        formString(c, "taxName"),
		TaxRate:        formString(c, "taxRate"),
		DocumentType:   formString(c, "documentType"),
		AutoCopies:     formString(c, "autoCopies"),
	}
}

func getSettingsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		settings, err := models.GetSettings(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, settings)
	}
}

func updateSettingsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input *models.SettingsInput
		var logo *models.FileUpload
		if isMultipart(c) {
			input = settingsFormInput(c)
			var err error
			if logo, err = readImageUpload(c, "logo"); err != nil {
				respondError(c, err)
				return
			}
		} else {
			var req settingsRequest
			if !bindJSON(c, &req) {
				return
			}
			var err error
			if input, err = req.input(); err != nil {
				respondError(c, err)
				return
			}
		}

		settings, err := models.UpdateSettings(c.Request.Context(), input, logo)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, settings)
	}
}

func settingsLogoHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		data, contentType, err := models.GetSettingsLogo(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.Header("Cache-Control", "no-cache")
		c.Data(http.StatusOK, contentType, data)
	}
}
