package models

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/bsm/redislock"
	"github.com/mmdatafocus/pos_backend/config"
	"github.com/mmdatafocus/pos_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	SettingsId = "default"

	settingsLockKey = "Lock:Settings"
)

type Settings struct {
	ID             string          `gorm:"primaryKey;size:20" json:"id"`
	CompanyName    *string         `gorm:"size:200" json:"companyName"`
	Rut            *string         `gorm:"size:50" json:"rut"`
	Address        *string         `gorm:"size:255" json:"address"`
	Phone          *string         `gorm:"size:50" json:"phone"`
	Email          *string         `gorm:"size:100" json:"email"`
	ReceiptMessage *string         `gorm:"type:text" json:"receiptMessage"`
	Currency       string          `gorm:"size:10;not null;default:CLP" json:"currency"`
	DateTimeFormat string          `gorm:"size:50;not null;default:DD/MM/YYYY HH:mm" json:"dateTimeFormat"`
	TaxName        string          `gorm:"size:50;not null;default:IVA" json:"taxName"`
	TaxRate        decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"taxRate"`
	DocumentType   *string         `gorm:"size:50" json:"documentType"`
	AutoCopies     int             `gorm:"not null;default:1" json:"autoCopies"`
	LogoKey        *string         `gorm:"size:255" json:"-"`
	LogoType       *string         `gorm:"size:100" json:"-"`
	HasLogo        bool            `gorm:"-" json:"hasLogo"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updatedAt"`
}

// SettingsInput is a partial update. TaxRate and AutoCopies arrive as raw
// strings so JSON numbers and multipart fields validate the same way.
type SettingsInput struct {
	CompanyName    *string
	Rut            *string
	Address        *string
	Phone          *string
	Email          *string
	ReceiptMessage *string
	Currency       *string
	DateTimeFormat *string
	TaxName        *string
	TaxRate        *string
	DocumentType   *string
	AutoCopies     *string
}

func DefaultSettings() *Settings {
	return &Settings{
		ID:             SettingsId,
		Currency:       "CLP",
		DateTimeFormat: "DD/MM/YYYY HH:mm",
		TaxName:        "IVA",
		TaxRate:        decimal.Zero,
		AutoCopies:     1,
	}
}

func (s *Settings) AfterFind(tx *gorm.DB) error {
	s.HasLogo = s.LogoKey != nil && *s.LogoKey != "" && s.LogoType != nil && *s.LogoType != ""
	return nil
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

// apply validates input and copies it onto s.
func (input *SettingsInput) apply(s *Settings) error {
	if email := trimPtr(input.Email); email != nil {
		if *email != "" && !utils.IsValidEmail(*email) {
			return utils.NewValidationError("invalid email")
		}
		s.Email = email
	}
	if phone := trimPtr(input.Phone); phone != nil {
		if *phone != "" {
			if err := utils.ValidatePhoneNumber(*phone, config.PhoneRegion()); err != nil {
				return utils.NewValidationError("invalid phone")
			}
		}
		s.Phone = phone
	}
	// an empty form field means zero
	if raw := trimPtr(input.TaxRate); raw != nil {
		if *raw == "" {
			*raw = "0"
		}
		rate, err := utils.ParseDecimal(*raw)
		if err != nil || rate.IsNegative() {
			return utils.NewValidationError("invalid taxRate")
		}
		s.TaxRate = rate
	}
	if raw := trimPtr(input.AutoCopies); raw != nil {
		if *raw == "" {
			*raw = "0"
		}
		copies, err := strconv.Atoi(*raw)
		if err != nil || copies < 0 {
			return utils.NewValidationError("invalid autoCopies")
		}
		s.AutoCopies = copies
	}

	if v := trimPtr(input.CompanyName); v != nil {
		s.CompanyName = v
	}
	if v := trimPtr(input.Rut); v != nil {
		s.Rut = v
	}
	if v := trimPtr(input.Address); v != nil {
		s.Address = v
	}
	if v := trimPtr(input.ReceiptMessage); v != nil {
		s.ReceiptMessage = v
	}
	if v := trimPtr(input.DocumentType); v != nil {
		s.DocumentType = v
	}
	if v := trimPtr(input.Currency); v != nil && *v != "" {
		s.Currency = strings.ToUpper(*v)
	}
	if v := trimPtr(input.DateTimeFormat); v != nil && *v != "" {
		s.DateTimeFormat = *v
	}
	if v := trimPtr(input.TaxName); v != nil && *v != "" {
		s.TaxName = *v
	}
	return nil
}

// GetSettings returns the stored row, or defaults when nothing was saved yet.
func GetSettings(ctx context.Context) (*Settings, error) {
	db := config.GetDB()
	var settings Settings
	err := db.WithContext(ctx).Where("id = ?", SettingsId).Take(&settings).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return DefaultSettings(), nil
		}
		return nil, err
	}
	return &settings, nil
}

func UpdateSettings(ctx context.Context, input *SettingsInput, logo *FileUpload) (*Settings, error) {
	if locker := config.GetRedisLock(); locker != nil {
		lock, err := locker.Obtain(ctx, settingsLockKey, 10*time.Second, &redislock.Options{
			RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 30),
		})
		if errors.Is(err, redislock.ErrNotObtained) {
			return nil, utils.ErrBusy
		}
		if err != nil {
			return nil, err
		}
		defer func() {
			_ = lock.Release(ctx)
		}()
	}

	settings, err := GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	if err := input.apply(settings); err != nil {
		return nil, err
	}

	var oldLogoKey string
	if logo != nil {
		key, contentType, err := storeImage(ctx, "settings", logo)
		if err != nil {
			return nil, err
		}
		if settings.LogoKey != nil {
			oldLogoKey = *settings.LogoKey
		}
		settings.LogoKey = &key
		settings.LogoType = &contentType
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Save(settings).Error; err != nil {
		if logo != nil {
			removeObjects(ctx, *settings.LogoKey, utils.ThumbnailKey(*settings.LogoKey))
		}
		return nil, err
	}
	if oldLogoKey != "" {
		removeObjects(ctx, oldLogoKey, utils.ThumbnailKey(oldLogoKey))
	}
	return GetSettings(ctx)
}

func GetSettingsLogo(ctx context.Context) ([]byte, string, error) {
	settings, err := GetSettings(ctx)
	if err != nil {
		return nil, "", err
	}
	if !settings.HasLogo {
		return nil, "", utils.ErrorRecordNotFound
	}
	return readObject(ctx, *settings.LogoKey)
}
