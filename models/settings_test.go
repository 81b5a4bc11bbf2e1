package models

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mmdatafocus/pos_backend/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func str(s string) *string { return &s }

func TestSettingsApply(t *testing.T) {
	settings := DefaultSettings()
	input := SettingsInput{
		CompanyName: str("  Bar El Puerto "),
		Email:       str("caja@elpuerto.cl"),
		Currency:    str("clp"),
		TaxRate:     str("0.19"),
		AutoCopies:  str("2"),
		TaxName:     str(""),
	}
	require.NoError(t, input.apply(settings))

	assert.Equal(t, "Bar El Puerto", *settings.CompanyName)
	assert.Equal(t, "CLP", settings.Currency)
	assert.True(t, settings.TaxRate.Equal(dec("0.19")))
	assert.Equal(t, 2, settings.AutoCopies)
	assert.Equal(t, "IVA", settings.TaxName)
	assert.Nil(t, settings.Rut)
}

func TestSettingsApplyRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		input SettingsInput
		want  string
	}{
		{"email", SettingsInput{Email: str("not-an-email")}, "invalid email"},
		{"phone", SettingsInput{Phone: str("12")}, "invalid phone"},
		{"negative tax", SettingsInput{TaxRate: str("-0.1")}, "invalid taxRate"},
		{"tax not a number", SettingsInput{TaxRate: str("abc")}, "invalid taxRate"},
		{"copies", SettingsInput{AutoCopies: str("1.5")}, "invalid autoCopies"},
		{"negative copies", SettingsInput{AutoCopies: str("-1")}, "invalid autoCopies"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.input.apply(DefaultSettings())
			require.Error(t, err)
			assert.True(t, utils.IsValidationError(err))
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestSettingsApplyClearsOptionalFields(t *testing.T) {
	settings := DefaultSettings()
	settings.Email = str("old@pos.local")
	require.NoError(t, (&SettingsInput{Email: str(" ")}).apply(settings))
	assert.Equal(t, "", *settings.Email)
}

func TestGetSettingsReturnsDefaultsWhenMissing(t *testing.T) {
	mock := newMockDB(t)
	mock.ExpectQuery("SELECT \\* FROM .* WHERE id = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	settings, err := GetSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "default", settings.ID)
	assert.Equal(t, "CLP", settings.Currency)
	assert.Equal(t, "DD/MM/YYYY HH:mm", settings.DateTimeFormat)
	assert.Equal(t, 1, settings.AutoCopies)
	assert.False(t, settings.HasLogo)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSettingsLogoNotFound(t *testing.T) {
	mock := newMockDB(t)
	mock.ExpectQuery("SELECT \\* FROM .* WHERE id = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id", "currency"}).AddRow("default", "CLP"))

	_, _, err := GetSettingsLogo(context.Background())
	assert.ErrorIs(t, err, utils.ErrorRecordNotFound)
}

func TestSettingsApplyTreatsEmptyNumbersAsZero(t *testing.T) {
	settings := DefaultSettings()
	settings.TaxRate = dec("0.19")
	settings.AutoCopies = 2
	require.NoError(t, (&SettingsInput{TaxRate: str(" "), AutoCopies: str("")}).apply(settings))
	assert.True(t, settings.TaxRate.IsZero())
	assert.Equal(t, 0, settings.AutoCopies)
}

func TestUpdateSettingsBusyWhileLocked(t *testing.T) {
	mr := newMockRedis(t)
	require.NoError(t, mr.Set(settingsLockKey, "held-elsewhere"))
	mr.SetTTL(settingsLockKey, time.Minute)

	_, err := UpdateSettings(context.Background(), &SettingsInput{CompanyName: str("Bar")}, nil)
	assert.ErrorIs(t, err, utils.ErrBusy)
}
