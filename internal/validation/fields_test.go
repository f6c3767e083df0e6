package validation_test

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vehiscan/vehiscan/internal/validation"
)

func TestValidateField(t *testing.T) {
	tests := []struct {
		kind  string
		value string
		want  bool
	}{
		{validation.FieldLicensePlate, "ABC 1234", true},
		{validation.FieldLicensePlate, "NBC-123", true},
		{validation.FieldLicensePlate, "abc123", false}, // lowercase not allowed
		{validation.FieldLicensePlate, "", false},
		{validation.FieldLicensePlate, "ABCDEFGH123456789", false}, // too long

		{validation.FieldOwnerName, "Juan D. Cruz", true},
		{validation.FieldOwnerName, "J", false},
		{validation.FieldOwnerName, "Jo#n", false},

		{validation.FieldMake, "Toyota", true},
		{validation.FieldMake, "BMW 3", true},
		{validation.FieldMake, "", false},

		{validation.FieldModel, "Corolla-Altis", true},
		{validation.FieldModel, "Vios!", false},

		{validation.FieldBodyType, "Sedan", true},
		{validation.FieldBodyType, "4x4", false},

		{validation.FieldChassisNumber, "AB12CD34", true},
		{validation.FieldChassisNumber, "AB12", false}, // too short
		{validation.FieldChassisNumber, "ab12cd34", false},

		{validation.FieldEngineNumber, "EN123", true},
		{validation.FieldEngineNumber, "EN12", false},

		{validation.FieldColor, "Midnight Blue", true},
		{validation.FieldColor, "B", false},
		{validation.FieldFuel, "Diesel", true},

		{validation.FieldWeight, "1500", true},
		{validation.FieldWeight, "1500.55", true},
		{validation.FieldWeight, "1500.555", false},
		{validation.FieldWeight, "1234567", false},
		{validation.FieldWeight, "-10", false},
		{validation.FieldDisplacement, "1998.5", true},

		{validation.FieldSeries, "Series 3", true},
		{validation.FieldSeries, "Series#3", false},

		{validation.FieldDate, "2024-03-15", true},
		{validation.FieldDate, "2024-13-01", false}, // no month 13
		{validation.FieldDate, "15-03-2024", false},
		{validation.FieldDate, "2024-3-15", false},

		{validation.FieldEmail, "user@example.com", true},
		{validation.FieldEmail, "user@example", false},
		{validation.FieldEmail, "user example@x.com", false},

		{validation.FieldPhone, "+63 917 123 4567", true},
		{validation.FieldPhone, "+63 9171 1234 45678", false}, // over 15 chars after +
		{validation.FieldPhone, "09171234567", true},
		{validation.FieldPhone, "+639171234567", true},
		{validation.FieldPhone, "12345", false},

		{"unknownKind", "anything", false},
	}

	for _, tt := range tests {
		t.Run(tt.kind+"/"+tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, validation.ValidateField(tt.kind, tt.value))
		})
	}
}

func TestValidateFieldYearModel(t *testing.T) {
	assert.False(t, validation.ValidateField(validation.FieldYearModel, "1899"))
	assert.True(t, validation.ValidateField(validation.FieldYearModel, "1900"))
	assert.True(t, validation.ValidateField(validation.FieldYearModel, "2024"))
	assert.False(t, validation.ValidateField(validation.FieldYearModel, "24"))
	assert.False(t, validation.ValidateField(validation.FieldYearModel, "20244"))

	// Up to two model years ahead are accepted; beyond that is rejected.
	nextPlusTwo := strconv.Itoa(time.Now().Year() + 2)
	nextPlusThree := strconv.Itoa(time.Now().Year() + 3)
	assert.True(t, validation.ValidateField(validation.FieldYearModel, nextPlusTwo))
	assert.False(t, validation.ValidateField(validation.FieldYearModel, nextPlusThree))
}
