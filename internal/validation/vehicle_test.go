package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vehiscan/vehiscan/internal/validation"
)

func validForm() validation.VehicleForm {
	return validation.VehicleForm{
		OwnerName:          "Juan D. Cruz",
		LicensePlate:       "ABC 1234",
		Make:               "Toyota",
		Model:              "Corolla-Altis",
		YearModel:          "2022",
		BodyType:           "Sedan",
		ChassisNumber:      "AB12CD34EF",
		EngineNumber:       "EN12345",
		Color:              "Silver",
		Fuel:               "Gasoline",
		GrossWeight:        "1500",
		NetWeight:          "1200.5",
		NetCapacity:        "500",
		PistonDisplacement: "1598",
		Series:             "Altis V",
		LastRenewal:        "2024-03-15",
	}
}

func TestValidateVehicleAccepts(t *testing.T) {
	res := validation.ValidateVehicle(validForm())
	assert.True(t, res.Valid)
	assert.Empty(t, res.Errors)
}

func TestValidateVehicleAccumulatesErrors(t *testing.T) {
	form := validForm()
	form.OwnerName = "X"
	form.ChassisNumber = "AB12"
	form.LastRenewal = "15/03/2024"

	res := validation.ValidateVehicle(form)
	require.False(t, res.Valid)
	assert.Len(t, res.Errors, 3)
	assert.Contains(t, res.Errors, "Chassis number must be 8-25 alphanumeric characters")
	assert.Contains(t, res.Errors, "Last renewal must be in YYYY-MM-DD format")
}

func TestValidateVehicleModelOptional(t *testing.T) {
	form := validForm()
	form.Model = ""
	assert.True(t, validation.ValidateVehicle(form).Valid)
}

func TestSanitizeVehicleTouchesEveryField(t *testing.T) {
	form := validForm()
	form.OwnerName = "<b>Juan</b>"
	form.Color = "Red<script>x</script>"
	form.Series = "Altis  V"

	got := validation.SanitizeVehicle(form)
	assert.Equal(t, "bJuan/b", got.OwnerName)
	assert.Equal(t, "Redx/", got.Color)
	assert.Equal(t, "Altis V", got.Series)
	// Untouched fields round-trip unchanged.
	assert.Equal(t, form.LicensePlate, got.LicensePlate)
	assert.Equal(t, form.LastRenewal, got.LastRenewal)
}
