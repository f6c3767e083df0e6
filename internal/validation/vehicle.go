package validation

// VehicleForm is the flat, string-typed registration form as submitted.
// It is sanitized and validated here before any persistence happens.
type VehicleForm struct {
	OwnerName          string
	LicensePlate       string
	Make               string
	Model              string
	YearModel          string
	BodyType           string
	ChassisNumber      string
	EngineNumber       string
	Color              string
	Fuel               string
	GrossWeight        string
	NetWeight          string
	NetCapacity        string
	PistonDisplacement string
	Series             string
	LastRenewal        string
}

// Result aggregates the outcome of a full-form validation pass.
type Result struct {
	Valid  bool
	Errors []string
}

// ValidateVehicle runs every field rule and collects one human-readable
// message per failing field. It never short-circuits: the user sees all
// problems at once.
func ValidateVehicle(form VehicleForm) Result {
	var errs []string

	if !ValidateField(FieldOwnerName, form.OwnerName) {
		errs = append(errs, "Owner name must be 2-100 characters with letters, spaces, and periods only")
	}
	if !ValidateField(FieldLicensePlate, form.LicensePlate) {
		errs = append(errs, "License plate must be 1-15 characters with letters, numbers, spaces, and hyphens only")
	}
	if !ValidateField(FieldMake, form.Make) {
		errs = append(errs, "Make must be 1-50 characters with letters, numbers, and spaces only")
	}
	if form.Model != "" && !ValidateField(FieldModel, form.Model) {
		errs = append(errs, "Model must be 1-50 characters with letters, numbers, spaces, and hyphens only")
	}
	if !ValidateField(FieldYearModel, form.YearModel) {
		errs = append(errs, "Year must be a valid 4-digit year between 1900 and current year + 2")
	}
	if !ValidateField(FieldBodyType, form.BodyType) {
		errs = append(errs, "Body type must be 1-30 characters with letters and spaces only")
	}
	if !ValidateField(FieldChassisNumber, form.ChassisNumber) {
		errs = append(errs, "Chassis number must be 8-25 alphanumeric characters")
	}
	if !ValidateField(FieldEngineNumber, form.EngineNumber) {
		errs = append(errs, "Engine number must be 5-25 alphanumeric characters")
	}
	if !ValidateField(FieldColor, form.Color) {
		errs = append(errs, "Color must be 2-20 characters with letters and spaces only")
	}
	if !ValidateField(FieldFuel, form.Fuel) {
		errs = append(errs, "Fuel type must be 2-20 characters with letters and spaces only")
	}
	if !ValidateField(FieldWeight, form.GrossWeight) {
		errs = append(errs, "Gross weight must be a valid number")
	}
	if !ValidateField(FieldWeight, form.NetWeight) {
		errs = append(errs, "Net weight must be a valid number")
	}
	if !ValidateField(FieldWeight, form.NetCapacity) {
		errs = append(errs, "Net capacity must be a valid number")
	}
	if !ValidateField(FieldDisplacement, form.PistonDisplacement) {
		errs = append(errs, "Piston displacement must be a valid number")
	}
	if !ValidateField(FieldSeries, form.Series) {
		errs = append(errs, "Series must be 1-30 characters with letters, numbers, and spaces only")
	}
	if !ValidateField(FieldDate, form.LastRenewal) {
		errs = append(errs, "Last renewal must be in YYYY-MM-DD format")
	}

	return Result{Valid: len(errs) == 0, Errors: errs}
}

// SanitizeVehicle applies Sanitize to every field of the form.
func SanitizeVehicle(form VehicleForm) VehicleForm {
	return VehicleForm{
		OwnerName:          Sanitize(form.OwnerName),
		LicensePlate:       Sanitize(form.LicensePlate),
		Make:               Sanitize(form.Make),
		Model:              Sanitize(form.Model),
		YearModel:          Sanitize(form.YearModel),
		BodyType:           Sanitize(form.BodyType),
		ChassisNumber:      Sanitize(form.ChassisNumber),
		EngineNumber:       Sanitize(form.EngineNumber),
		Color:              Sanitize(form.Color),
		Fuel:               Sanitize(form.Fuel),
		GrossWeight:        Sanitize(form.GrossWeight),
		NetWeight:          Sanitize(form.NetWeight),
		NetCapacity:        Sanitize(form.NetCapacity),
		PistonDisplacement: Sanitize(form.PistonDisplacement),
		Series:             Sanitize(form.Series),
		LastRenewal:        Sanitize(form.LastRenewal),
	}
}
