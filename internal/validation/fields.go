package validation

import (
	"regexp"
	"strconv"
	"time"
)

// Field kinds accepted by ValidateField.
const (
	FieldLicensePlate  = "licensePlate"
	FieldOwnerName     = "ownerName"
	FieldMake          = "make"
	FieldModel         = "model"
	FieldYearModel     = "yearModel"
	FieldBodyType      = "bodyType"
	FieldChassisNumber = "chassisNumber"
	FieldEngineNumber  = "engineNumber"
	FieldColor         = "color"
	FieldFuel          = "fuel"
	FieldWeight        = "weight"
	FieldDisplacement  = "displacement"
	FieldSeries        = "series"
	FieldDate          = "date"
	FieldEmail         = "email"
	FieldPhone         = "phone"
)

var fieldPatterns = map[string]*regexp.Regexp{
	FieldLicensePlate:  regexp.MustCompile(`^[A-Z0-9\s-]{1,15}$`),
	FieldOwnerName:     regexp.MustCompile(`^[a-zA-Z\s.]{2,100}$`),
	FieldMake:          regexp.MustCompile(`^[a-zA-Z0-9\s]{1,50}$`),
	FieldModel:         regexp.MustCompile(`^[a-zA-Z0-9\s-]{1,50}$`),
	FieldBodyType:      regexp.MustCompile(`^[a-zA-Z\s]{1,30}$`),
	FieldChassisNumber: regexp.MustCompile(`^[A-Z0-9]{8,25}$`),
	FieldEngineNumber:  regexp.MustCompile(`^[A-Z0-9]{5,25}$`),
	FieldColor:         regexp.MustCompile(`^[a-zA-Z\s]{2,20}$`),
	FieldFuel:          regexp.MustCompile(`^[a-zA-Z\s]{2,20}$`),
	FieldWeight:        regexp.MustCompile(`^\d{1,6}(\.\d{1,2})?$`),
	FieldDisplacement:  regexp.MustCompile(`^\d{1,6}(\.\d{1,2})?$`),
	FieldSeries:        regexp.MustCompile(`^[a-zA-Z0-9\s]{1,30}$`),
	FieldEmail:         regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`),
	FieldPhone:         regexp.MustCompile(`^\+?[\d\s-]{10,15}$`),
}

var (
	yearPattern = regexp.MustCompile(`^\d{4}$`)
	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// ValidateField checks value against the format rule for kind. Unknown
// kinds fail validation outright.
func ValidateField(kind, value string) bool {
	switch kind {
	case FieldYearModel:
		return validYear(value, time.Now())
	case FieldDate:
		return validDate(value)
	default:
		re, ok := fieldPatterns[kind]
		return ok && re.MatchString(value)
	}
}

// validYear accepts a 4-digit year from 1900 through two years ahead of
// the current year (pre-registered next-year models exist).
func validYear(value string, now time.Time) bool {
	if !yearPattern.MatchString(value) {
		return false
	}
	year, err := strconv.Atoi(value)
	if err != nil {
		return false
	}
	return year >= 1900 && year <= now.Year()+2
}

// validDate requires YYYY-MM-DD shape and a parseable calendar date.
func validDate(value string) bool {
	if !datePattern.MatchString(value) {
		return false
	}
	_, err := time.Parse("2006-01-02", value)
	return err == nil
}
