package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	apperrors "tourdesk/pkg/errors"
	"tourdesk/pkg/logger"
	"tourdesk/pkg/model"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

// ToAppError renders a validation failure as a VALIDATION_ERROR response with
// the per-field problems under details.errors.
func ToAppError(message string, err error) *apperrors.AppError {
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		verrs = ValidationErrors{{Field: "", Message: err.Error()}}
	}
	return apperrors.Validation(message, map[string]any{"errors": verrs})
}

// Invalid reports a single rule violation that the struct tags cannot express.
func Invalid(field, message string) *apperrors.AppError {
	return ToAppError("Invalid booking input", ValidationErrors{{Field: field, Message: message}})
}

// BookingValidator checks drafts, patches and directory records. Field names in
// messages use the JSON names callers send.
type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})

	if err := v.RegisterValidation("clock", validateClock); err != nil {
		log.Fatal("Failed to register 'clock' validator", "error", err)
	}
	if err := v.RegisterValidation("calendar_date", validateCalendarDate); err != nil {
		log.Fatal("Failed to register 'calendar_date' validator", "error", err)
	}

	return &BookingValidator{
		validate: v,
		logger:   log,
	}
}

func validateClock(fl validator.FieldLevel) bool {
	_, err := model.ParseClock(fl.Field().String())
	return err == nil
}

func validateCalendarDate(fl validator.FieldLevel) bool {
	_, err := model.ParseDate(fl.Field().String())
	return err == nil
}

func (v *BookingValidator) ValidateDraft(draft *model.BookingDraft) error {
	if err := v.structErrors(draft); err != nil {
		return err
	}
	return windowErrors("window", draft.Window)
}

func (v *BookingValidator) ValidatePatch(patch *model.BookingPatch) error {
	if err := v.structErrors(patch); err != nil {
		return err
	}
	if patch.Window != nil {
		return windowErrors("window", *patch.Window)
	}
	return nil
}

func (v *BookingValidator) ValidateResource(resource *model.Resource) error {
	return v.structErrors(resource)
}

func (v *BookingValidator) ValidateCrewMember(member *model.CrewMember) error {
	return v.structErrors(member)
}

func (v *BookingValidator) ValidateMaintenance(req *model.MaintenanceRequest) error {
	if err := v.structErrors(req); err != nil {
		return err
	}
	return windowErrors("window", req.Window)
}

// ValidateWindow checks a window that did not come through a tagged struct.
func (v *BookingValidator) ValidateWindow(window model.TimeWindow) error {
	if err := v.structErrors(&window); err != nil {
		return err
	}
	return windowErrors("window", window)
}

func (v *BookingValidator) structErrors(s any) error {
	if err := v.validate.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func windowErrors(field string, w model.TimeWindow) error {
	if err := w.Validate(); err != nil {
		return ValidationErrors{
			ValidationError{
				Field:   field,
				Message: err.Error(),
			},
		}
	}
	return nil
}

func (v *BookingValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		field := fieldPath(err.Namespace())
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", field)
		case "min":
			message = fmt.Sprintf("%s must be at least %s", field, err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", field, err.Param())
		case "gte":
			message = fmt.Sprintf("%s must be greater than or equal to %s", field, err.Param())
		case "lte":
			message = fmt.Sprintf("%s must be less than or equal to %s", field, err.Param())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", field, err.Param())
		case "unique":
			message = fmt.Sprintf("%s must not contain duplicates", field)
		case "clock":
			message = fmt.Sprintf("%s must be a time of day in HH:MM format (00:00 to 24:00)", field)
		case "calendar_date":
			message = fmt.Sprintf("%s must be a date in YYYY-MM-DD format", field)
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   field,
			Message: message,
		})
	}

	return validationErrors
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}
