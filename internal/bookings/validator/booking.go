package validator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"pitstop/pkg/logger"
	"pitstop/pkg/model"
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

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	v := validator.New()

	log.Info("Booking validator initialized successfully")

	return &BookingValidator{
		validate: v,
		logger:   log,
	}
}

// Validate checks a fully populated booking. All failing fields are reported
// together, not just the first one. Zero dates and ordering are covered by the
// required and gtfield struct tags.
func (v *BookingValidator) Validate(booking *model.Booking) error {
	var validationErrors ValidationErrors

	if err := v.validate.Struct(booking); err != nil {
		var structErrs validator.ValidationErrors
		if errors.As(err, &structErrs) {
			validationErrors = append(validationErrors, v.translateValidationErrors(structErrs)...)
		} else {
			return err
		}
	}

	if len(validationErrors) > 0 {
		return validationErrors
	}
	return nil
}

// ValidateCreate applies the rules for new bookings: everything Validate
// checks, plus the start date may not already be in the past.
func (v *BookingValidator) ValidateCreate(booking *model.Booking) error {
	var validationErrors ValidationErrors

	if err := v.Validate(booking); err != nil {
		var existing ValidationErrors
		if errors.As(err, &existing) {
			validationErrors = append(validationErrors, existing...)
		} else {
			return err
		}
	}

	if !booking.StartDate.IsZero() && booking.StartDate.Before(time.Now()) {
		validationErrors = append(validationErrors, ValidationError{
			Field:   "StartDate",
			Message: "start_date cannot be in the past",
		})
	}

	if len(validationErrors) > 0 {
		return validationErrors
	}
	return nil
}

func (v *BookingValidator) ValidateUpdate(update *model.BookingUpdate) error {
	var validationErrors ValidationErrors

	if err := v.validate.Struct(update); err != nil {
		var structErrs validator.ValidationErrors
		if errors.As(err, &structErrs) {
			validationErrors = append(validationErrors, v.translateValidationErrors(structErrs)...)
		} else {
			return err
		}
	}

	if update.StartDate != nil && update.StartDate.IsZero() {
		validationErrors = append(validationErrors, ValidationError{
			Field:   "StartDate",
			Message: "start_date must be a valid instant",
		})
	}
	if update.EndDate != nil && update.EndDate.IsZero() {
		validationErrors = append(validationErrors, ValidationError{
			Field:   "EndDate",
			Message: "end_date must be a valid instant",
		})
	}
	if update.StartDate != nil && update.EndDate != nil &&
		!update.StartDate.IsZero() && !update.EndDate.IsZero() &&
		!update.EndDate.After(*update.StartDate) {
		validationErrors = append(validationErrors, ValidationError{
			Field:   "EndDate",
			Message: "end_date must be after start_date",
		})
	}

	if len(validationErrors) > 0 {
		return validationErrors
	}
	return nil
}

func (v *BookingValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid MongoDB ObjectID", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "gtfield":
			message = fmt.Sprintf("%s must be after %s", err.Field(), err.Param())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
