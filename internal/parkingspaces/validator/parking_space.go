package validator

import (
	"errors"
	"fmt"
	"strings"

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

type ParkingSpaceValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewParkingSpaceValidator(log *logger.Logger) *ParkingSpaceValidator {
	v := validator.New()

	log.Info("Parking space validator initialized successfully")

	return &ParkingSpaceValidator{
		validate: v,
		logger:   log,
	}
}

func (v *ParkingSpaceValidator) Validate(space *model.ParkingSpace) error {
	var validationErrors ValidationErrors

	if err := v.validate.Struct(space); err != nil {
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

func (v *ParkingSpaceValidator) ValidateUpdate(update *model.ParkingSpaceUpdate) error {
	if err := v.validate.Struct(update); err != nil {
		var structErrs validator.ValidationErrors
		if errors.As(err, &structErrs) {
			return v.translateValidationErrors(structErrs)
		}
		return err
	}
	return nil
}

func (v *ParkingSpaceValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
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
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
