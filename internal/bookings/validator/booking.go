package validator

import (
	"courtbook/internal/calendar"
	"courtbook/pkg/logger"
	"courtbook/pkg/model"
	"errors"
	"fmt"
	"strings"
	"time"

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

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	v := validator.New()

	if err := v.RegisterValidation("clock", validateClock); err != nil {
		log.Fatal("Failed to register 'clock' validator",
			"error", err,
		)
	}
	if err := v.RegisterValidation("isodate", validateISODate); err != nil {
		log.Fatal("Failed to register 'isodate' validator",
			"error", err,
		)
	}

	log.Info("Booking validator initialized successfully")

	return &BookingValidator{
		validate: v,
		logger:   log,
	}
}

func validateClock(fl validator.FieldLevel) bool {
	_, err := calendar.ParseClock(fl.Field().String())
	return err == nil
}

func validateISODate(fl validator.FieldLevel) bool {
	_, err := time.Parse(calendar.DateLayout, fl.Field().String())
	return err == nil
}

func (v *BookingValidator) ValidateCreate(req *model.CreateBookingRequest) error {
	if err := v.structErrors(req); err != nil {
		return err
	}
	return validateSlots(req.Slots)
}

func (v *BookingValidator) ValidateUpdate(req *model.UpdateBookingRequest) error {
	if err := v.structErrors(req); err != nil {
		return err
	}
	return validateSlots(req.Slots)
}

func (v *BookingValidator) ValidateAvailability(req *model.AvailabilityRequest) error {
	if err := v.structErrors(req); err != nil {
		return err
	}
	return validateSlots(req.Slots)
}

func (v *BookingValidator) ValidateQuote(req *model.QuoteRequest) error {
	if err := v.structErrors(req); err != nil {
		return err
	}
	return validateSlots(req.Slots)
}

func (v *BookingValidator) ValidateCancel(req *model.CancelRequest) error {
	return v.structErrors(req)
}

func (v *BookingValidator) ValidateSettle(req *model.SettleRequest) error {
	return v.structErrors(req)
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

func validateSlots(slots []model.SlotInput) error {
	var errs ValidationErrors
	for i, s := range slots {
		if _, err := calendar.ParseRange(s.Start, s.End); err != nil {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("Slots[%d]", i),
				Message: err.Error(),
			})
		}
	}
	if len(errs) > 0 {
		return errs
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
		case "clock":
			message = fmt.Sprintf("%s must be a time of day in HH:MM format", err.Field())
		case "isodate":
			message = fmt.Sprintf("%s must be a date in YYYY-MM-DD format", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
