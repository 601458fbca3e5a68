package utils

import (
	"reflect"
	"strings"

	"github.com/ENNAJI/ExamCADProtoENSAM/internal/models"
	"github.com/go-playground/validator/v10"
)

// Validator wraps go-playground struct validation with the portal's custom
// rules registered.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	validate := validator.New()
	RegisterCustomValidators(validate)
	return &Validator{validate: validate}
}

// Validate validates struct tags on s.
func (v *Validator) Validate(s interface{}) error {
	return v.validate.Struct(s)
}

// Custom validation functions

func ValidateQuestionType(fl validator.FieldLevel) bool {
	validTypes := []models.QuestionType{
		models.SingleChoice,
		models.Boolean,
		models.FreeText,
	}

	value := fl.Field().String()
	for _, validType := range validTypes {
		if string(validType) == value {
			return true
		}
	}
	return false
}

func ValidateStudentRole(fl validator.FieldLevel) bool {
	validRoles := []models.StudentRole{
		models.RoleStudent,
		models.RoleAdmin,
	}

	value := fl.Field().String()
	for _, validRole := range validRoles {
		if string(validRole) == value {
			return true
		}
	}
	return false
}

// RegisterCustomValidators registers all custom validators
func RegisterCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("question_type", ValidateQuestionType)
	validate.RegisterValidation("student_role", ValidateStudentRole)

	// Register custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}
