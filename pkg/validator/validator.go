package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

const invalidBody = "Dữ liệu không hợp lệ"

// FormatValidationError turns binding errors into a single Vietnamese message.
func FormatValidationError(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		var messages []string
		for _, fieldError := range validationErrors {
			message := getFieldErrorMessage(fieldError)
			messages = append(messages, message)
		}
		return strings.Join(messages, "; ")
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return invalidBody
	}

	return fmt.Sprintf("%s: %s", invalidBody, err.Error())
}

func getFieldErrorMessage(fe validator.FieldError) string {
	field := getFieldName(fe.Field())

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s không được để trống", field)
	case "email":
		return fmt.Sprintf("%s không hợp lệ", field)
	case "url":
		return fmt.Sprintf("URL %s không hợp lệ", strings.ToLower(field))
	case "min":
		if fe.Type().String() == "string" || fe.Type().String() == "*string" {
			return fmt.Sprintf("%s phải có ít nhất %s ký tự", field, fe.Param())
		}
		return fmt.Sprintf("%s tối thiểu là %s", field, fe.Param())
	case "max":
		if fe.Type().String() == "string" || fe.Type().String() == "*string" {
			return fmt.Sprintf("%s không được vượt quá %s ký tự", field, fe.Param())
		}
		return fmt.Sprintf("%s tối đa là %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s không hợp lệ", field)
	}
}

func getFieldName(field string) string {
	fieldNames := map[string]string{
		"CognitoID": "Cognito ID",
		"Email":     "Email",
		"Name":      "Tên",
		"AvatarURL": "Avatar",
		"Reason":    "Lý do",
		"Status":    "Trạng thái",
		"Page":      "Trang",
		"Limit":     "Giới hạn",
	}

	if name, ok := fieldNames[field]; ok {
		return name
	}
	return field
}
