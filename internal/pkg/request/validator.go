package request

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator 請求結構可提供自訂錯誤訊息，key 為「欄位.規則」
type Validator interface {
	GetMessages() ValidatorMessages
}

type ValidatorMessages map[string]string

var reg = regexp.MustCompile(`\[\d+\]`)

// Message 從請求和錯誤中取第一個欄位錯誤的可讀訊息
func Message(request any, err error) string {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) || len(fieldErrors) == 0 {
		return err.Error()
	}

	fe := fieldErrors[0]
	if v, ok := request.(Validator); ok {
		field := reg.ReplaceAllString(fe.Field(), ".*")
		if message, exist := v.GetMessages()[field+"."+fe.Tag()]; exist {
			return message
		}
	}
	return defaultMessage(fe)
}

func defaultMessage(fe validator.FieldError) string {
	field := fe.Field()
	if field != "" {
		field = strings.ToLower(field[:1]) + field[1:]
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "alphanum":
		return field + " may only contain letters and digits"
	default:
		return fmt.Sprintf("%s failed the '%s' validation", field, fe.Tag())
	}
}
