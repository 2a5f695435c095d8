package validate

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	cErr "salesdesk/internal/pkg/error"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// 輸出格式化的 validator error（欄位名/型別/規則列表）
func ValidationErrorResponse(obj interface{}, err error) string {
	if errs, ok := err.(validator.ValidationErrors); ok {
		var b strings.Builder
		b.WriteString("Validation error:\n")
		for _, fe := range errs {
			field := fieldName(obj, fe.StructField())
			ftype := fieldType(obj, fe.StructField())
			format := getFieldFormat(obj, fe.StructField())
			b.WriteString(fmt.Sprintf(" - Field \"%s\" (type: %s) failed the '%s' validation (rules: %v)\n",
				field, ftype, fe.Tag(), format))
		}
		return b.String()
	}
	return fmt.Sprintf("Validation error: %s", err.Error())
}

func structType(obj interface{}) reflect.Type {
	t := reflect.TypeOf(obj)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

// fieldName 依序取 json、form tag
func fieldName(obj interface{}, structField string) string {
	if f, ok := structType(obj).FieldByName(structField); ok {
		for _, key := range []string{"json", "form"} {
			tag := f.Tag.Get(key)
			if tag != "" && tag != "-" {
				return strings.Split(tag, ",")[0]
			}
		}
	}
	return structField
}

func fieldType(obj interface{}, structField string) string {
	if f, ok := structType(obj).FieldByName(structField); ok {
		return f.Type.String()
	}
	return ""
}

func getFieldFormat(obj interface{}, structField string) []string {
	if f, ok := structType(obj).FieldByName(structField); ok {
		if tag := f.Tag.Get("binding"); tag != "" {
			return strings.Split(tag, ",")
		}
	}
	return nil
}

// BindAndValidate 解析 JSON body；wrap 可替換預設的 ValidateErr
func BindAndValidate(c *gin.Context, req any, wrap ...func(string) *cErr.Error) (cause error, responseErr error) {
	if err := c.ShouldBindJSON(req); err != nil {
		return err, wrapError(ValidationErrorResponse(req, err), wrap)
	}
	return nil, nil
}

func BindQuery(c *gin.Context, req any) (cause error, responseErr error) {
	if err := c.ShouldBindQuery(req); err != nil {
		return err, cErr.BadRequestParams(ValidationErrorResponse(req, err))
	}
	return nil, nil
}

func wrapError(desc string, wrap []func(string) *cErr.Error) *cErr.Error {
	if len(wrap) > 0 && wrap[0] != nil {
		return wrap[0](desc)
	}
	return cErr.ValidateErr(desc)
}

func GetInt64Query(c *gin.Context, key string, defaultVal int64) (int64, error) {
	if v := c.Query(key); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, err
		}
		return n, nil
	}
	return defaultVal, nil
}

func GetBoolQuery(c *gin.Context, key string) (bool, error) {
	if v := c.Query(key); v != "" {
		return strconv.ParseBool(v)
	}
	return false, nil
}
