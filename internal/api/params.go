package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// decodeParams fills v from a named-params object and validates it against
// its validate tags. Missing or null params decode as an empty object.
func decodeParams(params json.RawMessage, v interface{}) error {
	trimmed := bytes.TrimSpace(params)
	if len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) {
		if err := json.Unmarshal(trimmed, v); err != nil {
			return invalidParams("params must be an object", nil)
		}
	}

	structType := reflect.TypeOf(v)
	if structType.Kind() == reflect.Ptr {
		structType = structType.Elem()
	}

	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		name := fe.StructField()
		if field, ok := structType.FieldByName(fe.StructField()); ok {
			if tag := strings.Split(field.Tag.Get("json"), ",")[0]; tag != "" {
				name = tag
			}
		}
		fields[name] = fe.Tag()
	}
	return invalidParams("Invalid params", fields)
}
