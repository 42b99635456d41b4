package hook

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/mitchellh/mapstructure"
)

var (
	signingMethodType = reflect.TypeOf((*jwt.SigningMethod)(nil)).Elem()
)

// SigningMethod decodes an HMAC algorithm name such as HS256.
func SigningMethod() mapstructure.DecodeHookFuncType {
	return func(in reflect.Type, out reflect.Type, val interface{}) (interface{}, error) {
		if in.Kind() == reflect.String && out == signingMethodType {
			name := strings.ToUpper(val.(string))
			m, ok := jwt.GetSigningMethod(name).(*jwt.SigningMethodHMAC)
			if !ok {
				return nil, fmt.Errorf("unsupported signing method %q", val)
			}
			return m, nil
		}
		return val, nil
	}
}
