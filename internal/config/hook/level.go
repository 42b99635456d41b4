package hook

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap/zapcore"
)

var (
	levelType = reflect.TypeOf(zapcore.InfoLevel)
)

func Level() mapstructure.DecodeHookFuncType {
	return func(in reflect.Type, out reflect.Type, val interface{}) (interface{}, error) {
		if in.Kind() == reflect.String && out == levelType {
			l := zapcore.InfoLevel
			if err := l.UnmarshalText([]byte(strings.ToLower(val.(string)))); err != nil {
				return nil, fmt.Errorf("invalid logging level: %w", err)
			}
			return l, nil
		}
		return val, nil
	}
}
