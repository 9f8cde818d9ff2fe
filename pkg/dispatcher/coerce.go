package dispatcher

import (
	"fmt"

	"github.com/spf13/cast"
	"github.com/toolgate/toolgate/pkg/tool"
)

// coerceArguments converts supplied argument values to each declared
// parameter's type. Values for undeclared keys pass through untouched;
// extraction and callers may legitimately supply more than one tool needs.
func coerceArguments(def tool.Definition, args map[string]interface{}) (map[string]interface{}, error) {
	if args == nil {
		return map[string]interface{}{}, nil
	}

	declared := make(map[string]string, len(def.Parameters))
	for _, p := range def.Parameters {
		declared[p.Name] = p.Type
	}

	coerced := make(map[string]interface{}, len(args))
	for key, value := range args {
		paramType, ok := declared[key]
		if !ok {
			coerced[key] = value
			continue
		}

		converted, err := coerceValue(paramType, value)
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", key, err)
		}
		coerced[key] = converted
	}

	return coerced, nil
}

func coerceValue(paramType string, value interface{}) (interface{}, error) {
	switch paramType {
	case "string":
		v, err := cast.ToStringE(value)
		if err != nil {
			return nil, fmt.Errorf("cannot coerce %v to string", value)
		}
		return v, nil
	case "integer":
		v, err := cast.ToIntE(value)
		if err != nil {
			return nil, fmt.Errorf("cannot coerce %v to integer", value)
		}
		return v, nil
	case "number":
		v, err := cast.ToFloat64E(value)
		if err != nil {
			return nil, fmt.Errorf("cannot coerce %v to number", value)
		}
		return v, nil
	case "boolean":
		v, err := cast.ToBoolE(value)
		if err != nil {
			return nil, fmt.Errorf("cannot coerce %v to boolean", value)
		}
		return v, nil
	default:
		// object, array and anything untyped pass through as-is.
		return value, nil
	}
}
