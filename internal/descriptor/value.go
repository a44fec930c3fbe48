package descriptor

import (
	"fmt"
	"math"

	"github.com/roach88/mirror/internal/ir"
)

// ValueOf converts decoded YAML or TOML scalars and collections into ir
// values. Floats are rejected: construction args must canonicalize.
func ValueOf(v any) (ir.Value, error) {
	switch val := v.(type) {
	case ir.Value:
		return val, nil
	case nil:
		return ir.Null{}, nil
	case bool:
		return ir.Bool(val), nil
	case string:
		return ir.String(val), nil
	case int:
		return ir.Int(val), nil
	case int64:
		return ir.Int(val), nil
	case uint64:
		if val > math.MaxInt64 {
			return nil, fmt.Errorf("integer %d overflows int64", val)
		}
		return ir.Int(val), nil
	case float64:
		return nil, fmt.Errorf("float construction argument %v: descriptors accept integers only", val)
	case []any:
		arr := make(ir.Array, len(val))
		for i, elem := range val {
			iv, err := ValueOf(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr[i] = iv
		}
		return arr, nil
	case map[string]any:
		obj := make(ir.Object, len(val))
		for k, elem := range val {
			iv, err := ValueOf(elem)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			obj[k] = iv
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported construction argument type %T", v)
	}
}
