// pkg/converter/values.go
package converter

import (
	"fmt"
	"strings"

	"github.com/David-Botos/trial-ingress/pkg/model"
)

// ConvertRow converts a record's values for insertion under the table metadata
func (c *TypeConverter) ConvertRow(metadata *model.TableMetadata, values []interface{}) ([]interface{}, error) {
	if len(values) != len(metadata.Columns) {
		return nil, fmt.Errorf("row has %d values, table %s has %d columns",
			len(values), metadata.Table, len(metadata.Columns))
	}

	converted := make([]interface{}, len(values))
	for i, col := range metadata.Columns {
		v, err := c.ConvertValue(values[i], col)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", col.Name, err)
		}
		converted[i] = v
	}
	return converted, nil
}

// ConvertValue converts one value to a driver compatible value for the column
func (c *TypeConverter) ConvertValue(value interface{}, col model.Column) (interface{}, error) {
	if value == nil {
		return nil, nil
	}

	switch strings.ToUpper(col.DataType) {
	case model.TypeBoolean:
		return c.convertToBoolean(value)
	case model.TypeJSON:
		return c.convertToJSON(value)
	default:
		s, err := c.convertToText(value)
		if err != nil {
			return nil, err
		}
		if s == "" && c.config.EmptyStringAsNull {
			return nil, nil
		}
		return s, nil
	}
}

// convertToText converts a value to text/string
func (c *TypeConverter) convertToText(value interface{}) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case []string:
		return model.JoinComponents(v), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, bool:
		return fmt.Sprintf("%v", v), nil
	default:
		return "", fmt.Errorf("cannot convert %T to text", value)
	}
}

// convertToBoolean converts a value to boolean
func (c *TypeConverter) convertToBoolean(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case int, int8, int16, int32, int64:
		return fmt.Sprint(v) != "0", nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "t", "1":
			return true, nil
		case "false", "f", "0", "":
			return false, nil
		default:
			return nil, fmt.Errorf("cannot convert string '%s' to boolean", v)
		}
	default:
		return nil, fmt.Errorf("cannot convert %T to boolean", value)
	}
}
