// pkg/converter/mapping.go
package converter

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/David-Botos/trial-ingress/pkg/model"
)

// MapLogicalType converts a logical column type to the dialect SQL type
func (c *TypeConverter) MapLogicalType(logicalType string) (string, error) {
	switch strings.ToUpper(logicalType) {
	case model.TypeString, "":
		return c.stringType(), nil
	case model.TypeBoolean:
		return "BOOLEAN", nil
	case model.TypeJSON:
		return c.jsonType(), nil
	default:
		c.logger.Warn("Unknown logical type encountered",
			zap.String("logicalType", logicalType),
			zap.String("dialect", string(c.config.Dialect)))
		return c.stringType(), fmt.Errorf("unknown logical type: %s (mapped to %s as fallback)", logicalType, c.stringType())
	}
}

func (c *TypeConverter) stringType() string {
	switch c.config.Dialect {
	case DialectSnowflake:
		return "VARCHAR"
	default:
		return "TEXT"
	}
}

// JSON columns hold a serialized array; only Postgres gets a native type
func (c *TypeConverter) jsonType() string {
	switch c.config.Dialect {
	case DialectPostgres:
		return "JSONB"
	case DialectSnowflake:
		return "VARCHAR"
	default:
		return "TEXT"
	}
}
