package telemetry

import (
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RegisterDBTracing installs the otelgorm plugin so every GORM operation
// emits a child span of the request (or job) span. Query variables are kept
// out of the spans unless logFullSQL is set; parameters can carry SKUs and
// supplier data.
func RegisterDBTracing(db *gorm.DB, dbName string, logFullSQL bool, logger *zap.Logger) error {
	opts := []otelgorm.Option{
		otelgorm.WithDBName(dbName),
	}
	if !logFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	logger.Info("Database tracing enabled",
		zap.String("db_name", dbName),
		zap.Bool("log_full_sql", logFullSQL),
	)
	return nil
}
