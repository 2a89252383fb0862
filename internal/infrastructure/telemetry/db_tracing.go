package telemetry

import (
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/gorm"
)

// RegisterGormTracing adds a span per statement to db. Query variables are
// left out of the recorded SQL unless withVariables is set.
func RegisterGormTracing(db *gorm.DB, dbSystem string, withVariables bool) error {
	opts := []otelgorm.Option{otelgorm.WithDBName(dbSystem)}
	if !withVariables {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	return db.Use(otelgorm.NewPlugin(opts...))
}
