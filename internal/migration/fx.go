package migration

import (
	"strings"

	apikeydomain "github.com/SamiracleWhip/sami-o-api-dashboard-sub000/internal/apikey/domain"
	authdomain "github.com/SamiracleWhip/sami-o-api-dashboard-sub000/internal/auth/domain"
	"github.com/SamiracleWhip/sami-o-api-dashboard-sub000/internal/config"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if strings.EqualFold(cfg.DBType, "postgres") {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return RunMigrations(sqlDB)
		}

		// Versioned migrations are written for postgres; other dialects
		// are for local development and get the schema from the models.
		if err := conn.AutoMigrate(
			&authdomain.User{},
			&authdomain.Session{},
			&apikeydomain.APIKey{},
		); err != nil {
			return err
		}

		demoUser := authdomain.User{
			ID:       apikeydomain.DemoUserID,
			Email:    "demo@sami-o.local",
			Name:     "Demo",
			Provider: "system",
		}
		return conn.Where("id = ?", demoUser.ID).FirstOrCreate(&demoUser).Error
	}),
)
