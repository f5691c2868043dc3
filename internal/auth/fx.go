package auth

import (
	"github.com/SamiracleWhip/sami-o-api-dashboard-sub000/internal/auth/repository"
	"github.com/SamiracleWhip/sami-o-api-dashboard-sub000/internal/auth/service"
	"github.com/SamiracleWhip/sami-o-api-dashboard-sub000/internal/auth/session"
	"go.uber.org/fx"
)

var Module = fx.Module("auth",
	session.Module,
	fx.Provide(repository.New),
	fx.Provide(service.New),
)
