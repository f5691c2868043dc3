package apikey

import (
	"github.com/SamiracleWhip/sami-o-api-dashboard-sub000/internal/apikey/repository"
	"github.com/SamiracleWhip/sami-o-api-dashboard-sub000/internal/apikey/service"
	"go.uber.org/fx"
)

var Module = fx.Module("apikey.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
