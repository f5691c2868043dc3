package github

import "go.uber.org/fx"

var Module = fx.Module("providers.github",
	fx.Provide(New),
)
