package bootstrap

import (
	"biblio/internal/notifier"

	"go.uber.org/fx"
)

var NotifierModule = fx.Module("notifier",
	fx.Provide(
		notifier.New,
	),
)
