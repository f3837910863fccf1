// Command api-server runs the mall order HTTP API.
package main

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"

	mall "github.com/mokcj0825/mall-order-api/internal/app"
)

func main() {
	app.Run(func(ctx context.Context, lg *zap.Logger, m *app.Telemetry) error {
		cfg, err := mall.LoadConfig()
		if err != nil {
			return errors.Wrap(err, "load config")
		}
		return mall.Run(ctx, lg, m, cfg)
	})
}
