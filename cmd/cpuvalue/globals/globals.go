package globals

import (
	"context"
	"cpuvalue/internal/components/chrono"
	"cpuvalue/internal/components/telemetry"
	"cpuvalue/internal/config"
	"cpuvalue/internal/xmrig"
)

type key struct{}

type Value struct {
	Config config.Config
	Tel    telemetry.API
	Clock  chrono.API
	// nil unless http exchanges are dumped
	HttpOutput telemetry.HttpOutput
	Xmrig      *xmrig.Client
}

func Set(ctx context.Context, value *Value) context.Context {
	return context.WithValue(ctx, key{}, value)
}

func Get(ctx context.Context) *Value {
	return ctx.Value(key{}).(*Value)
}
