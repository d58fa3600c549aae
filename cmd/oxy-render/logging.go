package main

import (
	"github.com/Carmen-Shannon/oxy-render/engine/config"
	"github.com/Carmen-Shannon/oxy-render/engine/log"
	"github.com/urfave/cli"
)

var logger = log.New("oxy-render")

// setup loads the configuration and applies its log level. The -v and -vv flags override it.
func setup(ctx *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if path := ctx.GlobalString("config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}

	if level, err := cfg.LogLevel(); err == nil {
		log.SetLevel(level)
	}
	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}
	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}
	return cfg, nil
}
