package main

import (
	"context"
	"dnshome/config"
	"dnshome/ddns"
	"dnshome/log"
	"dnshome/sources"
	"dnshome/updater"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
)

var (
	configPath = flag.StringP("config", "c", config.DefaultPath, "path to config file (.json, .toml, .yaml)")
	debug      = flag.Bool("debug", false, "enable debug output")
	once       = flag.Bool("once", false, "run a single update cycle and exit")
	serviceCmd = flag.StringP("service", "s", "", "service management (install|uninstall|start|stop|restart)")
	help       = flag.BoolP("help", "h", false, "Print help message")
)

var buildDate string

func init() {
	flag.Parse()
	if *help {
		fmt.Println(flag.CommandLine.FlagUsages())
		os.Exit(0)
	}
}

func getInitLogger() context.Context {
	var err error
	var logger *zap.Logger

	if *debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}

	if err != nil {
		fmt.Printf("Failed creating logger: %v\n", err)
		os.Exit(1)
	}

	return log.WithLogger(context.Background(), logger)
}

func getLogger(ctx context.Context, conf *config.Config) context.Context {
	var logOption zap.Config
	if *debug {
		logOption = zap.NewDevelopmentConfig()
	} else {
		logOption = zap.NewProductionConfig()
	}

	if conf.Log.Level != nil {
		logOption.Level.SetLevel(*conf.Log.Level)
	}

	if conf.Log.Encoding != nil {
		logOption.Encoding = *conf.Log.Encoding
	}

	if conf.Log.InfoPath != nil {
		logOption.OutputPaths = *conf.Log.InfoPath
	}

	if conf.Log.ErrorPath != nil {
		logOption.ErrorOutputPaths = *conf.Log.ErrorPath
	}

	logOption.InitialFields = map[string]interface{}{
		"node": conf.Service.Name,
	}

	logger, err := logOption.Build()
	if err != nil {
		log.S(ctx).Fatalw("cannot build real logger", zap.Error(err))
	}

	return log.WithLogger(context.Background(), logger)
}

func newLoop(conf *config.Config) (*updater.Loop, error) {
	client, err := ddns.NewClient(conf)
	if err != nil {
		return nil, err
	}

	resolver := updater.NewResolver(sources.NewInterfaces(nil), sources.NewEcho(conf.Echo))
	return updater.NewLoop(conf.Domain, conf.Interval(), resolver, client), nil
}

func main() {
	ctx := getInitLogger()

	if buildDate != "" {
		log.S(ctx).Infow("dnshome updater starting", "variant", "release", "build_date", buildDate)
	} else {
		log.S(ctx).Infow("dnshome updater starting", "variant", "debug")
	}

	conf, err := config.Load(*configPath)
	if err != nil {
		log.S(ctx).Fatalw("failed loading config", "path", *configPath, zap.Error(err))
	}

	ctx = getLogger(ctx, conf)
	defer func() { _ = log.L(ctx).Sync() }()

	if *serviceCmd != "" {
		if err := controlService(ctx, conf, *serviceCmd); err != nil {
			log.S(ctx).Fatalw("service command failed", "command", *serviceCmd, zap.Error(err))
		}
		return
	}

	loop, err := newLoop(conf)
	if err != nil {
		log.S(ctx).Fatalw("cannot init updater", zap.Error(err))
	}

	if *once {
		if err := loop.Once(ctx); err != nil {
			log.S(ctx).Errorw("update failed", zap.Error(err))
			_ = log.L(ctx).Sync()
			os.Exit(1)
		}
		return
	}

	if err := runService(ctx, conf, loop); err != nil {
		log.S(ctx).Fatalw("service exited", zap.Error(err))
	}
}
