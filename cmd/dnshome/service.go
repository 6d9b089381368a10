package main

import (
	"context"
	"dnshome/config"
	"dnshome/log"
	"dnshome/updater"
	"fmt"
	"path/filepath"
	"time"

	"github.com/kardianos/service"
	"go.uber.org/zap"
)

const stopTimeout = 10 * time.Second

// program runs the update loop under the service manager, or in the
// foreground until SIGINT/SIGTERM when started interactively.
type program struct {
	ctx  context.Context
	loop *updater.Loop

	cancel context.CancelFunc
	done   chan struct{}
}

func (p *program) Start(s service.Service) error {
	ctx, cancel := context.WithCancel(p.ctx)
	p.cancel = cancel
	p.done = make(chan struct{})

	go func() {
		defer close(p.done)
		_ = p.loop.Run(ctx)
	}()
	return nil
}

func (p *program) Stop(s service.Service) error {
	if p.cancel == nil {
		return nil
	}
	p.cancel()

	select {
	case <-p.done:
		return nil
	case <-time.After(stopTimeout):
		return fmt.Errorf("updater did not stop within %s", stopTimeout)
	}
}

func newService(conf *config.Config, prg service.Interface) (service.Service, error) {
	path, err := filepath.Abs(*configPath)
	if err != nil {
		return nil, err
	}

	args := []string{"--config", path}
	if *debug {
		args = append(args, "--debug")
	}

	options := service.KeyValue{}
	var depends []string
	switch service.ChosenSystem().String() {
	case "linux-systemd":
		depends = append(depends,
			"Requires=network.target",
			"After=network-online.target")
		options["Restart"] = "on-failure"
	case "darwin-launchd":
		options["KeepAlive"] = true
		options["RunAtLoad"] = true
	case "windows-service":
		options["DelayedAutoStart"] = true
		options["OnFailure"] = "restart"
	}

	svcConfig := &service.Config{
		Name:         conf.Service.Name,
		DisplayName:  "dnshome DDNS updater (" + conf.Service.Name + ")",
		Description:  "Keeps " + conf.Domain + " pointing at this host's public addresses",
		Arguments:    args,
		Dependencies: depends,
		Option:       options,
	}

	return service.New(prg, svcConfig)
}

func runService(ctx context.Context, conf *config.Config, loop *updater.Loop) error {
	s, err := newService(conf, &program{ctx: ctx, loop: loop})
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}

	return s.Run()
}

func controlService(ctx context.Context, conf *config.Config, action string) error {
	s, err := newService(conf, &program{ctx: ctx})
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}

	if err := service.Control(s, action); err != nil {
		return err
	}

	log.S(ctx).Infow("service command done", "command", action, "name", conf.Service.Name, zap.Stringer("system", service.ChosenSystem()))
	return nil
}
