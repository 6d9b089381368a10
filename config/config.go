package config

import (
	"dnshome/common"
	"errors"
	"fmt"
	"math"
	"net/url"
	"time"

	"go.uber.org/zap/zapcore"
)

const (
	DefaultPath      = "/data/options.json"
	DefaultUpdateURL = "https://www.dnshome.de/dyndns.php"
	DefaultEchoIPv4  = "https://api.ipify.org?format=json"
	DefaultEchoIPv6  = "https://api6.ipify.org?format=json"
	DefaultTimeout   = 10 * time.Second
	DefaultService   = "dnshome"
	envPrefix        = "DNSHOME_"

	// MaxUpdateInterval keeps Interval within time.Duration.
	MaxUpdateInterval = math.MaxInt64 / int64(time.Second)
)

type Config struct {
	Domain         string `mapstructure:"domain"`
	Username       string `mapstructure:"username"`
	Password       string `mapstructure:"password"`
	UpdateInterval int    `mapstructure:"update_interval"`

	Service  Service  `mapstructure:"service"`
	Log      Log      `mapstructure:"log"`
	Provider Provider `mapstructure:"provider"`
	Echo     Echo     `mapstructure:"echo"`
}

type Service struct {
	Name string `mapstructure:"name"`
}

type Log struct {
	Level     *zapcore.Level `mapstructure:"level"`
	Encoding  *string        `mapstructure:"encoding"`
	InfoPath  *[]string      `mapstructure:"info_path"`
	ErrorPath *[]string      `mapstructure:"error_path"`
}

type Provider struct {
	UpdateURL string          `mapstructure:"update_url"`
	Timeout   common.Duration `mapstructure:"timeout"`
}

type Echo struct {
	IPv4URL   string          `mapstructure:"ipv4_url"`
	IPv6URL   string          `mapstructure:"ipv6_url"`
	Timeout   common.Duration `mapstructure:"timeout"`
	PinFamily *bool           `mapstructure:"pin_family"`
}

// Interval is the pause between two update cycles.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.UpdateInterval) * time.Second
}

func (c *Config) setDefaults() {
	if c.Service.Name == "" {
		c.Service.Name = DefaultService
	}
	if c.Provider.UpdateURL == "" {
		c.Provider.UpdateURL = DefaultUpdateURL
	}
	if c.Provider.Timeout == 0 {
		c.Provider.Timeout = common.Duration(DefaultTimeout)
	}
	if c.Echo.IPv4URL == "" {
		c.Echo.IPv4URL = DefaultEchoIPv4
	}
	if c.Echo.IPv6URL == "" {
		c.Echo.IPv6URL = DefaultEchoIPv6
	}
	if c.Echo.Timeout == 0 {
		c.Echo.Timeout = common.Duration(DefaultTimeout)
	}
	if c.Echo.PinFamily == nil {
		pin := true
		c.Echo.PinFamily = &pin
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.Domain == "" {
		errs = append(errs, errors.New("domain is required"))
	}
	if c.Username == "" {
		errs = append(errs, errors.New("username is required"))
	}
	if c.Password == "" {
		errs = append(errs, errors.New("password is required"))
	}
	if c.UpdateInterval <= 0 {
		errs = append(errs, fmt.Errorf("update_interval should be positive, but got %d", c.UpdateInterval))
	} else if int64(c.UpdateInterval) > MaxUpdateInterval {
		errs = append(errs, fmt.Errorf("update_interval should be at most %d, but got %d", MaxUpdateInterval, c.UpdateInterval))
	}
	endpoints := []struct{ key, raw string }{
		{"provider.update_url", c.Provider.UpdateURL},
		{"echo.ipv4_url", c.Echo.IPv4URL},
		{"echo.ipv6_url", c.Echo.IPv6URL},
	}
	for _, e := range endpoints {
		if err := ValidateEndpoint(e.raw); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", e.key, err))
		}
	}
	return errors.Join(errs...)
}

// ValidateEndpoint accepts absolute http(s) URLs with a host.
func ValidateEndpoint(raw string) error {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return fmt.Errorf("bad url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("bad url %q: scheme should be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("bad url %q: missing host", raw)
	}
	return nil
}
