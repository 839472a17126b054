package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/wolfeidau/sentiview/internal/config"
)

// ConfigCmd reads and writes config.yaml.
type ConfigCmd struct {
	Show ConfigShowCmd `cmd:"" default:"1" help:"Show the effective configuration"`
	Set  ConfigSetCmd  `cmd:"" help:"Persist settings to config.yaml"`
}

type ConfigShowCmd struct{}

func (c *ConfigShowCmd) Run(ctx context.Context, globals *Globals) error {
	dir, file, err := loadConfig(globals)
	if err != nil {
		return err
	}
	s := config.Resolve(dir, file, globals.Server, globals.Timeout, globals.NoCache)

	out := globals.stdout()
	fmt.Fprintf(out, "Config dir:   %s\n", s.Dir)
	fmt.Fprintf(out, "Server:       %s\n", s.Server)
	fmt.Fprintf(out, "Timeout:      %s\n", s.Timeout)
	fmt.Fprintf(out, "Report cache: %t\n", s.Cache)
	return nil
}

type ConfigSetCmd struct {
	ServerURL string        `name:"server-url" help:"Backend URL to store"`
	Timeout   time.Duration `name:"request-timeout" help:"Request timeout to store"`
	Cache     string        `help:"Enable or disable the report cache (on or off)"`
}

func (c *ConfigSetCmd) Run(ctx context.Context, globals *Globals) error {
	dir, file, err := loadConfig(globals)
	if err != nil {
		return err
	}

	if c.ServerURL != "" {
		file.Server = c.ServerURL
	}
	if c.Timeout > 0 {
		file.Timeout = c.Timeout
	}
	switch c.Cache {
	case "":
	case "on", "off":
		enabled := c.Cache == "on"
		file.Cache = &enabled
	default:
		return fmt.Errorf("invalid --cache value %q, expected on or off", c.Cache)
	}

	if err := file.Save(dir); err != nil {
		return err
	}

	fmt.Fprintf(globals.stdout(), "Saved %s\n", dir)
	return nil
}

func loadConfig(globals *Globals) (string, *config.File, error) {
	dir := globals.ConfigDir
	if dir == "" {
		var err error
		if dir, err = config.DefaultDir(); err != nil {
			return "", nil, err
		}
	}

	file, err := config.Load(dir)
	if err != nil {
		return "", nil, err
	}

	return dir, file, nil
}
