package cmd

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/geobot/core/config"
	coretelegram "github.com/m3rciful/geobot/core/telegram"
)

type carrier struct{ cfg *coreconfig.Config }

func (c carrier) CoreConfig() *coreconfig.Config { return c.cfg }

type telegramApp struct{ opts coretelegram.RunOptions }

func (a telegramApp) TelegramRunOptions() (coretelegram.RunOptions, error) { return a.opts, nil }

func TestResolveConfigPath(t *testing.T) {
	t.Setenv("GEOBOT_CONFIG", "")
	_, err := ResolveConfigPath(Options{ConfigEnvVar: "GEOBOT_CONFIG"})
	assert.Error(t, err)

	p, err := ResolveConfigPath(Options{ConfigEnvVar: "GEOBOT_CONFIG", DefaultConfigPath: "default.yaml"})
	require.NoError(t, err)
	assert.Equal(t, "default.yaml", p)

	t.Setenv("GEOBOT_CONFIG", "env.yaml")
	p, err = ResolveConfigPath(Options{ConfigEnvVar: "GEOBOT_CONFIG", DefaultConfigPath: "default.yaml"})
	require.NoError(t, err)
	assert.Equal(t, "env.yaml", p)

	p, err = ResolveConfigPath(Options{ConfigPath: "flag.yaml", ConfigEnvVar: "GEOBOT_CONFIG"})
	require.NoError(t, err)
	assert.Equal(t, "flag.yaml", p)
}

func TestRun_RequiresHooks(t *testing.T) {
	assert.Error(t, Run(Options{}))
	assert.Error(t, Run(Options{LoadConfig: func(string) (ConfigCarrier, error) { return nil, nil }}))
}

func TestRun_BootstrapFailure(t *testing.T) {
	err := Run(Options{
		ConfigPath: "cfg.yaml",
		LoadConfig: func(string) (ConfigCarrier, error) { return carrier{cfg: &coreconfig.Config{}}, nil },
		Bootstrap:  func(ConfigCarrier) (TelegramApp, error) { return nil, errors.New("no db") },
	})
	assert.ErrorContains(t, err, "no db")
}

func TestRun_InvokesTelegramWithHooks(t *testing.T) {
	started, stopped := false, false
	var gotPath string
	err := Run(Options{
		ConfigPath: "cfg.yaml",
		LoadConfig: func(path string) (ConfigCarrier, error) {
			gotPath = path
			return carrier{cfg: &coreconfig.Config{}}, nil
		},
		Bootstrap: func(ConfigCarrier) (TelegramApp, error) {
			return telegramApp{opts: coretelegram.RunOptions{
				OnStart: func(context.Context, coretelegram.Runtime) error { started = true; return nil },
				OnStop:  func(context.Context, coretelegram.Runtime) error { stopped = true; return nil },
			}}, nil
		},
		ShutdownLogger: func() error { return nil },
		RunTelegram: func(ctx context.Context, opts coretelegram.RunOptions) error {
			if err := opts.OnStart(ctx, coretelegram.Runtime{}); err != nil {
				return err
			}
			return opts.OnStop(ctx, coretelegram.Runtime{})
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "cfg.yaml", gotPath)
	assert.True(t, started)
	assert.True(t, stopped)
}
