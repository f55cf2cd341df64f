package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestSetupLogger(t *testing.T) {
	newApp := func() *cli.App {
		return &cli.App{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "log-level",
					Aliases: []string{"l"},
					Value:   "info",
				},
			},
			Before: setupLogger,
			Action: func(c *cli.Context) error {
				return nil
			},
		}
	}

	t.Run("valid log levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error"} {
			t.Run(level, func(t *testing.T) {
				err := newApp().Run([]string{"test", "--log-level", level})
				require.NoError(t, err)
			})
		}
	})

	t.Run("case insensitive", func(t *testing.T) {
		for _, level := range []string{"DEBUG", "Info", "WaRn"} {
			t.Run(level, func(t *testing.T) {
				err := newApp().Run([]string{"test", "--log-level", level})
				require.NoError(t, err)
			})
		}
	})

	t.Run("invalid log level returns error", func(t *testing.T) {
		err := newApp().Run([]string{"test", "--log-level", "loud"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})

	t.Run("alias -l works", func(t *testing.T) {
		err := newApp().Run([]string{"test", "-l", "debug"})
		require.NoError(t, err)
	})
}

func TestIngestCommand_RequiresArgument(t *testing.T) {
	app := &cli.App{
		Name: "restai",
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Action: ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "project", Required: true},
				},
			},
		},
	}

	err := app.Run([]string{"restai", "ingest", "--project", "docs"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path or URL")
}

func TestAskCommand_RequiresQuestion(t *testing.T) {
	app := &cli.App{
		Name: "restai",
		Commands: []*cli.Command{
			{
				Name:   "ask",
				Action: askCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "project", Required: true},
				},
			},
		},
	}

	err := app.Run([]string{"restai", "ask", "--project", "docs"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "question")
}
