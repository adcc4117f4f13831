package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/s0up4200/restkit/config"
	"github.com/s0up4200/restkit/filter"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

// annotationNoConfig marks commands that run without a config file
const annotationNoConfig = "restkit/no-config"

// flagKeys maps persistent flags to the config keys they override
var flagKeys = map[string]string{
	"baseurl":   "api.baseurl",
	"tastypie":  "api.tastypie",
	"debug":     "api.debug",
	"log-level": "logging.level",
}

// SetVersion sets the version reported by the version command
func SetVersion(v, t string) {
	version = v
	buildTime = t
}

// app holds the state shared by all commands of one invocation
type app struct {
	cfgFile string
	cfg     *config.Config
	logger  zerolog.Logger
	filters *filter.Manager
	client  *client
	out     outputFlags
}

// Execute runs the root command and exits non-zero on error
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zerolog.Nop()}

	rootCmd := &cobra.Command{
		Use:   "restkit",
		Short: "Call REST and TastyPie APIs from the command line",
		Long: `restkit is a CLI for REST APIs. Resources are declared in the config file
or, for TastyPie APIs, discovered from the API root. Responses can be filtered
with expressions and reshaped with JMESPath queries.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.initializeApp,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default is ./config.yaml)")
	pf.String("baseurl", "", "API base URL, overrides api.baseurl")
	pf.Bool("tastypie", false, "treat the API as a TastyPie API")
	pf.Bool("debug", false, "print request debug output")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.StringVarP(&a.out.query, "query", "q", "", "JMESPath query applied to the response")
	pf.StringVarP(&a.out.where, "where", "w", "", "filter expression, or configured filter name, applied to list records")
	pf.StringVarP(&a.out.format, "output", "o", "json", "output format (json, yaml)")

	rootCmd.AddCommand(
		a.resourcesCmd(),
		a.getCmd(),
		a.postCmd(),
		a.putCmd(),
		a.patchCmd(),
		a.deleteCmd(),
		a.schemaCmd(),
		a.requestCmd(),
		a.filtersCmd(),
		a.mockAPICmd(),
		versionCmd(),
	)

	return rootCmd
}

// initializeApp loads the configuration and sets up logging and filters.
// The API client is created on first use.
func (a *app) initializeApp(cmd *cobra.Command, args []string) error {
	if cmd.Annotations[annotationNoConfig] == "true" {
		a.logger = setupLogger(config.LoggingConfig{Level: "info", Format: "console", Color: true})
		return nil
	}

	if err := a.out.validate(); err != nil {
		return err
	}

	overrides, err := flagOverrides(cmd)
	if err != nil {
		return err
	}

	a.cfg, err = config.Load(a.cfgFile, overrides)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	a.logger = setupLogger(a.cfg.Logging)

	a.filters = filter.NewManager()
	if err := a.filters.RegisterFilters(a.cfg.Filters); err != nil {
		return fmt.Errorf("invalid filters in config: %w", err)
	}

	return nil
}

// flagOverrides collects the persistent flags set on the command line
func flagOverrides(cmd *cobra.Command) (map[string]any, error) {
	overrides := make(map[string]any)
	for name, key := range flagKeys {
		f := cmd.Flags().Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		if f.Value.Type() == "bool" {
			v, err := strconv.ParseBool(f.Value.String())
			if err != nil {
				return nil, fmt.Errorf("invalid --%s: %w", name, err)
			}
			overrides[key] = v
			continue
		}
		overrides[key] = f.Value.String()
	}
	return overrides, nil
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	if cfg.Format == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !cfg.Color || !isatty.IsTerminal(os.Stderr.Fd()),
	}

	return zerolog.New(output).With().Timestamp().Logger()
}

// connect returns the API client, creating it on first use
func (a *app) connect(ctx context.Context) (*client, error) {
	if a.client != nil {
		return a.client, nil
	}

	c, err := newClient(ctx, a.cfg, a.logger)
	if err != nil {
		return nil, err
	}
	a.client = c
	return c, nil
}
