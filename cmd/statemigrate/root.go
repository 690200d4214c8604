package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	migrate "github.com/goliatone/go-state-migrate"
	"github.com/goliatone/go-state-migrate/internal/logging"
	"github.com/goliatone/go-state-migrate/pkg/activity"
	"github.com/goliatone/go-state-migrate/pkg/activity/usersink"
	"github.com/goliatone/go-state-migrate/pkg/state"
	"github.com/goliatone/go-state-migrate/pkg/wallet"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "STATEMIGRATE"

// systemActorID is recorded on activity when no --actor is given.
var systemActorID = uuid.NewSHA1(uuid.NameSpaceOID, []byte("statemigrate"))

type options struct {
	State  string         `mapstructure:"state"`
	Actor  string         `mapstructure:"actor"`
	Engine string         `mapstructure:"engine"`
	Log    logging.Config `mapstructure:"log"`
}

// flagKeys maps viper keys to the persistent flags that override them.
var flagKeys = map[string]string{
	"state":     "state",
	"actor":     "actor",
	"engine":    "engine",
	"log.level": "log-level",
	"log.dir":   "log-dir",
}

type app struct {
	opts   options
	logger *slog.Logger
	closer io.Closer
	store  *state.FileStore
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	a := &app{}
	var configPath string

	root := &cobra.Command{
		Use:          "statemigrate",
		Short:        "Upgrade persisted wallet state to the latest schema",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd, configPath, stderr)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.close()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "YAML config file")
	flags.String("state", "state.json", "state file (.json, .yaml or .yml)")
	flags.String("actor", "", "actor id recorded on migration activity")
	flags.String("engine", migrate.EngineExpr, "expression engine for guards and rewrites: "+strings.Join(migrate.Engines(), ", "))
	flags.String("log-level", "info", "log level: debug, info, warn or error")
	flags.String("log-dir", "", "write logs to a rotated file in this directory")

	root.AddCommand(
		newApplyCommand(a),
		newStatusCommand(a),
		newNetworksCommand(a),
		newSchemaCommand(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, configPath string, stderr io.Writer) error {
	opts, err := loadOptions(cmd, configPath)
	if err != nil {
		return err
	}
	logger, closer, err := logging.New(opts.Log, stderr)
	if err != nil {
		return err
	}
	a.opts = opts
	a.logger = logger
	a.closer = closer
	a.store = state.NewFileStore(opts.State)
	return nil
}

func (a *app) close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

func loadOptions(cmd *cobra.Command, configPath string) (options, error) {
	v := viper.New()

	defaults := logging.Defaults()
	v.SetDefault("state", "state.json")
	v.SetDefault("actor", "")
	v.SetDefault("engine", migrate.EngineExpr)
	v.SetDefault("log.level", defaults.Level)
	v.SetDefault("log.dir", defaults.Dir)
	v.SetDefault("log.max_size_mb", defaults.MaxSizeMB)
	v.SetDefault("log.max_backups", defaults.MaxBackups)
	v.SetDefault("log.max_age_days", defaults.MaxAgeDays)
	v.SetDefault("log.compress", defaults.Compress)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, name := range flagKeys {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return options{}, fmt.Errorf("statemigrate: bind flag %s: %w", name, err)
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return options{}, fmt.Errorf("statemigrate: read config: %w", err)
		}
	}

	var opts options
	if err := v.Unmarshal(&opts); err != nil {
		return options{}, fmt.Errorf("statemigrate: decode config: %w", err)
	}
	return opts, nil
}

// runner returns the wallet runner. Runners that persist their result also
// report activity; preview runners only log.
func (a *app) runner(persisting bool) (*migrate.Runner, error) {
	evaluator, err := migrate.NewEvaluator(a.opts.Engine, nil, migrate.NewMemoryProgramCache())
	if err != nil {
		return nil, fmt.Errorf("statemigrate: %w", err)
	}
	opts := []migrate.Option{
		migrate.WithEvaluator(evaluator),
		migrate.WithRunLogger(migrate.SlogLogger(a.logger)),
	}
	if persisting {
		opts = append(opts,
			migrate.WithActivityActor(a.opts.Actor),
			migrate.WithActivityHooks(activity.Hooks{activity.Only(usersink.Hook{
				Sink:          logSink{logger: a.logger},
				SystemActorID: systemActorID,
			}, activity.VerbMigrationApplied, activity.VerbStateMigrated)}),
		)
	}
	return wallet.NewRunner(opts...)
}

// preview loads the state file and migrates it in memory.
func (a *app) preview(cmd *cobra.Command) (loaded, migrated map[string]any, report migrate.Report, err error) {
	loaded, _, _, err = a.store.Load(cmd.Context())
	if err != nil {
		return nil, nil, migrate.Report{}, err
	}
	runner, err := a.runner(false)
	if err != nil {
		return nil, nil, migrate.Report{}, err
	}
	migrated, report, err = runner.ApplyWithReport(cmd.Context(), loaded)
	if err != nil {
		return nil, nil, report, err
	}
	return loaded, migrated, report, nil
}
