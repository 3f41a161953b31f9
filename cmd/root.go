package cmd

import (
	"bytes"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cmmoran/recordgen/pkg/parser"
)

var (
	configFiles    []string
	level, version string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:           "recordgen",
	Short:         "derive codecs, key tables and storage wrappers for record types",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		printError(err)
		os.Exit(1)
	}
}

// SetVersion records the build version reported by the lock and --version.
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

func init() {
	if version == "" {
		SetVersion("dev")
	}
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVarP(&level, "level", "l", "info", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringSliceVar(&configFiles, "config", []string{}, "config file(s) - multiple config files are merged with last specified file having highest priority")

	flags := rootCmd.PersistentFlags()
	flags.StringP("input-directory", "i", ".", "Go module directory scanned for directives, empty to disable")
	flags.StringSliceP("manifest", "m", []string{}, "declaration manifest (yaml, yml, toml), repeatable")
	flags.StringP("output-file", "f", "derive_gen.go", "generated file name per Go package")
	flags.String("lock-file", "recordgen.lock.yaml", "generation lock, relative to the input directory")
	flags.String("directive", "derive", "directive prefix, derive matches //derive:codable")
	flags.String("tag-key", "derive", "struct tag key holding annotations")
	flags.String("storage-annotation", "Tracked", "annotation injected by the wrap macro")
	flags.String("key-case", parser.KeyCaseName, "external key case: name, snake, camel, kebab")
	flags.Bool("strict", false, "generated decoders fail on malformed values")
	flags.Int("concurrency", 0, "parallel expansions, 0 means GOMAXPROCS")
	flags.StringSliceP("exclude-types", "t", []string{}, "declaration names to skip")

	for key, flag := range map[string]string{
		"in_dir":             "input-directory",
		"manifests":          "manifest",
		"out_file":           "output-file",
		"lock_file":          "lock-file",
		"directive":          "directive",
		"tag_key":            "tag-key",
		"storage_annotation": "storage-annotation",
		"key_case":           "key-case",
		"strict":             "strict",
		"concurrency":        "concurrency",
		"exclude_types":      "exclude-types",
	} {
		if err := viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(err)
		}
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	setLogger(level)
	l := zap.L()

	if len(configFiles) > 0 {
		// Use config file from the flag.
		viper.SetConfigFile(configFiles[0])
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc")
		viper.SetConfigType("yaml")
		viper.SetConfigName("recordgen")
	}

	viper.SetEnvPrefix("RECORDGEN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		l.Debug("using config file", zap.String("config", viper.ConfigFileUsed()))
	} else {
		l.Debug("unable to use config file", zap.Error(err), zap.String("config", viper.ConfigFileUsed()))
	}
	if len(configFiles) > 1 {
		for _, file := range configFiles[1:] {
			if configBytes, err := os.ReadFile(file); err == nil {
				if err = viper.MergeConfig(bytes.NewReader(configBytes)); err != nil {
					l.Warn("failed to merge config file", zap.Error(err), zap.String("file", file))
				} else {
					l.Debug("merged config file", zap.String("file", file))
				}
			}
		}
	}
	if len(version) > 0 {
		viper.Set("version", version)
	}

	if llstr := viper.GetString("common.log.level"); llstr != "" && !rootCmd.PersistentFlags().Changed("level") {
		setLogger(llstr)
	}
}

// setLogger installs a production zap logger on stderr. trace is accepted as
// an alias of debug.
func setLogger(lvl string) {
	if strings.EqualFold(lvl, "trace") {
		lvl = "debug"
	}
	zl, err := zapcore.ParseLevel(lvl)
	if err != nil {
		panic("invalid log level: " + lvl)
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zl)
	config.Encoding = "console"
	config.EncoderConfig.TimeKey = "time"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	config.OutputPaths = []string{"stderr"}

	logger, err := config.Build()
	if err != nil {
		panic(err)
	}
	zap.ReplaceGlobals(logger)
}

// loadOptions decodes flags, config files and environment into normalized
// options.
func loadOptions() (*parser.Options, error) {
	opts := parser.NewOptions()
	if err := viper.Unmarshal(opts); err != nil {
		return nil, errors.Wrap(err, "decode configuration")
	}
	if err := opts.Normalize(); err != nil {
		return nil, err
	}
	zap.L().Debug("options", zap.Any("options", opts))
	return opts, nil
}
