package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/stagekit/fileset"
)

var rootCmd = &cobra.Command{
	Use:   "fileset",
	Short: "Content-addressed fileset CLI",
	Long:  "CLI for inspecting, diffing, committing and packing content-addressed filesets.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ~/.config/fileset/config.yaml)")
	rootCmd.PersistentFlags().String("cache-dir", "", "persistent cache directory (default: process-scoped temp)")
	rootCmd.PersistentFlags().String("blob-dir", "", "blob store directory (default: process-scoped temp)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log merge conflicts and progress")

	viper.BindPFlag("cache_dir", rootCmd.PersistentFlags().Lookup("cache-dir"))
	viper.BindPFlag("blob_dir", rootCmd.PersistentFlags().Lookup("blob-dir"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func initConfig() {
	if cfg := rootCmd.PersistentFlags().Lookup("config").Value.String(); cfg != "" {
		viper.SetConfigFile(cfg)
	} else {
		viper.AddConfigPath(configDir())
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("FILESET")
	viper.AutomaticEnv()

	viper.ReadInConfig()
}

func configDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "fileset")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "fileset")
	}
	return ".fileset"
}

// newWorkspace builds a workspace from the global flags.
func newWorkspace() (*fileset.Workspace, error) {
	var opts []fileset.Option
	if dir := viper.GetString("cache_dir"); dir != "" {
		opts = append(opts, fileset.WithCacheDir(dir))
	}
	if dir := viper.GetString("blob_dir"); dir != "" {
		opts = append(opts, fileset.WithBlobDir(dir))
	}
	if viper.GetBool("verbose") {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return nil, err
		}
		opts = append(opts, fileset.WithLogger(logger.Sugar()))
	}
	return fileset.New(opts...)
}

// addOptions compiles --include/--exclude globs into add options.
func addOptions(includes, excludes []string) ([]fileset.AddOption, error) {
	var opts []fileset.AddOption
	for _, pattern := range includes {
		m, err := fileset.Glob(pattern)
		if err != nil {
			return nil, err
		}
		opts = append(opts, fileset.WithInclude(m))
	}
	for _, pattern := range excludes {
		m, err := fileset.Glob(pattern)
		if err != nil {
			return nil, err
		}
		opts = append(opts, fileset.WithExclude(m))
	}
	return opts, nil
}
