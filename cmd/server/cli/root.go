// Package cli holds the commands of the sheet uploader server binary.
package cli

import (
	"fmt"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sheet-uploader/backend/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// VersionInfo describes the running build.
type VersionInfo struct {
	Version   string
	BuildTime string
}

func NewRootCommand(info VersionInfo) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:           "sheet-uploader",
		Short:         "Spreadsheet upload and ingestion server",
		Long:          "Accepts .xls and .xlsx uploads, validates every sheet against the order schema and loads valid rows into the configured database.",
		SilenceErrors: true,
		SilenceUsage:  true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(path)
		},
	}

	cmd.PersistentFlags().StringVar(&path, "config", "", "config file (default is ./config.yaml)")
	cmd.PersistentFlags().Bool("no-color", false, "Disables colored log output")
	cmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	viper.BindPFlag("log.level", cmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.no_color", cmd.PersistentFlags().Lookup("no-color"))

	cmd.Version = fmt.Sprintf("%s (built %s)", info.Version, info.BuildTime)

	return cmd
}

func NewVersionCommand(info VersionInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("sheet-uploader %s (built %s)\n", info.Version, info.BuildTime)
		},
	}
}

var configDirs = []string{".", "./config", "/etc/sheet-uploader"}

func initConfig(path string) error {
	envFiles := []string{".env", ".env.local"}
	for _, envFile := range envFiles {
		// Missing .env files are fine
		godotenv.Load(envFile)
	}

	if path != "" {
		viper.SetConfigFile(path)
		configDir := filepath.Dir(path)
		for _, envFile := range envFiles {
			godotenv.Load(filepath.Join(configDir, envFile))
		}
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		for _, dir := range configDirs {
			viper.AddConfigPath(dir)
			for _, envFile := range envFiles {
				godotenv.Load(filepath.Join(dir, envFile))
			}
		}
	}

	config.ConfigureEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}
