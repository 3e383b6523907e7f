package cmd

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// envPrefix prefixes the environment variables that override flags, as in
// PROCSIM_POLICY_CONFIG for --policy-config.
const envPrefix = "PROCSIM"

var (
	configFile string // --config, YAML file with flag values
	envFile    string // --env-file, dotenv file loaded before reading the environment
)

// loadConfig resolves the values of cmd's flags from, in decreasing precedence: the
// command line, PROCSIM_* environment variables (including those from the dotenv file),
// the --config file, and the flag defaults.
func loadConfig(cmd *cobra.Command) (*viper.Viper, error) {
	if err := godotenv.Load(envFile); err != nil {
		if !errors.Is(err, fs.ErrNotExist) || cmd.Flags().Changed("env-file") {
			return nil, err
		}
	}
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, err
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
		logrus.Debugf("using config file %s", v.ConfigFileUsed())
	}
	return v, nil
}

// setupLogging applies --log.
func setupLogging(v *viper.Viper) error {
	level, err := logrus.ParseLevel(v.GetString("log"))
	if err != nil {
		return err
	}
	logrus.SetLevel(level)
	return nil
}
