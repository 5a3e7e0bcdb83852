package cli

import (
	stderrors "errors"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/matzehuels/stackbom/pkg/errors"
)

// Config keys. Flag names double as keys so that bindFlags can map them
// one to one.
const (
	keyEcosystem = "ecosystem"
	keyDev       = "dev"
	keyDeep      = "deep"
	keyOutput    = "output"
	keyPretty    = "pretty"
	keyEnrich    = "enrich"
	keyToken     = "token"
	keyOSVURL    = "osv-url"
	keyCache     = "cache"
	keyRedisAddr = "redis-addr"
	keyFormat    = "format"
	keyDetailed  = "detailed"
	keyInput     = "input"
	keyAddr      = "addr"
	keyWorkspace = "workspace"
)

func newConfig() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// loadConfig reads file, or .stackbom.yaml from the working directory or the
// config directory. A missing default file is not an error.
func loadConfig(v *viper.Viper, file string) error {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("." + appName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := configDir(); err == nil {
			v.AddConfigPath(dir)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file == "" && stderrors.As(err, &notFound) {
			return nil
		}
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "read config")
	}
	return nil
}

// bindFlags makes every local flag of cmd readable through v, so that a flag
// set on the command line overrides the environment and the config file.
func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	return v.BindPFlags(cmd.Flags())
}
