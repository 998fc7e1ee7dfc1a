package providers

import (
	"fmt"
	"leetfresh/internal/structures"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

func setConfigDefaults() {
	viper.SetDefault("persistence.driver", "file")
	viper.SetDefault("leetcode.baseURL", "https://leetcode.com")
	viper.SetDefault("leetcode.pageSize", 4000)
	viper.SetDefault("leetcode.timeout", 15*time.Second)
	viper.SetDefault("breaker.maxRequests", 5)
	viper.SetDefault("breaker.interval", 30*time.Second)
	viper.SetDefault("breaker.timeout", 60*time.Second)
	viper.SetDefault("breaker.failureThreshold", 0.8)
	viper.SetDefault("breaker.minRequests", 5)
	viper.SetDefault("sync.navigationDelay", 1500*time.Millisecond)
	viper.SetDefault("sync.syncOnStart", true)
	viper.SetDefault("bands.freshDays", 7)
	viper.SetDefault("bands.goodDays", 30)
	viper.SetDefault("bands.reviewSoonDays", 90)
	viper.SetDefault("cache.size", 8)
	viper.SetDefault("cache.ttl", time.Hour)
}

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	filename := filepath.Base(flags.ConfigPath)
	viper.AddConfigPath(filepath.Dir(flags.ConfigPath))
	viper.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	viper.SetConfigType("yaml")
	setConfigDefaults()

	viper.BindEnv("logger.level", "LEETFRESH_LOG_LEVEL")
	viper.BindEnv("leetcode.session", "LEETFRESH_SESSION")
	viper.BindEnv("leetcode.csrfToken", "LEETFRESH_CSRF_TOKEN")
	viper.BindEnv("leetcode.username", "LEETFRESH_USERNAME")
	viper.BindEnv("persistence.driver", "LEETFRESH_STORE_DRIVER")
	viper.BindEnv("cache.enabled", "LEETFRESH_CACHE_ENABLED")
	viper.BindEnv("cache.size", "LEETFRESH_CACHE_SIZE")

	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = viper.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = "LeetFresh"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}

// WatchLogLevel re-applies logger.level whenever the config file changes.
// Other settings need a restart.
func WatchLogLevel(conf *structures.Config, logger Logger) {
	setter, ok := logger.(LevelSetter)
	if !ok {
		return
	}
	viper.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		level := viper.GetString("logger.level")
		if level == conf.Logger.Level {
			return
		}
		if err := setter.SetLevel(level); err != nil {
			logger.Warnf(TypeApp, "Ignoring log level %q from %s: %s", level, e.Name, err)
			return
		}
		logger.Infof(TypeApp, "Log level changed from %s to %s", conf.Logger.Level, level)
		conf.Logger.Level = level
	})
	viper.WatchConfig()
}
