package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/b0bbywan/go-odio-lyrics/logger"
)

const (
	AppName     = "odio-lyrics"
	AppVersion  = "0.1.0"
	envPrefix   = "ODIO_LYRICS"
	serviceType = "_http._tcp"
	domain      = "local."

	// DefaultSelfName is the well-known MPRIS name the daemon would own itself.
	// It is never reported as a player.
	DefaultSelfName = "org.mpris.MediaPlayer2.odiolyrics"
)

type Config struct {
	Api           *ApiConfig
	MPRIS         *MPRISConfig
	Lyrics        *LyricsConfig
	Zeroconf      *ZeroConfig
	LogLevel      logger.Level
	PackageLevels map[string]logger.Level
}

type ApiConfig struct {
	Enabled bool
	Port    int
	Listens []string
	SSE     bool
	CORS    *CORSConfig
}

// CORSConfig lists the origins allowed to call the API from a browser.
// A single "*" allows any origin.
type CORSConfig struct {
	Origins []string
}

type MPRISConfig struct {
	Enabled  bool
	Timeout  time.Duration
	SelfName string
	Poll     PollConfig
}

// PollConfig tunes the forced position refresh of connected players.
type PollConfig struct {
	Fast  time.Duration
	Slow  time.Duration
	Burst int64
}

type LyricsConfig struct {
	Enabled  bool
	Timeout  time.Duration
	CacheTTL time.Duration
	Proxy    string
	Netease  *NeteaseConfig
}

type NeteaseConfig struct {
	Enabled     bool
	Translation bool
	BaseURL     string
}

type ZeroConfig struct {
	Enabled      bool
	InstanceName string
	ServiceType  string
	Domain       string
	Port         int
	TxtRecords   []string
	Listen       []net.Interface
}

// parseLogLevel converts a string to a logger.Level
func parseLogLevel(levelStr string) logger.Level {
	return logger.ParseLevel(levelStr, logger.WARN)
}

func parsePackageLevels(raw map[string]string) map[string]logger.Level {
	levels := make(map[string]logger.Level, len(raw))
	for pkg, lvl := range raw {
		levels[strings.ToLower(pkg)] = parseLogLevel(lvl)
	}
	return levels
}

func interfaceForIP(ip string) (*net.Interface, error) {
	if ip == "127.0.0.1" || ip == "::1" || ip == "localhost" {
		return nil, nil
	}
	listenIP := net.ParseIP(ip)
	if listenIP == nil {
		return nil, fmt.Errorf("invalid bind: %s", ip)
	}
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	for _, iface := range ifaces {
		addrs, _ := iface.Addrs()
		for _, addr := range addrs {
			var ifaceIP net.IP

			switch v := addr.(type) {
			case *net.IPNet:
				ifaceIP = v.IP
			case *net.IPAddr:
				ifaceIP = v.IP
			}

			if ifaceIP != nil && ifaceIP.Equal(listenIP) {
				return &iface, nil
			}
		}
	}

	return nil, fmt.Errorf("no interface found for IP %s", ip)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.enabled", true)
	v.SetDefault("api.port", 8018)
	v.SetDefault("api.sse", true)
	v.SetDefault("api.cors.origins", []string{})
	v.SetDefault("bind", "127.0.0.1")

	v.SetDefault("mpris.enabled", true)
	v.SetDefault("mpris.timeout", "5s")
	v.SetDefault("mpris.self_name", DefaultSelfName)
	v.SetDefault("mpris.poll.fast", "300ms")
	v.SetDefault("mpris.poll.slow", "2s")
	v.SetDefault("mpris.poll.burst", 10)

	v.SetDefault("lyrics.enabled", true)
	v.SetDefault("lyrics.timeout", "10s")
	v.SetDefault("lyrics.cache_ttl", "30m")
	v.SetDefault("lyrics.proxy", "")
	v.SetDefault("lyrics.netease.enabled", true)
	v.SetDefault("lyrics.netease.translation", true)
	v.SetDefault("lyrics.netease.base_url", "http://music.163.com")

	v.SetDefault("zeroconf.enabled", false)

	v.SetDefault("LogLevel", "WARN")
	v.SetDefault("log.levels", map[string]string{})
}

func New() (*Config, error) {
	v := viper.GetViper()
	setDefaults(v)

	// Load from configuration file and environment variables
	v.SetConfigName("config")                       // name of config file (without extension)
	v.SetConfigType("yaml")                         // config file format
	v.AddConfigPath(filepath.Join("/etc", AppName)) // Global configuration path
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", AppName)) // User config path
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// Config file is optional, continue with defaults if not found
		if _, isNotFound := err.(viper.ConfigFileNotFoundError); !isNotFound {
			logger.Warn("[config] failed to read config: %v", err)
		}
	}

	return load(v)
}

// load builds a Config from an already populated viper instance.
func load(v *viper.Viper) (*Config, error) {
	port := v.GetInt("api.port")
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid port: %d", port)
	}

	bind := v.GetString("bind")
	var interfaces []net.Interface
	inet, err := interfaceForIP(bind)
	if err == nil && inet != nil {
		interfaces = append(interfaces, *inet)
	}

	apiCfg := ApiConfig{
		Enabled: v.GetBool("api.enabled"),
		Port:    port,
		Listens: []string{net.JoinHostPort(bind, strconv.Itoa(port))},
		SSE:     v.GetBool("api.sse"),
	}
	if origins := v.GetStringSlice("api.cors.origins"); len(origins) > 0 {
		apiCfg.CORS = &CORSConfig{Origins: origins}
	}

	mprisTimeout := v.GetDuration("mpris.timeout")
	if mprisTimeout <= 0 {
		mprisTimeout = 5 * time.Second
	}

	poll := PollConfig{
		Fast:  v.GetDuration("mpris.poll.fast"),
		Slow:  v.GetDuration("mpris.poll.slow"),
		Burst: v.GetInt64("mpris.poll.burst"),
	}
	if poll.Fast <= 0 || poll.Slow <= 0 {
		return nil, fmt.Errorf("invalid poll intervals: fast=%s slow=%s", poll.Fast, poll.Slow)
	}
	if poll.Burst < 0 {
		return nil, fmt.Errorf("invalid poll burst: %d", poll.Burst)
	}

	selfName := v.GetString("mpris.self_name")
	if selfName == "" {
		selfName = DefaultSelfName
	}

	mpriscfg := MPRISConfig{
		Enabled:  v.GetBool("mpris.enabled"),
		Timeout:  mprisTimeout,
		SelfName: selfName,
		Poll:     poll,
	}

	lyricsTimeout := v.GetDuration("lyrics.timeout")
	if lyricsTimeout <= 0 {
		lyricsTimeout = 10 * time.Second
	}

	lyricscfg := LyricsConfig{
		Enabled:  v.GetBool("lyrics.enabled"),
		Timeout:  lyricsTimeout,
		CacheTTL: v.GetDuration("lyrics.cache_ttl"),
		Proxy:    v.GetString("lyrics.proxy"),
		Netease: &NeteaseConfig{
			Enabled:     v.GetBool("lyrics.netease.enabled"),
			Translation: v.GetBool("lyrics.netease.translation"),
			BaseURL:     strings.TrimRight(v.GetString("lyrics.netease.base_url"), "/"),
		},
	}

	zerocfg := ZeroConfig{
		Enabled:      v.GetBool("zeroconf.enabled"),
		InstanceName: AppName,
		ServiceType:  serviceType,
		Port:         port,
		Domain:       domain,
		TxtRecords:   []string{"version=" + AppVersion},
		Listen:       interfaces,
	}

	cfg := Config{
		Api:           &apiCfg,
		MPRIS:         &mpriscfg,
		Lyrics:        &lyricscfg,
		Zeroconf:      &zerocfg,
		LogLevel:      parseLogLevel(v.GetString("LogLevel")),
		PackageLevels: parsePackageLevels(v.GetStringMapString("log.levels")),
	}

	return &cfg, nil
}

// Watch reloads the configuration file on change and hands the new Config
// to onChange. Returns false when no config file is in use.
func Watch(onChange func(*Config)) bool {
	v := viper.GetViper()
	if v.ConfigFileUsed() == "" {
		return false
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		logger.Info("[config] %s changed, reloading", e.Name)
		cfg, err := load(v)
		if err != nil {
			logger.Error("[config] reload failed, keeping previous config: %v", err)
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
	logger.Debug("[config] watching %s", v.ConfigFileUsed())
	return true
}

// ApplyLogLevels pushes the log settings of cfg to the global logger.
func ApplyLogLevels(cfg *Config) {
	logger.SetLevel(cfg.LogLevel)
	logger.SetPackageLevels(cfg.PackageLevels)
}
