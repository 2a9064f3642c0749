package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "reactions.cfg.json"

// GridConfig holds the scene grid settings
type GridConfig struct {
	Topology  string  `json:"topology" mapstructure:"topology"`
	Size      float64 `json:"size" mapstructure:"size"`
	Distance  float64 `json:"distance" mapstructure:"distance"`
	Units     string  `json:"units" mapstructure:"units"`
	Diagonals string  `json:"diagonals" mapstructure:"diagonals"`
}

// SessionConfig holds the local session settings
type SessionConfig struct {
	UserID     string `json:"userId" mapstructure:"userId"`
	Predicate  string `json:"predicate" mapstructure:"predicate"`   // overwatch predicate, e.g. builtin:always or script:<id>
	Engagement bool   `json:"engagement" mapstructure:"engagement"` // automate engaged status
	Zones      bool   `json:"zones" mapstructure:"zones"`           // test threat against cell-union zones
}

// WebSocketConfig holds websocket broadcast settings
type WebSocketConfig struct {
	URL          string        `json:"url" mapstructure:"url"`
	SendBuffer   int           `json:"sendBuffer" mapstructure:"sendBuffer"`
	ReconnectMin time.Duration `json:"reconnectMin" mapstructure:"reconnectMin"`
	ReconnectMax time.Duration `json:"reconnectMax" mapstructure:"reconnectMax"`
}

// KafkaConfig holds kafka broadcast settings
type KafkaConfig struct {
	Brokers     []string `json:"brokers" mapstructure:"brokers"`
	GroupPrefix string   `json:"groupPrefix" mapstructure:"groupPrefix"`
}

// BroadcastConfig holds the cross-session broadcast channel settings
type BroadcastConfig struct {
	Type      string          `json:"type" mapstructure:"type"` // memory, websocket or kafka
	Topic     string          `json:"topic" mapstructure:"topic"`
	WebSocket WebSocketConfig `json:"websocket" mapstructure:"websocket"`
	Kafka     KafkaConfig     `json:"kafka" mapstructure:"kafka"`
}

// RelayConfig holds the websocket relay server settings
type RelayConfig struct {
	Listen string `json:"listen" mapstructure:"listen"`
}

// SQLiteConfig holds sqlite scene store settings
type SQLiteConfig struct {
	Path string `json:"path" mapstructure:"path"` // empty for in-memory
}

// SceneConfig holds the scene provider settings
type SceneConfig struct {
	Type   string       `json:"type" mapstructure:"type"` // memory, sqlite or postgres
	File   string       `json:"file" mapstructure:"file"` // YAML fixture loaded into the store
	SQLite SQLiteConfig `json:"sqlite" mapstructure:"sqlite"`
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName  string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	Endpoint     string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure     bool          `json:"insecure" mapstructure:"insecure"`
}

// InfluxConfig holds InfluxDB telemetry settings
type InfluxConfig struct {
	Enabled    bool   `json:"enabled" mapstructure:"enabled"`
	Host       string `json:"host" mapstructure:"host"`
	Port       string `json:"port" mapstructure:"port"`
	Protocol   string `json:"protocol" mapstructure:"protocol"`
	Token      string `json:"token" mapstructure:"token"`
	Org        string `json:"org" mapstructure:"org"`
	BackupPath string `json:"backupPath" mapstructure:"backupPath"`
}

// GraylogConfig holds GELF log sink settings
type GraylogConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Address string `json:"address" mapstructure:"address"`
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	SetDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// SetDefaults registers the default value of every key.
func SetDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./reactionlogs")

	viper.SetDefault("grid.topology", "square")
	viper.SetDefault("grid.size", 100)
	viper.SetDefault("grid.distance", 1)
	viper.SetDefault("grid.units", "")
	viper.SetDefault("grid.diagonals", "equidistant")

	viper.SetDefault("session.userId", "")
	viper.SetDefault("session.predicate", "builtin:always")
	viper.SetDefault("session.engagement", true)
	viper.SetDefault("session.zones", false)

	viper.SetDefault("broadcast.type", "memory")
	viper.SetDefault("broadcast.topic", "module.tacgrid-reactions")
	viper.SetDefault("broadcast.websocket.url", "ws://localhost:8765/ws")
	viper.SetDefault("broadcast.websocket.sendBuffer", 256)
	viper.SetDefault("broadcast.websocket.reconnectMin", "1s")
	viper.SetDefault("broadcast.websocket.reconnectMax", "30s")
	viper.SetDefault("broadcast.kafka.brokers", []string{"localhost:9092"})
	viper.SetDefault("broadcast.kafka.groupPrefix", "reactions")

	viper.SetDefault("relay.listen", ":8765")

	viper.SetDefault("scene.type", "memory")
	viper.SetDefault("scene.file", "")
	viper.SetDefault("scene.sqlite.path", "")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "reactions")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "tacgrid")
	viper.SetDefault("influx.backupPath", "./reactionlogs/influx_backup.log.gzip")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "tacgrid-reactions")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetGridConfig returns the grid configuration.
func GetGridConfig() GridConfig {
	return GridConfig{
		Topology:  viper.GetString("grid.topology"),
		Size:      viper.GetFloat64("grid.size"),
		Distance:  viper.GetFloat64("grid.distance"),
		Units:     viper.GetString("grid.units"),
		Diagonals: viper.GetString("grid.diagonals"),
	}
}

// GetSessionConfig returns the local session configuration.
func GetSessionConfig() SessionConfig {
	return SessionConfig{
		UserID:     viper.GetString("session.userId"),
		Predicate:  viper.GetString("session.predicate"),
		Engagement: viper.GetBool("session.engagement"),
		Zones:      viper.GetBool("session.zones"),
	}
}

// GetBroadcastConfig returns the broadcast channel configuration.
func GetBroadcastConfig() BroadcastConfig {
	return BroadcastConfig{
		Type:  viper.GetString("broadcast.type"),
		Topic: viper.GetString("broadcast.topic"),
		WebSocket: WebSocketConfig{
			URL:          viper.GetString("broadcast.websocket.url"),
			SendBuffer:   viper.GetInt("broadcast.websocket.sendBuffer"),
			ReconnectMin: viper.GetDuration("broadcast.websocket.reconnectMin"),
			ReconnectMax: viper.GetDuration("broadcast.websocket.reconnectMax"),
		},
		Kafka: KafkaConfig{
			Brokers:     viper.GetStringSlice("broadcast.kafka.brokers"),
			GroupPrefix: viper.GetString("broadcast.kafka.groupPrefix"),
		},
	}
}

// GetRelayConfig returns the relay server configuration.
func GetRelayConfig() RelayConfig {
	return RelayConfig{Listen: viper.GetString("relay.listen")}
}

// GetSceneConfig returns the scene provider configuration.
func GetSceneConfig() SceneConfig {
	return SceneConfig{
		Type: viper.GetString("scene.type"),
		File: viper.GetString("scene.file"),
		SQLite: SQLiteConfig{
			Path: viper.GetString("scene.sqlite.path"),
		},
	}
}

// GetOTelConfig returns the OpenTelemetry configuration.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

// GetInfluxConfig returns the InfluxDB configuration.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:    viper.GetBool("influx.enabled"),
		Host:       viper.GetString("influx.host"),
		Port:       viper.GetString("influx.port"),
		Protocol:   viper.GetString("influx.protocol"),
		Token:      viper.GetString("influx.token"),
		Org:        viper.GetString("influx.org"),
		BackupPath: viper.GetString("influx.backupPath"),
	}
}

// GetGraylogConfig returns the GELF sink configuration.
func GetGraylogConfig() GraylogConfig {
	return GraylogConfig{
		Enabled: viper.GetBool("graylog.enabled"),
		Address: viper.GetString("graylog.address"),
	}
}
