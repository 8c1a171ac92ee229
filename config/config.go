package config

import (
	"database/sql"
	"time"

	_ "github.com/lib/pq"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/spf13/viper"
)

type Config struct {
	MinIOBucket string        `yaml:"minio_bucket"`
	App         App           `yaml:"app"`
	DB          *sql.DB       `yaml:"db"`
	Queue       *RabbitMQ     `yaml:"rabbitmq"`
	Storage     *minio.Client `yaml:"storage"`
	Server      Server        `yaml:"server"`
	Upload      Upload        `yaml:"upload"`
	Download    Download      `yaml:"download"`
	Probe       Probe         `yaml:"probe"`
	Estimation  Estimation    `yaml:"estimation"`
	Processing  Processing    `yaml:"processing"`
}

type App struct {
	Environment string `yaml:"environment"`
	Host        string `yaml:"host"`
	Protocol    string `yaml:"protocol"`
}

type Server struct {
	HttpPort string `yaml:"http_port"`
	Workers  int    `yaml:"workers"`
}

type RabbitMQ struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	User         string `json:"user"`
	Pass         string `json:"pass"`
	ExchangeName string `json:"exchange_name"`
	Kind         string `json:"kind"`
}

// Upload controls credential issuance for direct-to-storage uploads.
type Upload struct {
	Expiry      time.Duration `yaml:"expiry"`
	UseFormPost bool          `yaml:"use_form_post"`
	MaxSize     int64         `yaml:"max_size"`
}

type Download struct {
	Expiry time.Duration `yaml:"expiry"`
}

type Probe struct {
	Timeout time.Duration `yaml:"timeout"`
	Binary  string        `yaml:"binary"`
}

// Estimation names the fallback heuristic constants so they are tunable
// rather than magic. BytesPerSecond converts object size to a duration
// guess; DurationFloor is the minimum duration ever estimated.
type Estimation struct {
	BytesPerSecond float64 `yaml:"bytes_per_second"`
	DurationFloor  float64 `yaml:"duration_floor"`
}

// Processing tunes the driver: a PROCESSING job whose progress has not
// moved within StallCeiling is failed with reason Timeout.
type Processing struct {
	StallCeiling  time.Duration `yaml:"stall_ceiling"`
	WatchInterval time.Duration `yaml:"watch_interval"`
}

func Load(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("rabbitmq_exchange", "media_split_exchange")
	viper.SetDefault("rabbitmq_kind", "direct")
	viper.SetDefault("upload.expiry", "15m")
	viper.SetDefault("upload.max_size", 10<<30)
	viper.SetDefault("download.expiry", "1h")
	viper.SetDefault("probe.timeout", "15s")
	viper.SetDefault("probe.binary", "ffprobe")
	viper.SetDefault("estimation.bytes_per_second", 1_000_000)
	viper.SetDefault("estimation.duration_floor", 1)
	viper.SetDefault("processing.stall_ceiling", "10m")
	viper.SetDefault("processing.watch_interval", "30s")

	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("postgres", viper.GetString("postgresql_host"))
	if err != nil {
		return nil, err
	}

	rabbitmq := &RabbitMQ{
		Host:         viper.GetString("rabbitmq_host"),
		Port:         viper.GetInt("rabbitmq_port"),
		User:         viper.GetString("rabbitmq_user"),
		Pass:         viper.GetString("rabbitmq_pass"),
		ExchangeName: viper.GetString("rabbitmq_exchange"),
		Kind:         viper.GetString("rabbitmq_kind"),
	}

	minioClient, err := minio.New(viper.GetString("minio.url"), &minio.Options{
		Creds:  credentials.NewStaticV4(viper.GetString("minio.access_id"), viper.GetString("minio.secret_access_key"), ""),
		Secure: viper.GetBool("minio.secure"),
	})
	if err != nil {
		return nil, err
	}

	return &Config{
		MinIOBucket: viper.GetString("minio.bucket"),
		App: App{
			Environment: viper.GetString("app.environment"),
			Host:        viper.GetString("app.host"),
			Protocol:    viper.GetString("app.protocol"),
		},
		Server: Server{
			HttpPort: viper.GetString("server.port"),
			Workers:  viper.GetInt("server.workers"),
		},
		Upload: Upload{
			Expiry:      viper.GetDuration("upload.expiry"),
			UseFormPost: viper.GetBool("upload.use_form_post"),
			MaxSize:     viper.GetInt64("upload.max_size"),
		},
		Download: Download{
			Expiry: viper.GetDuration("download.expiry"),
		},
		Probe: Probe{
			Timeout: viper.GetDuration("probe.timeout"),
			Binary:  viper.GetString("probe.binary"),
		},
		Estimation: Estimation{
			BytesPerSecond: viper.GetFloat64("estimation.bytes_per_second"),
			DurationFloor:  viper.GetFloat64("estimation.duration_floor"),
		},
		Processing: Processing{
			StallCeiling:  viper.GetDuration("processing.stall_ceiling"),
			WatchInterval: viper.GetDuration("processing.watch_interval"),
		},
		DB:      db,
		Queue:   rabbitmq,
		Storage: minioClient,
	}, nil
}
