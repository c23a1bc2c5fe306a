package config

import (
	"flag"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Env         string            `yaml:"env" env-default:"local"`
	DSN         string            `yaml:"dsn" env:"DSN" env-required:"true"`
	Token       TokenConfig       `yaml:"token"`
	HTTP        HTTPConfig        `yaml:"http"`
	FileStorage FileStorageConfig `yaml:"file_storage"`
	Redis       RedisConf         `yaml:"redis"`
	Admin       AdminConfig       `yaml:"admin"`
}

type TokenConfig struct {
	Secret     string        `yaml:"secret" env:"TOKEN_SECRET" env-required:"true"`
	AccessTTL  time.Duration `yaml:"access_ttl" env-default:"15m"`
	RefreshTTL time.Duration `yaml:"refresh_ttl" env-default:"168h"`
}

type HTTPConfig struct {
	Host       string `yaml:"host"`
	Port       string `yaml:"port" env-default:"8080"`
	SessionKey string `yaml:"session_key" env:"SESSION_KEY" env-default:"portfolio-session"`
}

type FileStorageConfig struct {
	BaseDir string `yaml:"base_dir" env-default:"./uploads"`
	BaseURL string `yaml:"base_url" env-default:"http://localhost:8080/uploads"`
	MaxSize int64  `yaml:"max_size" env-default:"10485760"`
}

type RedisConf struct {
	RedisAddr     string `yaml:"redis_addr" env-default:"localhost:6379"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
}

// AdminConfig is the single allow-listed administrative identity. The email
// is the stable identifier the authorization predicate compares against.
type AdminConfig struct {
	Email    string `yaml:"email" env:"ADMIN_EMAIL" env-required:"true"`
	Name     string `yaml:"name" env-default:"Admin"`
	Password string `yaml:"password" env:"ADMIN_PASSWORD" env-required:"true"`
}

func MustLoad() *Config {
	path := fetchConfigPath()
	if path == "" {
		panic("config path is empty")
	}

	return MustLoadPath(path)
}

func MustLoadPath(configPath string) *Config {
	// check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("cannot read config: " + err.Error())
	}

	return &cfg
}

func fetchConfigPath() string {
	var res string

	// --config="path/to/config.yaml"
	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	// .env values feed the env overrides cleanenv applies on top of yaml
	_ = godotenv.Load()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	return res
}
