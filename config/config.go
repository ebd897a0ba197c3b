package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del job de backfill.
type Config struct {
	Backfill BackfillConfig `yaml:"backfill"`
	Storage  StorageConfig  `yaml:"storage"`
	Log      LogConfig      `yaml:"log"`
}

// BackfillConfig controla el motor de pricing y el orquestador.
type BackfillConfig struct {
	BatchSize          int       `yaml:"batch_size"`
	KellyFraction      float64   `yaml:"kelly_fraction"`        // multiplicador fraccional sobre el Kelly pleno
	KalshiTakerFeeRate float64   `yaml:"kalshi_taker_fee_rate"` // taker fee de Kalshi
	EdgeThresholds     []float64 `yaml:"edge_thresholds"`       // cortes de los 4 flags, en %
	ProbabilityDP      int       `yaml:"probability_decimals"`  // precisión de prob/EV/Kelly
	EdgeDP             int       `yaml:"edge_decimals"`         // precisión del edge %
	SampleSize         int       `yaml:"sample_size"`           // muestra de verificación final
	ErrorLogLimit      int       `yaml:"error_log_limit"`       // errores por-fila logueados antes de silenciar
}

// StorageConfig selecciona el record store.
type StorageConfig struct {
	Driver string `yaml:"driver"` // sqlite | postgres
	DSN    string `yaml:"dsn"`    // ruta SQLite o connection string de Postgres
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el .env si existe.
// Un archivo ausente no es error: los defaults bastan para arrancar contra
// SQLite local, y en producción DATABASE_URL apunta al Postgres real.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// seguir con defaults
	case err != nil:
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Storage.Driver = "postgres"
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Backfill.BatchSize <= 0 {
		cfg.Backfill.BatchSize = 500
	}
	if cfg.Backfill.KellyFraction <= 0 {
		cfg.Backfill.KellyFraction = 0.5
	}
	if cfg.Backfill.KalshiTakerFeeRate <= 0 {
		cfg.Backfill.KalshiTakerFeeRate = 0.07
	}
	if len(cfg.Backfill.EdgeThresholds) == 0 {
		cfg.Backfill.EdgeThresholds = []float64{5, 8, 10, 15}
	}
	if cfg.Backfill.ProbabilityDP <= 0 {
		cfg.Backfill.ProbabilityDP = 4
	}
	if cfg.Backfill.EdgeDP <= 0 {
		cfg.Backfill.EdgeDP = 2
	}
	if cfg.Backfill.SampleSize <= 0 {
		cfg.Backfill.SampleSize = 10
	}
	if cfg.Backfill.ErrorLogLimit <= 0 {
		cfg.Backfill.ErrorLogLimit = 5
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "sqlite"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "weatheredge.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

// validate rechaza combinaciones que producirían un run sin sentido.
func validate(cfg *Config) error {
	if cfg.Storage.Driver != "sqlite" && cfg.Storage.Driver != "postgres" {
		return fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
	if len(cfg.Backfill.EdgeThresholds) != 4 {
		return fmt.Errorf("edge_thresholds needs exactly 4 cut points, got %d", len(cfg.Backfill.EdgeThresholds))
	}
	if cfg.Backfill.KellyFraction > 1 {
		return fmt.Errorf("kelly_fraction %v > 1 defeats the point of fractional Kelly", cfg.Backfill.KellyFraction)
	}
	return nil
}
