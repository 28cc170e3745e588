package params

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Market struct {
	Symbol string
	// PriceScale: decimal digits of the price minor unit (2 = cents).
	PriceScale int32
	MinQty     int64
	MaxQty     int64
}

type Sinks struct {
	// JournalDir: where the pebble trade journal lives. Empty disables it.
	JournalDir string
	// KafkaBrokers: empty disables trade broadcasting.
	KafkaBrokers []string
	KafkaTopic   string
}

type Config struct {
	Market  Market
	Sinks   Sinks
	LogFile string
	Verbose bool
}

func Default() Config {
	return Config{
		Market: Market{
			Symbol:     "SIM-USD",
			PriceScale: 2,
			MinQty:     1,
			MaxQty:     1_000_000,
		},
		Sinks: Sinks{
			JournalDir: "", // off unless configured
			KafkaTopic: "marketsim.trades",
		},
	}
}

// LoadFromEnv loads configuration from .env file (if exists) and environment variables
// Priority: ENV > .env file > defaults
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	// Try to load .env file (optional - won't fail if not exists)
	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load() // loads .env from current directory
	}

	if v := os.Getenv("SIM_SYMBOL"); v != "" {
		cfg.Market.Symbol = v
	}
	if v := os.Getenv("SIM_PRICE_SCALE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Market.PriceScale = int32(n)
		}
	}
	if v := os.Getenv("SIM_MIN_QTY"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Market.MinQty = n
		}
	}
	if v := os.Getenv("SIM_MAX_QTY"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Market.MaxQty = n
		}
	}

	if v := os.Getenv("SIM_JOURNAL_DIR"); v != "" {
		cfg.Sinks.JournalDir = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		// Example: "localhost:9092,localhost:9093"
		cfg.Sinks.KafkaBrokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		cfg.Sinks.KafkaTopic = v
	}

	cfg.LogFile = os.Getenv("LOG_FILE")
	cfg.Verbose = os.Getenv("VERBOSE") == "true"

	return cfg
}
