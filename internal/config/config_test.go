package config

import (
	"reflect"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "STORE_DRIVER", "REDIS_ADDR", "KAFKA_BROKERS", "RESTOCK_ON_CANCEL", "SHUTDOWN_TIMEOUT"} {
		t.Setenv(k, "")
	}
	cfg := Load()

	if cfg.HTTPAddr != ":8082" {
		t.Fatalf("HTTPAddr=%q", cfg.HTTPAddr)
	}
	if cfg.StoreDriver != DriverPostgres {
		t.Fatalf("StoreDriver=%q", cfg.StoreDriver)
	}
	if cfg.RestockOnCancel {
		t.Fatalf("restock on cancel must default to off")
	}
	if len(cfg.KafkaBrokers) != 0 {
		t.Fatalf("brokers=%v", cfg.KafkaBrokers)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Fatalf("ShutdownTimeout=%s", cfg.ShutdownTimeout)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Memory")
	t.Setenv("KAFKA_BROKERS", "k1:9092, ,k2:9092")
	t.Setenv("RESTOCK_ON_CANCEL", "true")
	t.Setenv("SHUTDOWN_TIMEOUT", "12s")
	cfg := Load()

	if cfg.StoreDriver != DriverMemory {
		t.Fatalf("StoreDriver=%q", cfg.StoreDriver)
	}
	if !reflect.DeepEqual(cfg.KafkaBrokers, []string{"k1:9092", "k2:9092"}) {
		t.Fatalf("brokers=%v", cfg.KafkaBrokers)
	}
	if !cfg.RestockOnCancel {
		t.Fatalf("RestockOnCancel not parsed")
	}
	if cfg.ShutdownTimeout != 12*time.Second {
		t.Fatalf("ShutdownTimeout=%s", cfg.ShutdownTimeout)
	}
}
