package password

import (
	"os"
	"testing"
)

var envKeys = []string{
	"PLANNER_PASSWORD_MIN_LEN",
	"PLANNER_PASSWORD_MAX_LEN",
	"PLANNER_PASSWORD_REJECT_VERY_WEAK",
	"PLANNER_ARGON2_MEMORY_KIB",
	"PLANNER_ARGON2_ITERATIONS",
	"PLANNER_ARGON2_PARALLELISM",
	"PLANNER_ARGON2_SALT_LEN",
	"PLANNER_ARGON2_KEY_LEN",
	"PLANNER_HASH_WORKERS",
}

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range envKeys {
		// Setenv registers the restore; Unsetenv makes the key absent for FromEnv.
		t.Setenv(k, "")
		_ = os.Unsetenv(k)
	}

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv error: %v", err)
	}

	def := DefaultConfig()
	if cfg != def {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestFromEnv_Override(t *testing.T) {
	t.Setenv("PLANNER_PASSWORD_MIN_LEN", "10")
	t.Setenv("PLANNER_PASSWORD_MAX_LEN", "200")
	t.Setenv("PLANNER_PASSWORD_REJECT_VERY_WEAK", "YES")
	t.Setenv("PLANNER_ARGON2_MEMORY_KIB", "32768")
	t.Setenv("PLANNER_ARGON2_ITERATIONS", "4")
	t.Setenv("PLANNER_ARGON2_PARALLELISM", "2")
	t.Setenv("PLANNER_ARGON2_SALT_LEN", "24")
	t.Setenv("PLANNER_ARGON2_KEY_LEN", "32")
	t.Setenv("PLANNER_HASH_WORKERS", "6")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv error: %v", err)
	}

	if cfg.Policy.MinLength != 10 || cfg.Policy.MaxLength != 200 || !cfg.Policy.RejectVeryWeak {
		t.Fatalf("policy override failed: %+v", cfg.Policy)
	}
	if cfg.Params.MemoryKiB != 32768 || cfg.Params.Iterations != 4 || cfg.Params.Parallelism != 2 {
		t.Fatalf("argon2 override failed: %+v", cfg.Params)
	}
	if cfg.Params.SaltLength != 24 || cfg.Params.KeyLength != 32 {
		t.Fatalf("len override failed: %+v", cfg.Params)
	}
	if cfg.Workers != 6 {
		t.Fatalf("workers override failed: %d", cfg.Workers)
	}
}

func TestFromEnv_Rejects(t *testing.T) {
	cases := map[string]string{
		"PLANNER_PASSWORD_MIN_LEN":          "zero",
		"PLANNER_ARGON2_MEMORY_KIB":         "16",
		"PLANNER_ARGON2_PARALLELISM":        "65",
		"PLANNER_PASSWORD_REJECT_VERY_WEAK": "maybe",
		"PLANNER_HASH_WORKERS":              "0",
	}
	for k, v := range cases {
		t.Run(k, func(t *testing.T) {
			t.Setenv(k, v)
			if _, err := FromEnv(); err == nil {
				t.Fatalf("expected error for %s=%q", k, v)
			}
		})
	}
}

func TestFromEnv_InvalidMinMax(t *testing.T) {
	t.Setenv("PLANNER_PASSWORD_MIN_LEN", "20")
	t.Setenv("PLANNER_PASSWORD_MAX_LEN", "10")

	_, err := FromEnv()
	if err == nil {
		t.Fatalf("expected error")
	}
}
