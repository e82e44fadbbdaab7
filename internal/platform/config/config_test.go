package config

import (
	"errors"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(
		WithEnvFile(""),
		WithoutSystemEnv(),
		WithEnvMap(map[string]string{
			"JANSEVA_FIRESTORE_PROJECT_ID": "janseva-test",
		}),
	)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Fatalf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Fatalf("expected default read timeout, got %s", cfg.Server.ReadTimeout)
	}
	if cfg.Actions.TopicID != "sigm-backend-actions" {
		t.Fatalf("expected default actions topic, got %s", cfg.Actions.TopicID)
	}
	if !cfg.Actions.Enabled {
		t.Fatal("expected actions enabled by default")
	}
	if cfg.Security.Environment != "local" {
		t.Fatalf("expected local environment, got %s", cfg.Security.Environment)
	}
}

func TestLoadFirestoreProjectFallsBackToFirebase(t *testing.T) {
	cfg, err := Load(
		WithEnvFile(""),
		WithoutSystemEnv(),
		WithEnvMap(map[string]string{
			"JANSEVA_FIREBASE_PROJECT_ID": "janseva-prod",
		}),
	)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Firestore.ProjectID != "janseva-prod" {
		t.Fatalf("expected firestore project from firebase, got %s", cfg.Firestore.ProjectID)
	}
}

func TestLoadMissingProjectID(t *testing.T) {
	_, err := Load(WithEnvFile(""), WithoutSystemEnv())
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	fields := validation.Fields()
	if len(fields) == 0 || fields[0] != "Firestore.ProjectID" {
		t.Fatalf("expected Firestore.ProjectID missing, got %v", fields)
	}
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load(
		WithEnvFile(""),
		WithoutSystemEnv(),
		WithEnvMap(map[string]string{
			"JANSEVA_FIRESTORE_PROJECT_ID":    "janseva-test",
			"JANSEVA_SERVER_PORT":             "9090",
			"JANSEVA_SERVER_READ_TIMEOUT":     "5s",
			"JANSEVA_ACTIONS_ENABLED":         "false",
			"JANSEVA_FIRESTORE_EMULATOR_HOST": "localhost:9091",
		}),
	)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Fatalf("expected overridden port, got %s", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Fatalf("expected overridden read timeout, got %s", cfg.Server.ReadTimeout)
	}
	if cfg.Actions.Enabled {
		t.Fatal("expected actions disabled")
	}
	if cfg.Firestore.EmulatorHost != "localhost:9091" {
		t.Fatalf("expected emulator host, got %s", cfg.Firestore.EmulatorHost)
	}
}
