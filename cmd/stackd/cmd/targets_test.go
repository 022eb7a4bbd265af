package cmd

import (
	"os"
	"testing"
)

func TestParseBuildTarget(t *testing.T) {
	tests := []struct {
		in          string
		cluster     string
		stack       string
		expectError bool
	}{
		{"dev", "dev", "", false},
		{"dev:net", "dev", "net", false},
		{"dev:net:extra", "", "", true},
	}
	for _, tt := range tests {
		cluster, stack, err := parseBuildTarget(tt.in)
		if tt.expectError {
			if err == nil {
				t.Errorf("parseBuildTarget(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseBuildTarget(%q): unexpected error: %v", tt.in, err)
			continue
		}
		if cluster != tt.cluster || stack != tt.stack {
			t.Errorf("parseBuildTarget(%q) = (%q, %q), want (%q, %q)", tt.in, cluster, stack, tt.cluster, tt.stack)
		}
	}
}

func TestParseOpTarget(t *testing.T) {
	cluster, stack, operation, err := parseOpTarget("dev/net/apply")
	if err != nil {
		t.Fatalf("parseOpTarget: %v", err)
	}
	if cluster != "dev" || stack != "net" || operation != "apply" {
		t.Errorf("got (%q, %q, %q), want (dev, net, apply)", cluster, stack, operation)
	}
}

func TestParseOpTargetInvalid(t *testing.T) {
	_, _, _, err := parseOpTarget("dev/net")
	if err == nil {
		t.Fatal("expected error for target missing the operation segment")
	}
}

func TestProjectRootPrefersFlag(t *testing.T) {
	t.Setenv("STACKD_ROOT", "/from/env")
	got, err := projectRoot("/from/flag")
	if err != nil {
		t.Fatalf("projectRoot: %v", err)
	}
	if got != "/from/flag" {
		t.Errorf("projectRoot = %q, want /from/flag", got)
	}
}

func TestProjectRootFallsBackToEnv(t *testing.T) {
	t.Setenv("STACKD_ROOT", "/from/env")
	got, err := projectRoot("")
	if err != nil {
		t.Fatalf("projectRoot: %v", err)
	}
	if got != "/from/env" {
		t.Errorf("projectRoot = %q, want /from/env", got)
	}
}

func TestProjectRootFallsBackToCwd(t *testing.T) {
	os.Unsetenv("STACKD_ROOT")
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	got, err := projectRoot("")
	if err != nil {
		t.Fatalf("projectRoot: %v", err)
	}
	if got != wd {
		t.Errorf("projectRoot = %q, want %q", got, wd)
	}
}
