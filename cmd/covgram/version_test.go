package main

import (
	"bytes"
	"encoding/json"
	"runtime/debug"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestCollectVersionInfoFallsBackToBuildInfo(t *testing.T) {
	bi := &debug.BuildInfo{
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "abc123"},
			{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
		},
		Deps: []*debug.Module{
			{Path: "github.com/spf13/cobra", Version: "v1.10.1"},
			{Path: "example.com/old", Version: "v1.0.0", Replace: &debug.Module{Path: "example.com/new", Version: "v2.0.0"}},
		},
	}
	info := collectVersionInfo(bi)
	if info.GitCommit != "abc123" || info.BuildDate != "2026-01-02T03:04:05Z" {
		t.Fatalf("build info not used: %+v", info)
	}
	if len(info.Deps) != 2 || info.Deps[1].Path != "example.com/new" {
		t.Fatalf("unexpected deps: %+v", info.Deps)
	}
}

func TestRenderVersion(t *testing.T) {
	color.NoColor = true
	info := collectVersionInfo(nil)
	info.Deps = []depInfo{{Path: "github.com/fatih/color", Version: "v1.18.0"}}

	var buf bytes.Buffer
	renderVersionPretty(&buf, info, versionOptions{showHash: true, showDeps: true})
	out := buf.String()
	if !strings.HasPrefix(out, "covgram "+info.Version) {
		t.Fatalf("unexpected header:\n%s", out)
	}
	if !strings.Contains(out, "commit:  unknown") || !strings.Contains(out, "github.com/fatih/color") {
		t.Fatalf("missing details:\n%s", out)
	}

	buf.Reset()
	if err := renderVersionJSON(&buf, info, versionOptions{}); err != nil {
		t.Fatal(err)
	}
	var payload versionPayload
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Tool != "covgram" || payload.GitCommit != "" || payload.Deps != nil {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}
