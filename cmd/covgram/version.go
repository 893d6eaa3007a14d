package main

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"

	"covgram/internal/version"
)

type versionInfo struct {
	Version    string
	GitCommit  string
	GitMessage string
	BuildDate  string
	GoVersion  string
	Deps       []depInfo
}

type depInfo struct {
	Path    string `json:"path"`
	Version string `json:"version"`
}

type versionOptions struct {
	format      string
	showHash    bool
	showMessage bool
	showDate    bool
	showDeps    bool
}

type versionPayload struct {
	Tool       string    `json:"tool"`
	Version    string    `json:"version"`
	GoVersion  string    `json:"go_version"`
	GitCommit  string    `json:"git_commit,omitempty"`
	GitMessage string    `json:"git_message,omitempty"`
	BuildDate  string    `json:"build_date,omitempty"`
	Deps       []depInfo `json:"deps,omitempty"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show covgram build information",
	RunE:  runVersion,
}

func init() {
	f := versionCmd.Flags()
	f.Bool("hash", false, "include git commit hash")
	f.Bool("message", false, "include git commit message")
	f.Bool("date", false, "include build timestamp")
	f.Bool("deps", false, "list linked module dependencies")
	f.Bool("full", false, "show all recorded build metadata")
	f.String("format", "pretty", "output format (pretty|json)")
}

func runVersion(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	full, _ := flags.GetBool("full")
	hash, _ := flags.GetBool("hash")
	message, _ := flags.GetBool("message")
	date, _ := flags.GetBool("date")
	deps, _ := flags.GetBool("deps")
	format, _ := flags.GetString("format")

	opts := versionOptions{
		format:      strings.ToLower(format),
		showHash:    hash || full,
		showMessage: message || full,
		showDate:    date || full,
		showDeps:    deps || full,
	}
	if opts.format != "pretty" && opts.format != "json" {
		return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	}

	bi, _ := debug.ReadBuildInfo()
	info := collectVersionInfo(bi)
	if opts.format == "json" {
		return renderVersionJSON(cmd.OutOrStdout(), info, opts)
	}
	renderVersionPretty(cmd.OutOrStdout(), info, opts)
	return nil
}

// collectVersionInfo prefers link-time metadata and falls back to what the
// Go toolchain stamped into the binary.
func collectVersionInfo(bi *debug.BuildInfo) versionInfo {
	info := versionInfo{
		Version:    strings.TrimSpace(version.Version),
		GitCommit:  strings.TrimSpace(version.GitCommit),
		GitMessage: strings.TrimSpace(version.GitMessage),
		BuildDate:  strings.TrimSpace(version.BuildDate),
		GoVersion:  runtime.Version(),
	}
	if info.Version == "" {
		info.Version = "dev"
	}
	if bi == nil {
		return info
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.GitCommit == "" {
				info.GitCommit = s.Value
			}
		case "vcs.time":
			if info.BuildDate == "" {
				info.BuildDate = s.Value
			}
		}
	}
	for _, dep := range bi.Deps {
		d := dep
		if d.Replace != nil {
			d = d.Replace
		}
		info.Deps = append(info.Deps, depInfo{Path: d.Path, Version: d.Version})
	}
	return info
}

func renderVersionPretty(out io.Writer, info versionInfo, opts versionOptions) {
	v := info.Version
	if v == version.Version {
		v = version.Pretty()
	}
	fmt.Fprintf(out, "covgram %s (%s)\n", v, info.GoVersion)
	if opts.showHash {
		fmt.Fprintf(out, "commit:  %s\n", valueOrUnknown(info.GitCommit))
	}
	if opts.showMessage {
		fmt.Fprintf(out, "message: %s\n", valueOrUnknown(info.GitMessage))
	}
	if opts.showDate {
		fmt.Fprintf(out, "built:   %s\n", valueOrUnknown(info.BuildDate))
	}
	if opts.showDeps && len(info.Deps) > 0 {
		table := newTable(out, []string{"MODULE", "VERSION"})
		for _, d := range info.Deps {
			table.Append([]string{d.Path, d.Version})
		}
		table.Render()
	}
}

func renderVersionJSON(out io.Writer, info versionInfo, opts versionOptions) error {
	payload := versionPayload{
		Tool:      "covgram",
		Version:   info.Version,
		GoVersion: info.GoVersion,
	}
	if opts.showHash {
		payload.GitCommit = valueOrUnknown(info.GitCommit)
	}
	if opts.showMessage {
		payload.GitMessage = valueOrUnknown(info.GitMessage)
	}
	if opts.showDate {
		payload.BuildDate = valueOrUnknown(info.BuildDate)
	}
	if opts.showDeps {
		payload.Deps = info.Deps
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func valueOrUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
