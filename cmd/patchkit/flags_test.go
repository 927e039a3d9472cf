package main

import (
	"path/filepath"
	"testing"

	"github.com/spf13/viper"

	"github.com/jamesainslie/patchkit/pkg/patchkit/types"
)

func TestGeneratePaths(t *testing.T) {
	tests := []struct {
		name           string
		setup          func()
		wantWorkDir    string
		wantCurrent    string
		wantPrevious   string
		wantSourceRoot string
	}{
		{
			name:           "all defaults",
			setup:          func() { viper.Reset() },
			wantWorkDir:    ".",
			wantCurrent:    filepath.Join(".", "Manifest.txt"),
			wantPrevious:   filepath.Join(".", "Manifest.previous.txt"),
			wantSourceRoot: ".",
		},
		{
			name: "work dir set",
			setup: func() {
				viper.Reset()
				viper.Set("work_dir", "/build")
			},
			wantWorkDir:    "/build",
			wantCurrent:    filepath.Join("/build", "Manifest.txt"),
			wantPrevious:   filepath.Join("/build", "Manifest.previous.txt"),
			wantSourceRoot: "/build",
		},
		{
			name: "relative manifest names resolve against work dir",
			setup: func() {
				viper.Reset()
				viper.Set("work_dir", "/build")
				viper.Set("current_manifest", "Manifest.txt")
				viper.Set("previous_manifest", "old/Manifest.txt")
			},
			wantWorkDir:    "/build",
			wantCurrent:    filepath.Join("/build", "Manifest.txt"),
			wantPrevious:   filepath.Join("/build", "old", "Manifest.txt"),
			wantSourceRoot: "/build",
		},
		{
			name: "explicit manifests and source",
			setup: func() {
				viper.Reset()
				viper.Set("work_dir", "/build")
				viper.Set("current_manifest", "/m/cur.txt")
				viper.Set("previous_manifest", "/m/prev.txt")
				viper.Set("source_root", "/src")
			},
			wantWorkDir:    "/build",
			wantCurrent:    "/m/cur.txt",
			wantPrevious:   "/m/prev.txt",
			wantSourceRoot: "/src",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			workDir, current, previous, sourceRoot := generatePaths()
			if workDir != tt.wantWorkDir {
				t.Errorf("generatePaths() workDir = %q, want %q", workDir, tt.wantWorkDir)
			}
			if current != tt.wantCurrent {
				t.Errorf("generatePaths() current = %q, want %q", current, tt.wantCurrent)
			}
			if previous != tt.wantPrevious {
				t.Errorf("generatePaths() previous = %q, want %q", previous, tt.wantPrevious)
			}
			if sourceRoot != tt.wantSourceRoot {
				t.Errorf("generatePaths() sourceRoot = %q, want %q", sourceRoot, tt.wantSourceRoot)
			}
		})
	}
}

func TestReconcileManifestPath(t *testing.T) {
	tests := []struct {
		name    string
		setup   func()
		mode    types.Mode
		workDir string
		want    string
	}{
		{
			name:    "ledger-only defaults to the deletion ledger",
			setup:   func() { viper.Reset() },
			mode:    types.ModeLedgerOnly,
			workDir: "/build",
			want:    filepath.Join("/build", "DeletedManifest.txt"),
		},
		{
			name:    "full-scan defaults to the current manifest",
			setup:   func() { viper.Reset() },
			mode:    types.ModeFullScan,
			workDir: "/build",
			want:    filepath.Join("/build", "Manifest.txt"),
		},
		{
			name: "full-scan honors configured current manifest",
			setup: func() {
				viper.Reset()
				viper.Set("current_manifest", "/m/cur.txt")
			},
			mode:    types.ModeFullScan,
			workDir: "/build",
			want:    "/m/cur.txt",
		},
		{
			name: "explicit manifest wins for any mode",
			setup: func() {
				viper.Reset()
				viper.Set("reconcile_manifest", "/m/explicit.txt")
			},
			mode:    types.ModeLedgerOnly,
			workDir: "/build",
			want:    "/m/explicit.txt",
		},
		{
			name:    "disabled mode needs no manifest",
			setup:   func() { viper.Reset() },
			mode:    types.ModeDisabled,
			workDir: "/build",
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			got := reconcileManifestPath(tt.mode, tt.workDir)
			if got != tt.want {
				t.Errorf("reconcileManifestPath() = %q, want %q", got, tt.want)
			}
		})
	}
}
