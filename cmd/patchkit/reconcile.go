package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/patchkit/pkg/patchkit/config"
	"github.com/jamesainslie/patchkit/pkg/patchkit/history"
	"github.com/jamesainslie/patchkit/pkg/patchkit/ledger"
	"github.com/jamesainslie/patchkit/pkg/patchkit/manifest"
	"github.com/jamesainslie/patchkit/pkg/patchkit/output"
	"github.com/jamesainslie/patchkit/pkg/patchkit/reconciler"
	"github.com/jamesainslie/patchkit/pkg/patchkit/types"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile [mode] [root]",
	Short: "Delete files a manifest does not account for",
	Long: `Reconcile walks a live directory tree and deletes files the manifest
does not account for, pruning directories left empty along the way.

Modes:
  disabled      No-op. Nothing is scanned or deleted.
  ledger-only   Delete only the paths recorded in the deletion ledger.
  full-scan     Enumerate every file under the root and delete any whose
                path, fingerprint, or size is absent from the manifest.

The root directory itself is never deleted, even when it ends up empty.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runReconcile,
}

func init() {
	reconcileCmd.Flags().String("manifest", "", "manifest or ledger file to reconcile against")

	_ = viper.BindPFlag("reconcile_manifest", reconcileCmd.Flags().Lookup("manifest"))

	rootCmd.AddCommand(reconcileCmd)
}

// reconcileManifestPath resolves the manifest to reconcile against. An
// explicit --manifest wins; otherwise ledger-only mode reads the deletion
// ledger and full-scan mode reads the current manifest, both from the work
// directory.
func reconcileManifestPath(mode types.Mode, workDir string) string {
	if p := viper.GetString("reconcile_manifest"); p != "" {
		return p
	}
	switch mode {
	case types.ModeLedgerOnly:
		return filepath.Join(workDir, ledger.FileName)
	case types.ModeFullScan:
		return manifestPath(viper.GetString("current_manifest"), config.DefaultCurrentManifest, workDir)
	default:
		return ""
	}
}

func runReconcile(cmd *cobra.Command, args []string) error {
	workDir := viper.GetString("work_dir")
	if workDir == "" {
		workDir = "."
	}

	modeName := viper.GetString("mode")
	if len(args) > 0 {
		modeName = args[0]
	}
	mode, err := types.ParseMode(modeName)
	if err != nil {
		return err
	}

	root := workDir
	if len(args) > 1 {
		root = args[1]
	}

	manifestPath := reconcileManifestPath(mode, workDir)

	logger, closer, err := newLogger("reconcile")
	if err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	defer func() { _ = closer.Close() }()

	fp, err := newFingerprint()
	if err != nil {
		return err
	}

	rec := reconciler.New(manifest.NewFileStore(), fp, reconciler.WithLogger(logger))
	result, err := rec.Reconcile(mode, manifestPath, root)
	if err != nil {
		return fmt.Errorf("reconcile tree: %w", err)
	}

	recordRun(history.Record{
		Operation:    history.OpReconcile,
		FilesDeleted: result.FilesDeleted,
		Elapsed:      result.Elapsed,
	})

	return printResult(&output.Result{
		Operation:    "reconcile",
		Mode:         mode.String(),
		Skipped:      result.Skipped,
		FilesScanned: result.FilesScanned,
		FilesDeleted: result.FilesDeleted,
		DirsPruned:   result.DirsPruned,
		Elapsed:      result.Elapsed,
	})
}
