package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/patchkit/pkg/patchkit/config"
	"github.com/jamesainslie/patchkit/pkg/patchkit/history"
	"github.com/jamesainslie/patchkit/pkg/patchkit/manifest"
	"github.com/jamesainslie/patchkit/pkg/patchkit/output"
	"github.com/jamesainslie/patchkit/pkg/patchkit/packager"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Diff two manifests and stage a patch package",
	Long: `Generate compares the current manifest against the previous one, stages
every changed or added file into the staging directory, and records deleted
paths in the persistent deletion ledger. With --compress, the staging
directory is packaged into an archive and removed.

When either manifest is missing or unreadable the run is skipped: a first
build has no previous snapshot to diff against.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().String("current", "", "current manifest file (default: <work-dir>/Manifest.txt)")
	generateCmd.Flags().String("previous", "", "previous manifest file (default: <work-dir>/Manifest.previous.txt)")
	generateCmd.Flags().StringP("source", "s", "", "root of the built tree the manifests describe (default: work dir)")
	generateCmd.Flags().BoolP("compress", "c", false, "archive the staging directory and remove it")
	generateCmd.Flags().Bool("dedupe-ledger", false, "drop superseded ledger records for re-deleted paths")

	_ = viper.BindPFlag("current_manifest", generateCmd.Flags().Lookup("current"))
	_ = viper.BindPFlag("previous_manifest", generateCmd.Flags().Lookup("previous"))
	_ = viper.BindPFlag("source_root", generateCmd.Flags().Lookup("source"))
	_ = viper.BindPFlag("compress", generateCmd.Flags().Lookup("compress"))
	_ = viper.BindPFlag("ledger.dedupe", generateCmd.Flags().Lookup("dedupe-ledger"))

	rootCmd.AddCommand(generateCmd)
}

// generatePaths resolves the manifest and source paths for a generate run
// from the effective configuration. Manifest names are taken relative to the
// work directory unless absolute; an unset source root falls back to the
// work directory itself.
func generatePaths() (workDir, current, previous, sourceRoot string) {
	workDir = viper.GetString("work_dir")
	if workDir == "" {
		workDir = "."
	}

	current = manifestPath(viper.GetString("current_manifest"), config.DefaultCurrentManifest, workDir)
	previous = manifestPath(viper.GetString("previous_manifest"), config.DefaultPreviousManifest, workDir)

	sourceRoot = viper.GetString("source_root")
	if sourceRoot == "" {
		sourceRoot = workDir
	}
	return workDir, current, previous, sourceRoot
}

// manifestPath resolves a configured manifest name against the work
// directory. Absolute paths are used as-is.
func manifestPath(name, fallback, workDir string) string {
	if name == "" {
		name = fallback
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(workDir, name)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	workDir, current, previous, sourceRoot := generatePaths()

	logger, closer, err := newLogger("generate")
	if err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	defer func() { _ = closer.Close() }()

	fp, err := newFingerprint()
	if err != nil {
		return err
	}

	pkg := packager.New(manifest.NewFileStore(), fp, packager.WithLogger(logger))
	result, err := pkg.Generate(packager.Options{
		CurrentManifest:  current,
		PreviousManifest: previous,
		SourceRoot:       sourceRoot,
		WorkDir:          workDir,
		Compress:         viper.GetBool("compress"),
		DedupeLedger:     viper.GetBool("ledger.dedupe"),
	})
	if err != nil {
		return fmt.Errorf("generate patch: %w", err)
	}

	recordRun(history.Record{
		Operation:    history.OpGenerate,
		FilesStaged:  result.FilesStaged,
		FilesDeleted: result.FilesDeleted,
		BytesStaged:  result.BytesStaged,
		Elapsed:      result.Elapsed,
	})

	return printResult(&output.Result{
		Operation:    "generate",
		Skipped:      result.Skipped,
		FilesStaged:  result.FilesStaged,
		BytesStaged:  result.BytesStaged,
		FilesDeleted: result.FilesDeleted,
		ArchivePath:  result.ArchivePath,
		Elapsed:      result.Elapsed,
	})
}
