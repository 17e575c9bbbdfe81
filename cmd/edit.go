package cmd

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	pilotErrors "github.com/tamahere/sops-pilot/internal/errors"
	"github.com/tamahere/sops-pilot/internal/sops"
	"github.com/tamahere/sops-pilot/internal/transform"
	"github.com/tamahere/sops-pilot/internal/ui"
)

var editDetach bool
var editEditor string

var editCmd = &cobra.Command{
	Use:   "edit FILE",
	Short: "Decrypts a sops file to a working copy, edits it, and re-encrypts on save",
	Long: `Decrypts FILE to a colocated working copy and opens your editor on it.
Every save of the working copy re-encrypts the original in place behind a
backup, so a failed re-encryption never corrupts it. When the editor
exits the working copy is removed.

With --detach the working copy is left on disk for you to edit and
re-encrypt yourself.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := initRun(); err != nil {
			return err
		}
		Logger.Infof("Starting edit command")

		originalPath, err := filepath.Abs(args[0])
		if err != nil {
			return Logger.ErrorfAndReturn("failed to resolve path: %v", err)
		}

		content, err := os.ReadFile(originalPath)
		if err != nil {
			return Logger.ErrorfAndReturn("failed to read %s: %v", originalPath, err)
		}
		if !sops.LooksEncrypted(content) {
			return Logger.ErrorfAndReturn("%v: %s does not look like sops output (hint: run %s first)",
				pilotErrors.ErrNotEncrypted, originalPath, ui.Code.Sprint("sops-pilot encrypt"))
		}

		tool := sops.New(userConfig.SopsBinary, Logger)
		if err := tool.CheckAvailable(); err != nil {
			return Logger.ErrorfAndReturn("%v", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		workingPath, err := transform.DecryptToTemp(ctx, tool, originalPath, userConfig.WorkingSuffix)
		if err != nil {
			return Logger.ErrorfAndReturn("failed to decrypt: %v", err)
		}
		Logger.Infof("Decrypted %s to %s", originalPath, workingPath)

		if editDetach {
			os.Stdout.WriteString(ui.Success.Sprint("✓") + " Decrypted to " + ui.Path.Sprint(workingPath) + "\n" +
				ui.Info.Sprint("→") + " Delete the working copy when you are done\n")
			return nil
		}
		defer func() {
			if err := transform.RemoveWorkingCopy(workingPath); err != nil {
				Logger.WarnfAlways("%v", err)
			}
		}()

		resealDone, err := watchAndReseal(ctx, tool, workingPath, originalPath)
		if err != nil {
			return Logger.ErrorfAndReturn("failed to watch working copy: %v", err)
		}

		if err := runEditor(ctx, workingPath); err != nil {
			return Logger.ErrorfAndReturn("editor failed: %v", err)
		}

		// The editor has exited; stop the watcher and do one final reseal
		// so the last save always lands even if its event was coalesced.
		stop()
		<-resealDone
		if err := reseal(context.Background(), tool, workingPath, originalPath); err != nil {
			return reportResealError(err, originalPath)
		}

		os.Stdout.WriteString(ui.Success.Sprint("✓") + " Re-encrypted " + ui.Path.Sprint(originalPath) + "\n")
		return nil
	},
}

func init() {
	AddCommonFlags(editCmd)
	editCmd.Flags().BoolVar(&editDetach, "detach", false, "leave the decrypted working copy on disk and exit")
	editCmd.Flags().StringVar(&editEditor, "editor", "", "editor command to run (default: $VISUAL, $EDITOR, then vi)")
}

// watchAndReseal re-encrypts the original whenever the working copy is
// written. Editors save through renames as often as plain writes, so the
// watch covers the directory and filters by name, and a short trailing
// debounce coalesces the bursts editors produce.
func watchAndReseal(ctx context.Context, tool sops.Tool, workingPath, originalPath string) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(workingPath)); err != nil {
		watcher.Close()
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer watcher.Close()

		var timer *time.Timer
		pending := make(chan struct{}, 1)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != workingPath || !event.Op.Has(fsnotify.Write|fsnotify.Create) {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(200*time.Millisecond, func() {
					select {
					case pending <- struct{}{}:
					default:
					}
				})
			case <-pending:
				if err := reseal(ctx, tool, workingPath, originalPath); err != nil {
					_ = reportResealError(err, originalPath)
				} else {
					Logger.Infof("Re-encrypted %s", originalPath)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				Logger.Warnf("Watcher error: %v", err)
			}
		}
	}()

	return done, nil
}

// reseal re-encrypts the original from the working copy's current content.
func reseal(ctx context.Context, tool sops.Tool, workingPath, originalPath string) error {
	content, err := os.ReadFile(workingPath)
	if err != nil {
		return err
	}
	return transform.EncryptAndReplace(ctx, tool, content, originalPath)
}

// reportResealError prints a re-encryption failure, escalating the
// critical case where the backup restore itself failed.
func reportResealError(err error, originalPath string) error {
	if errors.Is(err, pilotErrors.ErrRestoreFailed) {
		Logger.WarnfAlways("CRITICAL: %s may be left in plaintext: %v", originalPath, err)
		return err
	}
	os.Stderr.WriteString(color.RedString("✗") + " Failed to re-encrypt " + ui.Path.Sprint(originalPath) + "\n" +
		color.RedString("Error: ") + err.Error() + "\n" +
		ui.Info.Sprint("→") + " Your edits are still in the working copy\n")
	return err
}

// runEditor launches the user's editor on path and waits for it to exit.
func runEditor(ctx context.Context, path string) error {
	editor := editEditor
	if editor == "" {
		editor = userConfig.Editor
	}
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}

	Logger.Debugf("Launching editor: %s %s", editor, path)
	cmd := exec.CommandContext(ctx, editor, path)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
