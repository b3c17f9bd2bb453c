package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"bitwise74/bucket-panel/pkg/uploader"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"
)

func NewUploadCommand() *cobra.Command {
	var (
		prefix        string
		yes           bool
		textThreshold string
	)

	cmd := &cobra.Command{
		Use:   "upload <files...>",
		Short: "Upload files straight to the bucket",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			threshold, err := humanize.ParseBytes(textThreshold)
			if err != nil {
				return fmt.Errorf("invalid --text-threshold: %w", err)
			}

			c, err := client()
			if err != nil {
				return err
			}

			files := make([]uploader.File, 0, len(args))
			for _, p := range args {
				f, err := localFile(p)
				if err != nil {
					return err
				}

				files = append(files, f)
			}

			out := cmd.OutOrStdout()
			th := uploader.DefaultThresholds()
			th[uploader.Text] = int64(threshold)

			var (
				mu      sync.Mutex
				failed  int
				printed = map[string]int{}
			)

			u := uploader.New(cmd.Context(), c, uploader.Options{
				Thresholds: th,
				OnProgress: func(i uploader.Item) {
					mu.Lock()
					defer mu.Unlock()

					// One line per quarter
					q := i.Progress / 25
					if q <= printed[i.ID] {
						return
					}

					printed[i.ID] = q
					fmt.Fprintf(out, "%s %d%%\n", i.FileName, i.Progress)
				},
				OnSettled: func(i uploader.Item) {
					mu.Lock()
					defer mu.Unlock()

					if i.State == uploader.Failed {
						failed++
						fmt.Fprintf(out, "FAIL %s: %s\n", i.FileName, i.Error)
						return
					}

					fmt.Fprintf(out, "OK   %s -> %s (%s)\n", i.FileName, i.Key, humanize.IBytes(uint64(i.Size)))
				},
			})

			for _, item := range u.Enqueue(files, prefix) {
				if item.State != uploader.AwaitingConfirmation {
					continue
				}

				if !yes {
					mu.Lock()
					fmt.Fprintf(out, "SKIP %s: %s (pass --yes to upload)\n", item.FileName, item.ConfirmationMessage)
					mu.Unlock()
					continue
				}

				if err := u.Confirm(item.ID); err != nil {
					return err
				}
			}

			u.Wait()

			if failed > 0 {
				return fmt.Errorf("%d of %d uploads failed", failed, len(files))
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", "", "folder to upload into")
	cmd.Flags().BoolVar(&yes, "yes", false, "upload large files without asking")
	cmd.Flags().StringVar(&textThreshold, "text-threshold", "10MiB", "size at which text files need --yes")

	return cmd
}

func localFile(p string) (uploader.File, error) {
	info, err := os.Stat(p)
	if err != nil {
		return uploader.File{}, err
	}

	if info.IsDir() {
		return uploader.File{}, fmt.Errorf("%s is a directory", p)
	}

	mime, err := mimetype.DetectFile(p)
	if err != nil {
		return uploader.File{}, fmt.Errorf("failed to detect type of %s, %w", p, err)
	}

	return uploader.File{
		Name:        filepath.Base(p),
		Size:        info.Size(),
		ContentType: mime.String(),
		Open: func() (io.ReadCloser, error) {
			return os.Open(p)
		},
	}, nil
}
