package main

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"veo-console/internal/config"
	"veo-console/internal/poller"
	"veo-console/internal/presentation"
	"veo-console/internal/validation"
	"veo-console/pkg/models"

	"github.com/spf13/cobra"
)

type submitOptions struct {
	prompt            string
	image             string
	images            []string
	first             string
	last              string
	video             string
	previousOperation string
	model             string
	aspectRatio       string
	resolution        string
	duration          int
	wait              bool
}

func newSubmitCommand(cfg *config.Config, root *rootOptions) *cobra.Command {
	opts := &submitOptions{}

	cmd := &cobra.Command{
		Use:       "submit <flow>",
		Short:     "Submit a generation job",
		Long:      "Submit a generation job. Flows: text_to_video, image_to_video, reference_images, first_last, extend.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: flowNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			flow, ok := models.ParseFlow(args[0])
			if !ok {
				return fmt.Errorf("unknown flow %q", args[0])
			}

			form, err := opts.form(flow)
			if err != nil {
				return err
			}

			validator := validation.NewAPIValidator(nil)
			if result := validator.ValidateGenerationForm(form); !result.Valid {
				return result
			}

			client := root.client(cfg)
			ctx := cmd.Context()

			submitted, err := client.Submit(ctx, form)
			if err != nil {
				return err
			}
			if submitted.OperationName == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "Job submitted, but the backend returned no operation name")
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), submitted.OperationName)
			if !opts.wait {
				return nil
			}
			return waitForJob(ctx, cmd.OutOrStdout(), poller.NewPool(client, cfg.PollInterval, root.logger()), submitted.OperationName)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.prompt, "prompt", "p", "", "text prompt")
	flags.StringVar(&opts.image, "image", "", "input image (image_to_video)")
	flags.StringSliceVar(&opts.images, "images", nil, "reference images, up to 3 (reference_images)")
	flags.StringVar(&opts.first, "first", "", "first frame (first_last)")
	flags.StringVar(&opts.last, "last", "", "last frame (first_last)")
	flags.StringVar(&opts.video, "video", "", "base video (extend)")
	flags.StringVar(&opts.previousOperation, "previous-operation", "", "previous operation name (extend)")
	flags.StringVar(&opts.model, "model", "", "fast-preview or quality-preview")
	flags.StringVar(&opts.aspectRatio, "aspect-ratio", "", "16:9 or 9:16")
	flags.StringVar(&opts.resolution, "resolution", "", "1080p or 720p")
	flags.IntVar(&opts.duration, "duration", 0, "duration in seconds (4, 6, 8)")
	flags.BoolVarP(&opts.wait, "wait", "w", false, "poll until the job completes or fails")

	return cmd
}

// form construit le formulaire à partir des flags; les fichiers ne sont
// ouverts qu'à l'envoi.
func (o *submitOptions) form(flow models.Flow) (*models.GenerationForm, error) {
	form := &models.GenerationForm{
		Flow:                  flow,
		Prompt:                o.prompt,
		PreviousOperationName: o.previousOperation,
		Settings: models.Settings{
			Model:           models.Model(o.model),
			AspectRatio:     models.AspectRatio(o.aspectRatio),
			Resolution:      models.Resolution(o.resolution),
			DurationSeconds: o.duration,
		},
	}

	var err error
	if form.Image, err = localUpload(models.FieldImage, o.image); err != nil {
		return nil, err
	}
	if form.FirstFrame, err = localUpload(models.FieldFirstFrame, o.first); err != nil {
		return nil, err
	}
	if form.LastFrame, err = localUpload(models.FieldLastFrame, o.last); err != nil {
		return nil, err
	}
	if form.BaseVideo, err = localUpload(models.FieldBaseVideo, o.video); err != nil {
		return nil, err
	}
	for _, path := range o.images {
		upload, err := localUpload(models.FieldImages, path)
		if err != nil {
			return nil, err
		}
		if upload != nil {
			form.Images = append(form.Images, upload)
		}
	}

	return form, nil
}

// localUpload décrit un fichier local. Un chemin vide donne nil.
func localUpload(field, path string) (*models.Upload, error) {
	if path == "" {
		return nil, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", field, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s: %s is a directory", field, path)
	}

	return &models.Upload{
		Field:       field,
		Filename:    validation.SanitizeFilename(filepath.Base(path)),
		ContentType: mime.TypeByExtension(filepath.Ext(path)),
		Size:        info.Size(),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// waitForJob suit un job jusqu'à un statut terminal ou une interruption
func waitForJob(ctx context.Context, out io.Writer, pool *poller.Pool, operation string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	statuses := make(chan models.JobStatus, 4)
	handle, err := pool.Start(poller.Key{JobID: operation}, models.StatusQueued, func(status models.JobStatus) bool {
		statuses <- status
		return true
	})
	if err != nil {
		return err
	}
	defer pool.StopAll()

	started := time.Now()
	report := func(status models.JobStatus) (bool, error) {
		display := presentation.DisplayFor(status)
		fmt.Fprintf(out, "%s %s (%s)\n", display.Label, operation, time.Since(started).Round(time.Second))
		switch status {
		case models.StatusFailed:
			return true, fmt.Errorf("generation failed")
		case models.StatusCompleted:
			fmt.Fprintf(out, "download with: veoctl download %s\n", operation)
			return true, nil
		}
		return false, nil
	}

	for {
		select {
		case status := <-statuses:
			if finished, err := report(status); finished {
				return err
			}
		case <-handle.Done():
			// le statut terminal peut encore attendre dans le canal
			for {
				select {
				case status := <-statuses:
					if finished, err := report(status); finished {
						return err
					}
				default:
					return fmt.Errorf("polling stopped before the job finished")
				}
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func flowNames() []string {
	names := make([]string, 0, len(models.Flows))
	for _, f := range models.Flows {
		names = append(names, string(f))
	}
	return names
}
