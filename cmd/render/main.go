// Command render writes every page of a content tree to static HTML, for
// previewing a bundle before it is published or for hosting without the
// server. Without the slideshow endpoint, hero slideshows advance on a
// timer in the page script at the rendered interval.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/keithlinneman/linnemanlabs-sections/internal/cfg"
	v "github.com/keithlinneman/linnemanlabs-sections/internal/version"
)

// envPrefix scopes render flags so they do not collide with the server's.
const envPrefix = cfg.EnvPrefix + "RENDER_"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := defaultOptions()
	var envFile string

	cmd := &cobra.Command{
		Use:           "render",
		Short:         "Render a content tree to static HTML",
		Version:       v.Get().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := cfg.LoadEnvFile(envFile); err != nil {
				return err
			}
			return fillFromEnv(cmd.Flags(), envPrefix)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := run(cmd.Context(), opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rendered %d pages and %d assets to %s (content %s)\n",
				res.Pages, res.Assets, opts.OutDir, res.ContentHash)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&envFile, "env-file", ".env", "optional KEY=VALUE file loaded before "+envPrefix+"* lookup")
	f.StringVar(&opts.ContentDir, "content-dir", "", "content directory (empty renders the embedded seed)")
	f.StringVarP(&opts.OutDir, "out", "o", opts.OutDir, "output directory")
	f.DurationVar(&opts.SlideshowInterval, "slideshow-interval", opts.SlideshowInterval, "advance period of exported hero slideshows")
	f.BoolVar(&opts.CopyStatic, "static", opts.CopyStatic, "copy stylesheet and script under static/")
	f.BoolVar(&opts.CopyPublic, "public", opts.CopyPublic, "copy the content tree's public/ assets")

	return cmd
}

// fillFromEnv sets flags not given on the command line from PREFIX_FLAG_NAME.
func fillFromEnv(fs *pflag.FlagSet, prefix string) error {
	var firstErr error
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Changed || firstErr != nil {
			return
		}
		key := cfg.EnvKey(prefix, f.Name)
		val, ok := os.LookupEnv(key)
		if !ok {
			return
		}
		if err := fs.Set(f.Name, val); err != nil {
			firstErr = fmt.Errorf("env %s=%q: %w", key, val, err)
		}
	})
	return firstErr
}
