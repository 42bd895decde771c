package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sosbeacon/server/internal/client"
	"github.com/sosbeacon/server/internal/validation"
)

const defaultServer = "http://localhost:8080"

// options shared by every subcommand
type options struct {
	server    string
	statePath string
	verbose   bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "sosctl",
		Short:         "Emergency assistance client",
		Long:          "sosctl saves an emergency contact, raises SOS alerts and uploads recordings against the emergency API.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.server, "server", envOr("SOS_SERVER", defaultServer),
		"Base URL of the emergency API (env SOS_SERVER)")
	rootCmd.PersistentFlags().StringVar(&opts.statePath, "state", defaultStatePath(),
		"File that keeps the saved contact between runs")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log client activity to stderr")

	rootCmd.AddCommand(newContactCmd(opts))
	rootCmd.AddCommand(newSOSCmd(opts))
	rootCmd.AddCommand(newVideoCmd(opts))
	return rootCmd
}

func newContactCmd(opts *options) *cobra.Command {
	var countryCode string

	cmd := &cobra.Command{
		Use:   "contact <phone-number>",
		Short: "Save the phone number used for SOS alerts",
		Example: "  sosctl contact 5551234567\n" +
			"  sosctl contact --country-code +44 \"(555) 123-4567\"",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, alerts, err := opts.controller(cmd, client.StaticGeolocator{}, nil)
			if err != nil {
				return err
			}
			defer ctrl.Close()

			err = ctrl.SaveContact(cmd.Context(), validation.PhonePayload{
				CountryCode: countryCode,
				PhoneNumber: args[0],
			})
			printAlert(cmd.OutOrStdout(), alerts)
			return err
		},
	}
	cmd.Flags().StringVarP(&countryCode, "country-code", "c", validation.DefaultDialCode,
		fmt.Sprintf("Dialing code, one of %v", validation.DialCodes))
	return cmd
}

func newSOSCmd(opts *options) *cobra.Command {
	var lat, lon float64

	cmd := &cobra.Command{
		Use:   "sos",
		Short: "Send an SOS alert with the current location",
		Example: "  sosctl sos --lat 37.7749 --lon -122.4194",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			geo := client.StaticGeolocator{}
			if cmd.Flags().Changed("lat") && cmd.Flags().Changed("lon") {
				geo.Position = &client.Position{Latitude: lat, Longitude: lon}
			}

			ctrl, alerts, err := opts.controller(cmd, geo, nil)
			if err != nil {
				return err
			}
			defer ctrl.Close()

			fmt.Fprintln(cmd.OutOrStdout(), "Sending Alert...")
			err = ctrl.TriggerSOS(cmd.Context())
			printAlert(cmd.OutOrStdout(), alerts)
			return err
		},
	}
	cmd.Flags().Float64Var(&lat, "lat", 0, "Latitude of the current position")
	cmd.Flags().Float64Var(&lon, "lon", 0, "Longitude of the current position")
	return cmd
}

func newVideoCmd(opts *options) *cobra.Command {
	var source, out string
	var duration time.Duration

	cmd := &cobra.Command{
		Use:   "video",
		Short: "Record from a media source and upload the recording",
		Long: "video reads the media source as a stand-in camera until it ends or --duration elapses, " +
			"then uploads the recording metadata.",
		Example: "  sosctl video --source clip.webm --out recording.webm",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			media := client.FileMediaDevices{Path: source}
			ctrl, alerts, err := opts.controller(cmd, client.StaticGeolocator{}, media)
			if err != nil {
				return err
			}
			defer ctrl.Close()

			if err := ctrl.StartRecording(cmd.Context()); err != nil {
				printAlert(cmd.OutOrStdout(), alerts)
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ctrl.Status())

			var timeout <-chan time.Time
			if duration > 0 {
				timeout = time.After(duration)
			}
			select {
			case <-ctrl.CaptureEnded():
			case <-timeout:
			case <-cmd.Context().Done():
			}

			rec, err := ctrl.StopRecording()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d bytes, %s)\n", ctrl.Status(), len(rec.Data), rec.MimeType)

			if out != "" {
				if err := os.WriteFile(out, rec.Data, 0o600); err != nil {
					return fmt.Errorf("write recording: %w", err)
				}
			}

			err = ctrl.UploadVideo(cmd.Context())
			printAlert(cmd.OutOrStdout(), alerts)
			return err
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "Media file used as the camera")
	cmd.Flags().StringVar(&out, "out", "", "Write the recording to this file for playback")
	cmd.Flags().DurationVar(&duration, "duration", 0, "Stop recording after this long (default: when the source ends)")
	_ = cmd.MarkFlagRequired("source")
	return cmd
}

// controller builds a client controller for one command run
func (o *options) controller(cmd *cobra.Command, geo client.Geolocator, media client.MediaDevices) (*client.Controller, *client.AlertSurface, error) {
	logger := zap.NewNop()
	if o.verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			return nil, nil, fmt.Errorf("create logger: %w", err)
		}
		logger = l
	}
	if media == nil {
		media = client.FileMediaDevices{}
	}

	alerts := client.NewAlertSurface(client.AlertDuration, nil)
	api := client.NewAPI(o.server, nil)
	cache := client.FileContactCache{Path: o.statePath}
	return client.NewController(api, alerts, geo, media, cache, logger.Named("sosctl")), alerts, nil
}

func printAlert(w io.Writer, alerts *client.AlertSurface) {
	if a, ok := alerts.Current(); ok {
		fmt.Fprintf(w, "[%s] %s\n", a.Severity, a.Message)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "sosctl", "contact.json")
}
