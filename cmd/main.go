// Package main is the healthcare portal service entry point.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	grpcapi "healthcare-portal-service/internal/api/grpc"
	"healthcare-portal-service/internal/app"
	"healthcare-portal-service/internal/config"
	httpapi "healthcare-portal-service/internal/http"
	"healthcare-portal-service/internal/models"
	"healthcare-portal-service/internal/observability"
	"healthcare-portal-service/internal/observability/metrics"
	"healthcare-portal-service/internal/service/audio"
	"healthcare-portal-service/internal/service/meeting"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "portal",
		Short:        "Healthcare portal backend",
		SilenceUsage: true,
	}
	root.AddCommand(newServeCommand())
	root.AddCommand(newRoomsCommand())
	root.AddCommand(newTranslateCommand())
	root.AddCommand(newTranscribeCommand())
	return root
}

// startApp loads configuration and builds the application.
func startApp(ctx context.Context) (*app.Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	a := app.New(cfg)
	if err := a.Start(ctx); err != nil {
		a.Shutdown()
		return nil, err
	}
	return a, nil
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP, gRPC and metrics servers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(ctx context.Context) error {
	a, err := startApp(ctx)
	if err != nil {
		return err
	}
	defer a.Shutdown()
	cfg := a.Cfg

	obs := observability.NewServer(cfg.Service.MetricsAddr)
	obs.Start()

	lis, err := net.Listen("tcp", ":"+cfg.Service.GRPCPort)
	if err != nil {
		return fmt.Errorf("failed to listen on grpc port %s: %w", cfg.Service.GRPCPort, err)
	}
	grpcServer := grpcapi.New(metrics.DefaultMetrics)
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			log.Error().Err(err).Msg("gRPC server error")
		}
	}()

	httpServer := &http.Server{
		Addr:              ":" + cfg.Service.HTTPPort,
		Handler:           httpapi.NewRouter(a),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("HTTP server started")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server error")
		}
	}()

	grpcServer.SetServing(true)
	obs.SetReady(true)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-sig:
		log.Info().Str("signal", s.String()).Msg("Shutdown requested")
	case <-ctx.Done():
	}

	a.SetReady(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}
	grpcServer.Shutdown(shutdownCtx)
	if err := obs.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Observability server shutdown error")
	}
	return nil
}

func newRoomsCommand() *cobra.Command {
	var (
		role     string
		provider string
		name     string
		adHoc    bool
	)
	cmd := &cobra.Command{
		Use:   "rooms <appointment-id>",
		Short: "Print the meeting details for an appointment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			svc := meeting.NewService(meeting.Config{
				Provider:         cfg.Meeting.Provider,
				JitsiDomain:      cfg.Meeting.JitsiDomain,
				ZegoAppID:        cfg.Meeting.ZegoAppID,
				ZegoServerSecret: cfg.Meeting.ZegoServerSecret,
				ZegoBaseURL:      cfg.Meeting.ZegoBaseURL,
				LiveKitURL:       cfg.Meeting.LiveKitURL,
				LiveKitAPIKey:    cfg.Meeting.LiveKitAPIKey,
				LiveKitAPISecret: cfg.Meeting.LiveKitAPISecret,
				TokenTTL:         cfg.Meeting.TokenTTL,
			})
			mc := models.MeetingContext{
				AppointmentID: args[0],
				Role:          models.Role(role),
				DisplayName:   name,
				Provider:      provider,
			}
			describe := svc.Describe
			if adHoc {
				describe = svc.DescribeAdHoc
			}
			info, err := describe(mc)
			if err != nil {
				return err
			}
			return printJSON(cmd, info)
		},
	}
	cmd.Flags().StringVar(&role, "role", string(models.RolePatient), "Participant role (doctor or patient)")
	cmd.Flags().StringVar(&provider, "provider", "", "Meeting provider override (jitsi, zego, livekit)")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().BoolVar(&adHoc, "adhoc", false, "Use a timestamped ad-hoc room")
	return cmd
}

func newTranslateCommand() *cobra.Command {
	var target string
	cmd := &cobra.Command{
		Use:   "translate <text>",
		Short: "Translate text through the configured gateway",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := startApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Shutdown()

			out, err := a.Translator.Translate(cmd.Context(), args[0], target)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&target, "target", "t", "hi", "Target language code")
	return cmd
}

func newTranscribeCommand() *cobra.Command {
	var (
		meetingID string
		rate      int
		realtime  bool
	)
	cmd := &cobra.Command{
		Use:   "transcribe <file.wav>",
		Short: "Run the recording loop over an audio file and print the transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := startApp(ctx)
			if err != nil {
				return err
			}
			defer a.Shutdown()
			cfg := a.Cfg

			dev := audio.NewFileDevice(audio.FileConfig{
				Path:       args[0],
				SampleRate: rate,
				Realtime:   realtime,
			})
			out := cmd.OutOrStdout()
			opts := []audio.Option{
				audio.WithPublisher(a.Publisher),
				audio.WithFragmentHandler(func(ev models.TranscriptFragment, _ string) {
					fmt.Fprintf(out, "[%d] %s\n", ev.Seq, ev.Text)
				}),
			}
			if a.Transcripts != nil {
				opts = append(opts, audio.WithArchiver(a.Transcripts))
			}

			loop := audio.NewLoop(audio.Config{
				MeetingID:       meetingID,
				Room:            meeting.StableRoomName(meetingID),
				SegmentPeriod:   cfg.Capture.SegmentPeriod,
				UploadTimeout:   cfg.Transcription.Timeout,
				Sentinel:        cfg.Transcription.Sentinel,
				MaxSegmentBytes: cfg.Capture.MaxSegmentBytes,
				Ordered:         cfg.Capture.Ordered,
			}, dev, a.Transcriber, opts...)

			if err := loop.Run(ctx); err != nil {
				return err
			}
			// Print what was accepted before teardown; later uploads are ignored.
			fmt.Fprintln(out, loop.Transcript())
			loop.Wait()
			return nil
		},
	}
	cmd.Flags().StringVar(&meetingID, "meeting", "cli", "Meeting id the transcript belongs to")
	cmd.Flags().IntVar(&rate, "rate", 16000, "Sample rate for raw PCM input")
	cmd.Flags().BoolVar(&realtime, "realtime", true, "Replay audio at its own pace")
	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
