package cmd

import (
	"context"
	"cpuvalue/cmd/cpuvalue/globals"
	"cpuvalue/internal/components/chrono"
	"cpuvalue/internal/components/telemetry"
	"cpuvalue/internal/config"
	"cpuvalue/internal/xmrig"
	"cpuvalue/pkg/serviceutil"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
	dumpHttp   string
	stateDir   string
)

var otelTelemetry telemetry.Telemetry

var rootCmd = &cobra.Command{
	Use:   "cpuvalue",
	Short: "cpuvalue ranks processors by XMRig hashrate per dollar using live marketplace prices.",

	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		telemetry.InitSlog(os.Stderr, verbose)

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		err = cfg.Override(config.Config{StateDir: stateDir})
		if err != nil {
			return err
		}

		otelTelemetry, err = telemetry.SetupFromEnv(cmd.Context(), "cpuvalue")
		if err != nil {
			slog.Warn("failed to setup otel, continuing without it", "err", err)
		}
		if otelTelemetry.Enabled() {
			telemetry.InstrumentPerfStats(cmd.Context())
		}

		tel := telemetry.SlogAPI{}
		value := &globals.Value{
			Config: cfg,
			Tel:    tel,
			Clock:  chrono.NewStandardImpl(),
		}
		if dumpHttp != "" {
			output, err := telemetry.NewFilesystemOutput(dumpHttp, tel)
			if err != nil {
				return err
			}
			value.HttpOutput = output
		}
		value.Xmrig = xmrig.NewClient(xmrig.ClientOptions{
			BaseUrl:    cfg.XmrigUrl,
			HttpOutput: value.HttpOutput,
		}, tel)

		cmd.SetContext(globals.Set(cmd.Context(), value))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "path of the json5 configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug output")
	rootCmd.PersistentFlags().StringVar(&dumpHttp, "dump-http", "", "write every http exchange into this directory")
	rootCmd.PersistentFlags().StringVar(&stateDir, "state-dir", "", "directory of the checkpoint and results files")
}

func Execute() {
	ctx, cancel := serviceutil.SignalContext()
	err := rootCmd.ExecuteContext(ctx)
	cancel()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), time.Second*5)
	defer cancelShutdown()
	if shutdownErr := otelTelemetry.Shutdown(shutdownCtx); shutdownErr != nil {
		slog.Warn("failed to flush telemetry", "err", shutdownErr)
	}

	code := serviceutil.ExitCode(err)
	if err != nil && code == serviceutil.EXIT_FATAL {
		slog.Error("fatal", "err", err.Error())
	} else if err != nil {
		var exitErr *serviceutil.ExitError
		if errors.As(err, &exitErr) && exitErr.Err != nil {
			slog.Warn(exitErr.Err.Error())
		}
	}
	os.Exit(code)
}
