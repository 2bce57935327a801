package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/heivi/rtl-433/internal/config"
	"github.com/heivi/rtl-433/internal/device"
	"github.com/heivi/rtl-433/internal/metrics"
	"github.com/heivi/rtl-433/internal/sink"
	"github.com/heivi/rtl-433/pkg/rtl433"
)

var (
	rootCmd = &cobra.Command{
		Use:   "rtl433-analyze [codes...]",
		Short: "Decode demodulated bit captures from 433/868 MHz devices",
		Long: "rtl433-analyze decodes demodulated captures in rtl_433 codes form\n" +
			"({bits}hex rows) with the registered device decoders and publishes\n" +
			"the decoded events as JSON.",
		Args: cobra.ArbitraryArgs,
		RunE: run,
	}

	flags struct {
		configPath  string
		device      string
		output      string
		metricsAddr string
		mqttBroker  string
		mqttTopic   string
		mqttUser    string
		mqttPass    string
		logLevel    string
		logFile     string
		list        bool
	}
)

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&flags.configPath, "config", "", "path to a YAML configuration file")
	f.StringVar(&flags.device, "device", "", "restrict decoding to one device (see --list)")
	f.StringVar(&flags.output, "output", "", "append decoded events to an NDJSON file")
	f.StringVar(&flags.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	f.StringVar(&flags.mqttBroker, "mqtt-broker", "", "publish decoded events to this MQTT broker")
	f.StringVar(&flags.mqttTopic, "mqtt-topic", "", "MQTT topic for decoded events")
	f.StringVar(&flags.mqttUser, "mqtt-username", "", "MQTT username")
	f.StringVar(&flags.mqttPass, "mqtt-password", "", "MQTT password")
	f.StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	f.StringVar(&flags.logFile, "log-file", "", "also log to this rotating file")
	f.BoolVar(&flags.list, "list", false, "list registered device decoders and exit")
}

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		stop() // second interrupt falls through to default handling
	}()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logrus.Fatal(err)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := setupLogging(cfg); err != nil {
		return err
	}

	if flags.list {
		for _, d := range device.All() {
			fmt.Println(d.Name())
		}
		return nil
	}

	ctx := cmd.Context()
	if cfg.MetricsAddr != "" {
		go func() {
			err := metrics.Serve(ctx, cfg.MetricsAddr)
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				logrus.WithError(err).Error("metrics server stopped")
			}
		}()
	}

	out, err := buildSinks(cfg)
	if err != nil {
		return err
	}
	defer out.Close()

	opts := rtl433.AnalyzeOptions{Device: cfg.Device}
	if len(args) == 0 {
		return runInteractive(ctx, opts, out, os.Stdin)
	}
	for _, codes := range args {
		if err := analyze(ctx, opts, out, codes); err != nil {
			return err
		}
	}
	return nil
}

func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if flags.configPath != "" {
		loaded, err := config.Load(flags.configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	if flags.device != "" {
		cfg.Device = flags.device
	}
	if flags.output != "" {
		cfg.Output = flags.output
	}
	if flags.metricsAddr != "" {
		cfg.MetricsAddr = flags.metricsAddr
	}
	if flags.mqttBroker != "" {
		cfg.MQTT.Broker = flags.mqttBroker
	}
	if flags.mqttTopic != "" {
		cfg.MQTT.Topic = flags.mqttTopic
	}
	if flags.mqttUser != "" {
		cfg.MQTT.Username = flags.mqttUser
	}
	if flags.mqttPass != "" {
		cfg.MQTT.Password = flags.mqttPass
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
	if flags.logFile != "" {
		cfg.Logs.File = flags.logFile
	}
	return cfg, nil
}

func setupLogging(cfg config.Config) error {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	logrus.SetLevel(level)
	if cfg.Logs.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.Logs.File,
			MaxSize:    cfg.Logs.MaxSizeMB,
			MaxAge:     cfg.Logs.MaxAgeDays,
			MaxBackups: cfg.Logs.MaxBackups,
			Compress:   cfg.Logs.Compress,
		}
		logrus.SetOutput(io.MultiWriter(os.Stderr, rotator))
	}
	return nil
}

// counted wraps a sink with a per-sink delivery failure counter.
type counted struct {
	sink.Sink
	name string
}

func (c counted) Publish(ctx context.Context, event map[string]any) error {
	err := c.Sink.Publish(ctx, event)
	if err != nil {
		metrics.PublishErrors.WithLabelValues(c.name).Inc()
	}
	return err
}

func buildSinks(cfg config.Config) (sink.Multi, error) {
	sinks := sink.Multi{counted{sink.NewWriter(os.Stdout), "stdout"}}
	if cfg.Output != "" {
		f, err := sink.NewFile(cfg.Output)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, counted{f, "file"})
	}
	if cfg.MQTT.Broker != "" {
		m, err := sink.NewMQTT(sink.MQTTConfig{
			Broker:   cfg.MQTT.Broker,
			Topic:    cfg.MQTT.Topic,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
			QoS:      cfg.MQTT.QoS,
			Retain:   cfg.MQTT.Retain,
		})
		if err != nil {
			sinks.Close()
			return nil, err
		}
		sinks = append(sinks, counted{m, "mqtt"})
	}
	return sinks, nil
}

func runInteractive(ctx context.Context, opts rtl433.AnalyzeOptions, out sink.Sink, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	logrus.Info("rtl433 analyze mode. Paste a capture in codes form and press Enter (Ctrl+D to exit).")
	for ctx.Err() == nil {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := analyze(ctx, opts, out, line); err != nil {
			logrus.WithError(err).Error("failed to decode capture")
		}
	}
	return scanner.Err()
}

func analyze(ctx context.Context, opts rtl433.AnalyzeOptions, out sink.Sink, codes string) error {
	result, err := rtl433.AnalyzeWithOptions(ctx, codes, opts)
	if err != nil {
		if reason, ok := device.RejectionReason(err); ok {
			logrus.WithField("reason", reason.String()).Debug("no device decoded the capture")
			return nil
		}
		return err
	}
	if err := out.Publish(ctx, result.Fields); err != nil {
		logrus.WithError(err).Error("publish event")
	}
	return nil
}
