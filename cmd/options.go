package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	awsclient "tasnim.dev/iamsync/internal/aws"
	awsiam "tasnim.dev/iamsync/internal/aws/iam"
	"tasnim.dev/iamsync/internal/config"
	"tasnim.dev/iamsync/internal/metrics"
	"tasnim.dev/iamsync/internal/reconcile"
)

// Options holds the flags shared by every subcommand.
type Options struct {
	Profile         string
	Region          string
	ConfigPath      string
	Endpoint        string
	Debug           bool
	NormalizeNames  bool
	MetricsTextfile string
}

// AddFlags registers the shared flags as persistent flags on root.
func (o *Options) AddFlags(root *cobra.Command) {
	f := root.PersistentFlags()
	f.StringVarP(&o.Profile, "profile", "p", "", "AWS profile to use")
	f.StringVarP(&o.Region, "region", "r", "", "AWS region to use")
	f.StringVar(&o.ConfigPath, "config", "", "config file (default ~/.config/iamsync/config.yaml)")
	f.StringVar(&o.Endpoint, "endpoint", "", "custom IAM endpoint URL")
	f.BoolVar(&o.Debug, "debug", false, "enable debug logging")
	f.BoolVar(&o.NormalizeNames, "normalize-names", false, "replace underscores with hyphens in role and policy names")
	f.StringVar(&o.MetricsTextfile, "metrics-textfile", "", "write Prometheus metrics to this file on exit")
}

// name applies --normalize-names.
func (o *Options) name(s string) string {
	if o.NormalizeNames {
		return awsiam.NormalizeName(s)
	}
	return s
}

// session is everything a subcommand needs to talk to IAM.
type session struct {
	logger     *zap.Logger
	newClient  reconcile.ClientFactory
	reconciler *reconcile.Reconciler
	out        io.Writer
	metrics    string
}

func (o *Options) open(cmd *cobra.Command) (*session, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger, err := newLogger(o.Debug)
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}

	profile := cfg.Profile(o.Profile, o.Region, o.Endpoint)
	logger.Debug("profile resolved",
		zap.String("profile", profile.Name),
		zap.String("region", profile.Region),
		zap.String("endpoint", profile.Endpoint),
		zap.Duration("timeout", profile.Timeout),
	)

	factory := func(ctx context.Context) (*awsiam.Client, error) {
		return awsclient.NewIAMClient(ctx, profile, logger)
	}

	return &session{
		logger:    logger,
		newClient: factory,
		reconciler: reconcile.New(factory,
			reconcile.WithRetryPolicy(cfg.RetryPolicy()),
			reconcile.WithLogger(logger),
			reconcile.WithOutput(cmd.ErrOrStderr()),
		),
		out:     cmd.OutOrStdout(),
		metrics: o.MetricsTextfile,
	}, nil
}

func (o *Options) loadConfig() (*config.Config, error) {
	if o.ConfigPath != "" {
		return config.LoadFrom(o.ConfigPath)
	}
	return config.Load()
}

// close flushes the logger and dumps metrics when requested. err is the
// command's result; a metrics failure never masks it.
func (s *session) close(err error) error {
	_ = s.logger.Sync()
	if s.metrics == "" {
		return err
	}
	if werr := metrics.WriteTextfile(s.metrics); werr != nil {
		if err != nil {
			return err
		}
		return werr
	}
	return err
}

// newLogger logs to stderr: human-readable at debug level with --debug,
// JSON warnings and errors otherwise.
func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		logCfg := zap.NewDevelopmentConfig()
		logCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		return logCfg.Build()
	}

	logCfg := zap.NewProductionConfig()
	logCfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	logCfg.EncoderConfig.TimeKey = "timestamp"
	logCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logCfg.OutputPaths = []string{"stderr"}
	return logCfg.Build()
}
