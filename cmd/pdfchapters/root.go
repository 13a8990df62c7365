package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/thywilljoshua/pdf-chapters/internal/ai"
	"github.com/thywilljoshua/pdf-chapters/internal/config"
	"github.com/thywilljoshua/pdf-chapters/internal/credential"
	"github.com/thywilljoshua/pdf-chapters/internal/logging"
)

var version = "dev"

// rootOptions is shared by every subcommand once flags are parsed.
type rootOptions struct {
	v          *viper.Viper
	configFile string
}

func (rt *rootOptions) load() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(rt.v, rt.configFile)
	if err != nil {
		return nil, nil, err
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func newAnalyzer(cfg *config.Config, log *zap.Logger) *ai.Gemini {
	return ai.NewGemini(ai.Options{
		Model:       cfg.Gemini.Model,
		Language:    cfg.Gemini.Language,
		Temperature: &cfg.Gemini.Temperature,
		BaseURL:     cfg.Gemini.BaseURL,
		Logger:      log,
	})
}

func newFileStore(cfg *config.Config) *credential.FileStore {
	return credential.NewFileStore(cfg.Credential.Path)
}

func newRootCmd() *cobra.Command {
	rt := &rootOptions{v: viper.New()}

	root := &cobra.Command{
		Use:           "pdfchapters",
		Short:         "Summarize a PDF chapter by chapter with Gemini",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&rt.configFile, "config", "", "YAML config file")
	pf.String("log-level", "info", "log level: debug|info|warn|error")
	pf.String("log-format", "console", "log format: console|json")
	pf.String("credential-file", "", "where the API key is stored (default: user config dir)")
	pf.String("model", ai.DefaultModel, "Gemini model")
	pf.String("language", ai.DefaultLanguage, "language the summary is written in")
	bind(rt.v, pf.Lookup("log-level"), "log.level")
	bind(rt.v, pf.Lookup("log-format"), "log.format")
	bind(rt.v, pf.Lookup("credential-file"), "credential.path")
	bind(rt.v, pf.Lookup("model"), "gemini.model")
	bind(rt.v, pf.Lookup("language"), "gemini.language")

	root.AddCommand(serveCmd(rt))
	root.AddCommand(analyzeCmd(rt))
	root.AddCommand(keyCmd(rt))
	root.AddCommand(versionCmd())
	return root
}

// bind ties a flag to a config key. The flag only wins when set explicitly.
func bind(v *viper.Viper, f *pflag.Flag, key string) {
	if err := v.BindPFlag(key, f); err != nil {
		panic(err)
	}
}
