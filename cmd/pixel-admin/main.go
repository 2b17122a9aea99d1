package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"golang.org/x/text/language"

	"pixel-admin/internal/archive"
	"pixel-admin/internal/client"
	"pixel-admin/internal/config"
	"pixel-admin/internal/deleter"
	"pixel-admin/internal/journal"
	"pixel-admin/internal/listing"
	"pixel-admin/internal/logging"
)

var (
	configFile string
	jsonOutput bool

	v   = config.New()
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "pixel-admin",
	Short:         "Administer provisioned tracking pixels",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(v, configFile)
		if err != nil {
			return err
		}
		cfg = c
		// The TUI owns the terminal and sets up its own logger.
		if cmd.Name() == tuiCmd.Name() || cmd == cmd.Root() {
			return nil
		}
		return logging.Console(cfg.LogLevel)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			return cmd.Help()
		}
		return runTUI(cmd.Context())
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file (default $HOME/.pixel-admin.yaml)")
	pf.String("api-url", "", "admin API base URL")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.BoolVar(&jsonOutput, "json", false, "output as JSON")
	_ = v.BindPFlag("api_url", pf.Lookup("api-url"))
	_ = v.BindPFlag("log_level", pf.Lookup("log-level"))

	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(bulkDeleteCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(journalCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newClient builds the backend client from cfg.
func newClient() *client.HTTPClient {
	opts := []client.Option{client.WithTimeout(cfg.Timeout)}
	if cfg.APIToken != "" {
		opts = append(opts, client.WithToken(cfg.APIToken))
	}
	return client.NewHTTPClient(cfg.APIURL, opts...)
}

// newSink returns the configured export destinations: the local directory,
// plus S3 when a bucket is set.
func newSink(ctx context.Context) (archive.Sink, error) {
	dir := archive.DirSink{Dir: cfg.ExportDir, Compress: cfg.ExportCompress}
	if cfg.S3Bucket == "" {
		return dir, nil
	}
	s3, err := archive.NewS3Sink(ctx, cfg.S3Bucket, cfg.S3Prefix, cfg.S3Region, cfg.S3Endpoint)
	if err != nil {
		return nil, err
	}
	return archive.Multi{dir, s3}, nil
}

// openJournal returns nil when the journal is disabled.
func openJournal() (*journal.Store, error) {
	if cfg.JournalPath == "" {
		return nil, nil
	}
	return journal.New(cfg.JournalPath)
}

// session is everything a deletion needs, wired from cfg.
type session struct {
	client  *client.HTTPClient
	store   *listing.Store
	ctrl    *deleter.Controller
	journal *journal.Store
}

func newSession(ctx context.Context) (*session, error) {
	sink, err := newSink(ctx)
	if err != nil {
		return nil, err
	}
	j, err := openJournal()
	if err != nil {
		return nil, err
	}
	opts := deleter.Options{Sink: sink}
	if j != nil {
		opts.Recorder = j
	}
	c := newClient()
	store := listing.NewStore()
	return &session{
		client:  c,
		store:   store,
		ctrl:    deleter.New(c, store, opts),
		journal: j,
	}, nil
}

func (s *session) Close() {
	if s.journal != nil {
		if err := s.journal.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close journal")
		}
	}
}

func locale() language.Tag {
	tag, err := language.Parse(cfg.Locale)
	if err != nil {
		log.Warn().Str("locale", cfg.Locale).Msg("unknown locale, using English")
		return language.English
	}
	return tag
}

func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", prompt)
	var answer string
	if _, err := fmt.Fscanln(in, &answer); err != nil {
		return false
	}
	return answer == "y" || answer == "Y" || answer == "yes"
}
