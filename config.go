package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	bind            string
	port            int
	publicURL       string
	maxPlayers      int
	roomIdleTimeout time.Duration
	tokenExpire     time.Duration
	verbose         bool
}

func (c *Config) validate() error {
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.maxPlayers < 1 {
		return fmt.Errorf("invalid max-players (must be >= 1): %d", c.maxPlayers)
	}
	return nil
}

func (c *Config) listenAddr() string {
	return fmt.Sprintf("%s:%d", c.bind, c.port)
}

// joinBaseURL is the base address embedded in join links and QR codes.
func (c *Config) joinBaseURL() string {
	if c.publicURL != "" {
		return c.publicURL
	}
	return fmt.Sprintf("http://localhost:%d", c.port)
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("QUIZBUZZ")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "quizbuzz",
		Short:         "A real-time multiplayer quiz-show session coordinator with a race-to-buzz core.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: QUIZBUZZ_BIND)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: QUIZBUZZ_PORT)")
	fs.StringVar(&cfg.publicURL, "public-url", "", "externally reachable base URL for join links (env: QUIZBUZZ_PUBLIC_URL)")
	fs.IntVar(&cfg.maxPlayers, "max-players", 3, "default room capacity for new rooms (env: QUIZBUZZ_MAX_PLAYERS)")
	fs.DurationVar(&cfg.roomIdleTimeout, "room-idle-timeout", 0, "time before idle rooms are expired, 0 to keep rooms forever (env: QUIZBUZZ_ROOM_IDLE_TIMEOUT)")
	fs.DurationVar(&cfg.tokenExpire, "token-expire", 0, "identity token lifetime, 0 for no expiry (env: QUIZBUZZ_TOKEN_EXPIRE)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: QUIZBUZZ_VERBOSE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("quizbuzz v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
