// Package signup parses signup command flags and submits one form to the
// hosted backend function.
package signup

import (
	"context"
	"flag"
	"fmt"
	"io"
	"time"

	entrypoint "github.com/louisbranch/offlinecache/internal/platform/cmd"
	signupclient "github.com/louisbranch/offlinecache/internal/services/signup/client"
	"github.com/louisbranch/offlinecache/internal/services/signup/domain"
	"github.com/louisbranch/offlinecache/internal/services/signup/render"
)

// Config holds signup command configuration.
type Config struct {
	Endpoint string        `env:"OFFLINECACHE_SIGNUP_ENDPOINT" envDefault:"https://app.example.com/.netlify/functions/signup"`
	Timeout  time.Duration `env:"OFFLINECACHE_SIGNUP_TIMEOUT" envDefault:"10s"`
	Locale   string        `env:"OFFLINECACHE_SIGNUP_LOCALE" envDefault:"en"`

	Form domain.Form
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Endpoint, "endpoint", cfg.Endpoint, "The signup backend function URL")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Backend request timeout")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "Locale for printed messages (en, pt-BR)")
	fs.StringVar(&cfg.Form.CompanyName, "company", "", "Company name")
	fs.StringVar(&cfg.Form.FullName, "name", "", "Full name")
	fs.StringVar(&cfg.Form.Email, "email", "", "Email address")
	fs.StringVar(&cfg.Form.Password, "password", "", "Password")
	fs.StringVar(&cfg.Form.ConfirmPassword, "confirm-password", "", "Password confirmation")
	fs.StringVar(&cfg.Form.PlanName, "plan", "", "Plan name")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run submits the configured form and prints the localized outcome to out.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceSignup, func(ctx context.Context) error {
		client := signupclient.New(signupclient.Config{Endpoint: cfg.Endpoint, Timeout: cfg.Timeout})
		_, err := client.Submit(ctx, cfg.Form)
		fmt.Fprintln(out, render.Message(render.Printer(cfg.Locale), err))
		if err != nil {
			if signupclient.Retryable(err) {
				return fmt.Errorf("submit signup (retryable): %w", err)
			}
			return fmt.Errorf("submit signup: %w", err)
		}
		return nil
	})
}
