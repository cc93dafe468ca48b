package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/jrsteele09/postureiq-client/sessions"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const loginTimeout = 5 * time.Minute

type callbackResult struct {
	state string
	code  string
	err   error
}

func newLoginCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Sign in through the browser",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), loginTimeout)
			defer cancel()

			c, err := newClient(ctx, opts.cfg)
			if err != nil {
				return err
			}
			defer c.Close()

			redirect, err := url.Parse(opts.cfg.GetRedirectURL())
			if err != nil {
				return fmt.Errorf("invalid redirect url: %w", err)
			}
			results := make(chan callbackResult, 1)
			server, err := listenForCallback(redirect, results)
			if err != nil {
				return err
			}
			defer shutdown(server)

			authURL, _, err := c.provider.LoginURL(opts.cfg.GetHomePath())
			if err != nil {
				return err
			}
			pterm.Info.Println("Open this URL in your browser to sign in:")
			pterm.Println(authURL)

			var res callbackResult
			select {
			case res = <-results:
			case <-ctx.Done():
				return errors.New("timed out waiting for the browser sign in")
			}
			if res.err != nil {
				return res.err
			}

			session, _, err := c.provider.Exchange(ctx, res.state, res.code)
			if err != nil {
				return err
			}
			printSession(session)
			if opts.printMetrics {
				return c.printMetrics()
			}
			return nil
		},
	}
}

func listenForCallback(redirect *url.URL, results chan<- callbackResult) (*http.Server, error) {
	ln, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", redirect.Host, err)
	}

	path := redirect.Path
	if path == "" {
		path = "/"
	}
	mux := http.NewServeMux()
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		if errorParam := r.FormValue("error"); errorParam != "" {
			http.Error(w, "Authorization failed", http.StatusBadRequest)
			deliver(results, callbackResult{err: fmt.Errorf("authorization failed: %s - %s", errorParam, r.FormValue("error_description"))})
			return
		}
		state, code := r.FormValue("state"), r.FormValue("code")
		if state == "" || code == "" {
			http.Error(w, "Missing code or state parameter", http.StatusBadRequest)
			return
		}
		fmt.Fprintln(w, "Signed in. You can close this window.")
		deliver(results, callbackResult{state: state, code: code})
	})

	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Err(err).Msg("callback server stopped")
		}
	}()
	return server, nil
}

// deliver keeps only the first callback.
func deliver(results chan<- callbackResult, res callbackResult) {
	select {
	case results <- res:
	default:
	}
}

func shutdown(server *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("callback server shutdown")
	}
}

func printSession(s *sessions.Session) {
	pterm.Success.Printf("Signed in as %s\n", s.UserID)
	if s.Email != "" {
		pterm.Info.Printf("Email: %s\n", s.Email)
	}
	if !s.ExpiresAt.IsZero() {
		pterm.Info.Printf("Session expires at: %s\n", s.ExpiresAt.Format(time.RFC1123))
	}
}
