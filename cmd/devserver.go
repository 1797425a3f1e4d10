package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/lingo/internal/fakeapi"
)

var devserverCmd = &cobra.Command{
	Use:    "devserver",
	Short:  "Serve an in-memory backend with a sample course",
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		email, _ := cmd.Flags().GetString("user")
		password, _ := cmd.Flags().GetString("password")
		premium, _ := cmd.Flags().GetBool("premium")

		logger, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		defer logger.Sync()

		fake := fakeapi.New(fakeapi.WithLogger(logger))
		if email != "" {
			if err := fake.AddUser(email, password, premium); err != nil {
				return fmt.Errorf("add user: %w", err)
			}
			logger.Info("seeded user", zap.String("email", email), zap.Bool("premium", premium))
		}

		srv := &http.Server{
			Addr:              addr,
			Handler:           fake.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errc := make(chan error, 1)
		go func() {
			logger.Info("listening", zap.String("addr", addr))
			errc <- srv.ListenAndServe()
		}()

		select {
		case err := <-errc:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	devserverCmd.Flags().String("addr", ":8080", "Listen address")
	devserverCmd.Flags().String("user", "", "Create this account at startup")
	devserverCmd.Flags().String("password", "password", "Password for --user")
	devserverCmd.Flags().Bool("premium", false, "Make --user a premium account")
}
