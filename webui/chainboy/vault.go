package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"chainboy/persist/grpcvault"
	"chainboy/persist/httpvault"
	"chainboy/persist/sqlitevault"
	"chainboy/util"
)

type vaultFlags struct {
	db       string
	grpcAddr string
	httpAddr string
	logLevel string
}

// newVaultCommand runs a self-hosted vault that the grpc and http drivers can upload to.
func newVaultCommand() *cobra.Command {
	var f vaultFlags

	cmd := &cobra.Command{
		Use:   "vault",
		Short: "Serve a local save vault over gRPC and HTTP backed by SQLite",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVault(cmd.Context(), f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.db, "db", "chainboy-vault.db", "SQLite database file")
	flags.StringVar(&f.grpcAddr, "grpc", "127.0.0.1:27641", "gRPC listen address; empty disables")
	flags.StringVar(&f.httpAddr, "http", "127.0.0.1:27642", "HTTP listen address; empty disables")
	flags.StringVar(&f.logLevel, "log-level", "info", "debug, info, warn or error")
	return cmd
}

func runVault(ctx context.Context, f vaultFlags) error {
	logger := util.NewLogger(os.Stderr, f.logLevel)
	log.SetDefault(logger)

	if f.grpcAddr == "" && f.httpAddr == "" {
		return errors.New("nothing to serve: both --grpc and --http are empty")
	}

	v, err := sqlitevault.Open(f.db, "")
	if err != nil {
		return err
	}
	defer v.Close()

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	if f.grpcAddr != "" {
		lis, err := net.Listen("tcp", f.grpcAddr)
		if err != nil {
			return err
		}
		s := grpc.NewServer()
		grpcvault.RegisterServer(s, v.Store)

		g.Go(func() error {
			logger.Info("grpc vault listening", "addr", lis.Addr().String())
			return s.Serve(lis)
		})
		g.Go(func() error {
			<-ctx.Done()
			s.GracefulStop()
			return nil
		})
	}

	if f.httpAddr != "" {
		e := echo.New()
		e.HideBanner = true
		e.HidePort = true
		httpvault.RegisterRoutes(e, v.Store)

		g.Go(func() error {
			logger.Info("http vault listening", "addr", f.httpAddr)
			if err := e.Start(f.httpAddr); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			return e.Shutdown(context.Background())
		})
	}

	return g.Wait()
}
