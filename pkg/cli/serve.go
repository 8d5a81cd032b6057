package cli

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"workspace-cluster-manager/pkg/auth"
	"workspace-cluster-manager/pkg/config"
	"workspace-cluster-manager/pkg/extensions"
	"workspace-cluster-manager/pkg/handlers"
	"workspace-cluster-manager/pkg/k8s"
	"workspace-cluster-manager/pkg/logging"
	"workspace-cluster-manager/pkg/menu"
	"workspace-cluster-manager/pkg/metrics"
	"workspace-cluster-manager/pkg/models"
	"workspace-cluster-manager/pkg/navigation"
	"workspace-cluster-manager/pkg/store"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type serveOpts struct {
	configPath string
}

func serveCmd() *cobra.Command {
	opts := &serveOpts{}
	sc := &cobra.Command{
		Use:   "serve",
		Short: "Start the cluster manager HTTP server",
		RunE:  opts.run,
	}
	sc.Flags().StringVar(&opts.configPath, "config", "config.yaml", "Path to the configuration file")
	return sc
}

func (o *serveOpts) run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	router, closeStore, err := newServer(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Warn("closing store", zap.Error(err))
		}
	}()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting cluster manager", zap.String("addr", "http://"+addr), zap.String("version", Version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "server failed")
	case <-cmd.Context().Done():
	}

	logger.Info("stopping cluster manager")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

// newServer wires every component and returns the router together with a
// function releasing the store.
func newServer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*gin.Engine, func() error, error) {
	backend, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	clusters, err := store.New(backend)
	if err != nil {
		return nil, nil, multierr.Append(err, backend.Close())
	}
	if err := registerManagedClusters(clusters, cfg.ManagedClusters, logger); err != nil {
		return nil, nil, multierr.Append(err, clusters.Close())
	}

	workspaces, err := store.NewWorkspaceStore(cfg.Workspaces, cfg.CurrentWorkspace)
	if err != nil {
		return nil, nil, multierr.Append(err, clusters.Close())
	}

	pages := extensions.NewRegistry()
	for _, ext := range cfg.Extensions {
		for _, page := range ext.Pages {
			pages.AddPage(extensions.PageTarget{ExtensionID: ext.ID, PageID: page})
		}
		for _, item := range ext.Menu {
			pages.AddMenuItem(item)
		}
	}

	selection := store.NewSelection()
	nav := navigation.New(logger)
	manager := k8s.NewManager(clusters, logger)
	recorder := metrics.New()
	prompts := menu.NewPrompts()

	ctrl := menu.New(menu.Deps{
		Clusters:     clusters,
		Workspaces:   workspaces,
		Selection:    selection,
		Navigator:    nav,
		Connections:  manager,
		Contexts:     k8s.NewContextScanner(cfg.KubeconfigPaths, clusters, logger.Named("contexts")),
		Pages:        pages,
		Confirmer:    prompts,
		Metrics:      recorder,
		Logger:       logger.Named("menu"),
	})

	gin.SetMode(gin.ReleaseMode)
	h := handlers.New(cfg, handlers.Services{
		Store:      clusters,
		Workspaces: workspaces,
		Selection:  selection,
		Navigator:  nav,
		K8s:        manager,
		Auth:       auth.New(&cfg.Auth),
		Menu:       ctrl,
		Popups:     &menu.PopupHolder{},
		Prompts:    prompts,
		Metrics:    recorder,
		Logger:     logger.Named("http"),
	})

	return handlers.NewRouter(h), clusters.Close, nil
}

func openBackend(ctx context.Context, cfg *config.Config) (store.Backend, error) {
	switch cfg.Store.Backend {
	case config.BackendSQLite:
		path := cfg.Store.Path
		if path == "" {
			if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
				return nil, errors.Wrap(err, "creating data directory")
			}
			path = filepath.Join(cfg.DataDir, "clusters.db")
		}
		return store.NewSQLiteBackend(ctx, path)
	default:
		return store.NewFileBackend(cfg.DataDir)
	}
}

// registerManagedClusters adds configured managed clusters that are not in
// the store yet.
func registerManagedClusters(clusters *store.Store, managed []config.ManagedCluster, logger *zap.Logger) error {
	for _, mc := range managed {
		if _, found := clusters.GetCluster(mc.ID); found {
			continue
		}

		raw, err := os.ReadFile(mc.Kubeconfig)
		if err != nil {
			return errors.Wrapf(err, "reading kubeconfig of managed cluster %s", mc.ID)
		}
		contextName, err := k8s.ContextName(raw)
		if err != nil {
			return errors.Wrapf(err, "managed cluster %s", mc.ID)
		}

		if _, err := clusters.AddCluster(models.Cluster{
			ID:          mc.ID,
			WorkspaceID: mc.Workspace,
			ContextName: contextName,
			Kubeconfig:  base64.StdEncoding.EncodeToString(raw),
			Enabled:     true,
			IsManaged:   true,
		}); err != nil {
			return err
		}
		logger.Info("registered managed cluster", zap.String("cluster_id", mc.ID), zap.String("workspace_id", mc.Workspace))
	}
	return nil
}
