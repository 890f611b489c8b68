package bootstrap

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"studyhub/internal/devserver"
	accountinadapter "studyhub/internal/modules/account/adapter/in"
	accountoutadapter "studyhub/internal/modules/account/adapter/out"
	accountservice "studyhub/internal/modules/account/service"
	accountusecase "studyhub/internal/modules/account/usecase"
	goalinadapter "studyhub/internal/modules/goal/adapter/in"
	goaloutadapter "studyhub/internal/modules/goal/adapter/out"
	goalservice "studyhub/internal/modules/goal/service"
	goalusecase "studyhub/internal/modules/goal/usecase"
	subjectinadapter "studyhub/internal/modules/subject/adapter/in"
	subjectoutadapter "studyhub/internal/modules/subject/adapter/out"
	subjectservice "studyhub/internal/modules/subject/service"
	subjectusecase "studyhub/internal/modules/subject/usecase"
	"studyhub/internal/platform/clock"
	"studyhub/internal/platform/config"
	"studyhub/internal/platform/id"
	"studyhub/internal/platform/logging"
	"studyhub/internal/platform/restclient"
	uiapp "studyhub/internal/ui/app"
)

type App struct {
	Config     config.Config
	Logger     *slog.Logger
	AccountCLI accountinadapter.CLIHandler
	SubjectCLI subjectinadapter.CLIHandler
	GoalCLI    goalinadapter.CLIHandler

	logCloser io.Closer
}

// New wires the client side. Logs go to cfg.LogPath because the terminal UI
// owns stdout.
func New(cfg config.Config) (*App, error) {
	logger, closer, err := logging.OpenFile(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	app, err := newApp(cfg, logger, clock.SystemClock{})
	if err != nil {
		_ = closer.Close()
		return nil, err
	}
	app.logCloser = closer
	return app, nil
}

// NewWithLogger wires the client side with a caller-supplied logger and
// clock.
func NewWithLogger(cfg config.Config, logger *slog.Logger, clk clock.Clock) (*App, error) {
	return newApp(cfg, logger, clk)
}

func newApp(cfg config.Config, logger *slog.Logger, clk clock.Clock) (*App, error) {
	if cfg.APIBaseURL == "" {
		return nil, fmt.Errorf("api base url is required")
	}
	httpClient := &http.Client{}

	// Auth calls never carry a bearer token.
	authClient := restclient.New(cfg.APIBaseURL, httpClient, nil, logger)
	accountUC := accountusecase.NewInteractor(accountservice.NewSessionService(
		accountoutadapter.NewHTTPAuthAPI(authClient),
		accountoutadapter.NewFileCredentialStore(cfg.CredentialPath),
	))

	apiClient := restclient.New(cfg.APIBaseURL, httpClient, accountUC, logger)

	subjectUC := subjectusecase.NewInteractor(
		subjectservice.NewSubjectService(
			subjectoutadapter.NewHTTPSubjectRepository(apiClient),
			subjectoutadapter.NewVaultSubjectExporter(cfg.ExportDir),
		),
		subjectoutadapter.NewAccountIdentity(accountUC),
	)

	goalUC := goalusecase.NewInteractor(
		goalservice.NewGoalService(
			clk,
			goaloutadapter.NewHTTPGoalRepository(apiClient),
			goaloutadapter.NewVaultWeekExporter(cfg.ExportDir),
		),
		goaloutadapter.NewAccountIdentity(accountUC),
	)

	return &App{
		Config:     cfg,
		Logger:     logger,
		AccountCLI: accountinadapter.NewCLIHandler(accountUC),
		SubjectCLI: subjectinadapter.NewCLIHandler(subjectUC),
		GoalCLI:    goalinadapter.NewCLIHandler(goalUC),
	}, nil
}

// Close flushes and closes the log file, if New opened one.
func (a *App) Close() error {
	if a.logCloser == nil {
		return nil
	}
	return a.logCloser.Close()
}

func RunTUI(app *App) error {
	model := uiapp.NewModel(app.AccountCLI, app.SubjectCLI, app.GoalCLI, clock.SystemClock{}, app.Logger)
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err := program.Run()
	return err
}

// Serve runs the reference API until ctx is cancelled. It logs JSON to
// stdout.
func Serve(ctx context.Context, cfg config.Config) error {
	logger := logging.Setup(os.Stdout, cfg.LogLevel)
	store, err := devserver.OpenStore(ctx, cfg.Server.DBPath, id.UUID{}, clock.SystemClock{})
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			logger.Error("close store", slog.String("err", closeErr.Error()))
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	handler := devserver.NewHandler(devserver.Options{
		Store:    store,
		Prefix:   cfg.Server.Prefix,
		Logger:   logger,
		Registry: registry,
	})
	return devserver.Run(ctx, cfg.Server.ListenAddr, handler, logger)
}
