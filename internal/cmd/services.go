package main

import (
	"database/sql"

	"github.com/jonboulle/clockwork"

	"github.com/feudcast/feudcast/internal/api"
	"github.com/feudcast/feudcast/internal/fastmoney"
	"github.com/feudcast/feudcast/internal/gateway"
	"github.com/feudcast/feudcast/internal/questions"
	"github.com/feudcast/feudcast/internal/rounds"
	"github.com/feudcast/feudcast/internal/session"
	"github.com/feudcast/feudcast/internal/setup"
)

// Services holds the wired application graph.
type Services struct {
	API               *api.Handler
	WebSocket         *gateway.WebSocketHandler
	ConnectionManager *gateway.ConnectionManager
	StateManager      *gateway.StateManager
	Snapshot          *gateway.Service
}

func setupServices(database *sql.DB) *Services {
	clock := clockwork.NewRealClock()

	sessionRepo := session.NewRepository(database)
	questionRepo := questions.NewRepository(database)
	roundRepo := rounds.NewRepository(database)
	fmRepo := fastmoney.NewRepository(database)

	navigator := rounds.NewNavigator(roundRepo)
	engine := fastmoney.NewEngine(fmRepo, sessionRepo, navigator, clock)
	setupSvc := setup.NewService(database)

	stateManager := gateway.NewStateManager()
	snapshotSvc := gateway.NewService(sessionRepo, roundRepo, questionRepo, fmRepo, stateManager, clock)
	connectionManager := gateway.NewConnectionManager(gateway.DefaultConnectionConfig())
	stateHandler := gateway.NewStateHandler(snapshotSvc)
	wsHandler := gateway.NewWebSocketHandler(connectionManager, snapshotSvc)

	apiHandler := api.NewHandler(sessionRepo, questionRepo, navigator, engine, setupSvc, stateHandler)

	return &Services{
		API:               apiHandler,
		WebSocket:         wsHandler,
		ConnectionManager: connectionManager,
		StateManager:      stateManager,
		Snapshot:          snapshotSvc,
	}
}
