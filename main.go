package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/Kanir1/KindergartenApp/access"
	"github.com/Kanir1/KindergartenApp/authentication"
	"github.com/Kanir1/KindergartenApp/children"
	"github.com/Kanir1/KindergartenApp/items"
	"github.com/Kanir1/KindergartenApp/parents"
	"github.com/Kanir1/KindergartenApp/reports"
	. "github.com/Kanir1/KindergartenApp/shared"
	"github.com/Kanir1/KindergartenApp/storage"
	. "github.com/Kanir1/KindergartenApp/store"
	"github.com/Kanir1/KindergartenApp/store/migrations"

	"github.com/facebookgo/inject"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/gorilla/mux"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	"github.com/pkg/errors"
)

var (
	ctx             = context.Background()
	logger          = NewLogger("kindergarten")
	config          *AppConfig
	db              *gorm.DB
	stringGenerator = &StringGenerator{}

	authenticationService = &authentication.AuthenticationService{}
	parentService         = &parents.ParentService{}
	childService          = &children.ChildService{}
	reportService         = &reports.ReportService{}
	itemsService          = &items.ItemsService{}

	authHandlerFactory     = &authentication.HandlerFactory{}
	parentsHandlerFactory  = &parents.HandlerFactory{}
	childrenHandlerFactory = &children.HandlerFactory{}
	reportsHandlerFactory  = &reports.HandlerFactory{}
	itemsHandlerFactory    = &items.HandlerFactory{}

	dbStore      = &Store{}
	localStorage = &storage.LocalStorage{}
	guard        = &access.Guard{}

	authenticator = &authentication.Authenticator{}
)

func init() {
	checkErrAndExit(initAppConfiguration())
	checkErrAndExit(parents.ValidateCascadePolicy(config.CascadePolicy))
	checkErrAndExit(initPostgresConnection())
	checkErrAndExit(initApplicationGraph())
}

func initAppConfiguration() (err error) {
	config, err = InitAppConfiguration()
	return
}

func initPostgresConnection() (err error) {
	connectString := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		config.PgContactPoint,
		config.PgContactPort,
		config.PgUsername,
		config.PgPassword,
		config.PgDbName)
	db, err = gorm.Open("postgres", connectString)
	if err != nil {
		return
	}

	db.LogMode(true)
	db.SetLogger(logger)
	return
}

func initApplicationGraph() error {
	g := inject.Graph{}
	g.Provide(
		&inject.Object{Value: config},
		&inject.Object{Value: authenticationService},
		&inject.Object{Value: parentService},
		&inject.Object{Value: childService},
		&inject.Object{Value: reportService},
		&inject.Object{Value: itemsService},
		&inject.Object{Value: authHandlerFactory},
		&inject.Object{Value: parentsHandlerFactory},
		&inject.Object{Value: childrenHandlerFactory},
		&inject.Object{Value: reportsHandlerFactory},
		&inject.Object{Value: itemsHandlerFactory},
		&inject.Object{Value: db},
		&inject.Object{Value: stringGenerator},
		&inject.Object{Value: dbStore},
		&inject.Object{Value: localStorage},
		&inject.Object{Value: guard},
		&inject.Object{Value: authenticator},
		&inject.Object{Value: logger},
	)
	if err := g.Populate(); err != nil {
		return errors.Wrap(err, "failed to populate")
	}
	return nil
}

func main() {
	if config.StartupMigration {
		applySqlSchemaMigrations(ctx)
	}
	startHttpServer(ctx)
}

func applySqlSchemaMigrations(ctx context.Context) {
	logger.Info(ctx, "applying sql schema migrations")
	migrationResult := migrations.Up(migrations.ApplyOptions{
		SourceURL: fmt.Sprintf("file://%s", config.SqlMigrationsSourceDir),
		DatabaseURL: fmt.Sprintf("postgres://%v:%v/%v?sslmode=disable&user=%s&password=%s",
			config.PgContactPoint, config.PgContactPort, config.PgDbName, config.PgUsername, config.PgPassword),
	})
	checkErrAndExit(migrationResult.Err)
	if !migrationResult.Changes {
		logger.Info(ctx, "no new migrations applied")
	}
}

func startHttpServer(ctx context.Context) {
	authOpts := []kithttp.ServerOption{
		kithttp.ServerErrorLogger(logger),
		kithttp.ServerErrorEncoder(authentication.EncodeError),
	}

	parentsOpts := []kithttp.ServerOption{
		kithttp.ServerErrorLogger(logger),
		kithttp.ServerErrorEncoder(parents.EncodeError),
	}

	childrenOpts := []kithttp.ServerOption{
		kithttp.ServerErrorLogger(logger),
		kithttp.ServerErrorEncoder(children.EncodeError),
	}

	reportsOpts := []kithttp.ServerOption{
		kithttp.ServerErrorLogger(logger),
		kithttp.ServerErrorEncoder(reports.EncodeError),
	}

	itemsOpts := []kithttp.ServerOption{
		kithttp.ServerErrorLogger(logger),
		kithttp.ServerErrorEncoder(items.EncodeError),
	}

	router := mux.NewRouter()

	router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	router.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	router.Handle("/auth/login", authHandlerFactory.Login(authOpts)).Methods(http.MethodPost)
	router.Handle("/auth/register", authHandlerFactory.Register(authOpts)).Methods(http.MethodPost)

	apiRouterV1 := router.PathPrefix("/api/v1").Subrouter()

	apiRouterV1.Handle("/parents/{parentId}/link-children", authenticator.Roles(parentsHandlerFactory.Link(parentsOpts), ROLE_ADMIN)).Methods(http.MethodPost)
	apiRouterV1.Handle("/parents/{parentId}/unlink-children", authenticator.Roles(parentsHandlerFactory.Unlink(parentsOpts), ROLE_ADMIN)).Methods(http.MethodPost)
	apiRouterV1.Handle("/parents/link-child", authenticator.Roles(parentsHandlerFactory.SelfServeLink(parentsOpts), ROLE_PARENT)).Methods(http.MethodPost)

	apiRouterV1.Handle("/admin/parents", authenticator.Roles(parentsHandlerFactory.List(parentsOpts), ROLE_ADMIN)).Methods(http.MethodGet)
	apiRouterV1.Handle("/admin/parents/{parentId}", authenticator.Roles(parentsHandlerFactory.Delete(parentsOpts), ROLE_ADMIN)).Methods(http.MethodDelete)

	apiRouterV1.Handle("/children", authenticator.Roles(childrenHandlerFactory.Add(childrenOpts), ROLE_ADMIN)).Methods(http.MethodPost)
	apiRouterV1.Handle("/children", authenticator.Roles(childrenHandlerFactory.List(childrenOpts), ROLE_ADMIN)).Methods(http.MethodGet)
	apiRouterV1.Handle("/children/mine", authenticator.Roles(childrenHandlerFactory.ListMine(childrenOpts), ROLE_PARENT, ROLE_ADMIN)).Methods(http.MethodGet)
	apiRouterV1.Handle("/children/{childId}", authenticator.Roles(childrenHandlerFactory.Get(childrenOpts), ROLE_PARENT, ROLE_ADMIN)).Methods(http.MethodGet)
	apiRouterV1.Handle("/children/{childId}", authenticator.Roles(childrenHandlerFactory.Delete(childrenOpts), ROLE_ADMIN)).Methods(http.MethodDelete)
	apiRouterV1.Handle("/children/{childId}/parent-notes", authenticator.Roles(childrenHandlerFactory.UpdateParentNotes(childrenOpts), ROLE_PARENT, ROLE_ADMIN)).Methods(http.MethodPatch)
	apiRouterV1.Handle("/children/{childId}/pickups", authenticator.Roles(childrenHandlerFactory.AddPickup(childrenOpts), ROLE_PARENT, ROLE_ADMIN)).Methods(http.MethodPost)
	apiRouterV1.Handle("/children/{childId}/pickups", authenticator.Roles(childrenHandlerFactory.ListPickups(childrenOpts), ROLE_PARENT, ROLE_ADMIN)).Methods(http.MethodGet)
	apiRouterV1.Handle("/children/{childId}/pickups/{pickupId}", authenticator.Roles(childrenHandlerFactory.RemovePickup(childrenOpts), ROLE_PARENT, ROLE_ADMIN)).Methods(http.MethodDelete)

	apiRouterV1.Handle("/reports/daily", authenticator.Roles(reportsHandlerFactory.AddDaily(reportsOpts), ROLE_ADMIN)).Methods(http.MethodPost)
	apiRouterV1.Handle("/reports/daily", authenticator.Roles(reportsHandlerFactory.ListDaily(reportsOpts), ROLE_PARENT, ROLE_ADMIN)).Methods(http.MethodGet)
	apiRouterV1.Handle("/reports/daily/{reportId}", authenticator.Roles(reportsHandlerFactory.GetDaily(reportsOpts), ROLE_PARENT, ROLE_ADMIN)).Methods(http.MethodGet)
	apiRouterV1.Handle("/reports/monthly", authenticator.Roles(reportsHandlerFactory.AddMonthly(reportsOpts), ROLE_ADMIN)).Methods(http.MethodPost)
	apiRouterV1.Handle("/reports/monthly", authenticator.Roles(reportsHandlerFactory.ListMonthly(reportsOpts), ROLE_PARENT, ROLE_ADMIN)).Methods(http.MethodGet)
	apiRouterV1.Handle("/reports/monthly/{reportId}", authenticator.Roles(reportsHandlerFactory.GetMonthly(reportsOpts), ROLE_PARENT, ROLE_ADMIN)).Methods(http.MethodGet)

	apiRouterV1.Handle("/required-items", authenticator.Roles(itemsHandlerFactory.Add(itemsOpts), ROLE_ADMIN)).Methods(http.MethodPost)
	apiRouterV1.Handle("/required-items/latest/{childId}", authenticator.Roles(itemsHandlerFactory.GetLatest(itemsOpts), ROLE_PARENT, ROLE_ADMIN)).Methods(http.MethodGet)

	checkErrAndExit(http.ListenAndServe(config.ListenAddr,
		logger.RequestLoggerMiddleware(router),
	))
}

func checkErrAndExit(err error) {
	if err == nil {
		return
	}
	fmt.Println(err.Error())
	os.Exit(1)
}
