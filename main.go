package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"

	"offerdesk/collections"
	"offerdesk/config"
	"offerdesk/drafts"
	"offerdesk/handlers"
	"offerdesk/lineitems"
	"offerdesk/metrics"
	"offerdesk/services"
)

const draftSweepInterval = time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger, err := cfg.Logger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	app := pocketbase.NewWithConfig(pocketbase.Config{DefaultDev: cfg.Dev})
	recorder := metrics.New()
	registry := drafts.NewRegistry(lineitems.NewPocketBaseStore(app), drafts.Options{
		TTL: cfg.DraftTTL,
		Durations: map[*lineitems.Kind]int{
			lineitems.Environments: cfg.EnvironmentMonths,
			lineitems.ServiceSets:  cfg.ServiceMonths,
		},
		Observer: recorder,
		Logger:   logger,
	})
	rows := services.NewRowCache(cfg.ListCacheTTL)
	rows.Bind(app)
	d := &handlers.Deps{App: app, Config: cfg, Drafts: registry, Metrics: recorder, Rows: rows}

	app.RootCmd.AddCommand(newImportCatalogCmd(app, recorder))

	// Create collections, seed data and run migrations on startup
	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		collections.Setup(app)
		if err := collections.Seed(app); err != nil {
			zap.S().Warnf("seed data failed: %v", err)
		}
		if err := collections.MigrateGroupCodes(app); err != nil {
			zap.S().Warnf("group code migration failed: %v", err)
		}
		if err := collections.MigrateItemTotals(app); err != nil {
			zap.S().Warnf("item total migration failed: %v", err)
		}
		registry.Start(draftSweepInterval)
		return se.Next()
	})

	app.OnTerminate().BindFunc(func(e *core.TerminateEvent) error {
		registry.Close()
		return e.Next()
	})

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		se.Router.GET("/static/{path...}", apis.Static(os.DirFS(cfg.StaticDir), false))
		if cfg.Metrics {
			se.Router.GET("/metrics", apis.WrapStdHandler(recorder.Handler()))
		}

		// Apply active customer middleware globally
		se.Router.BindFunc(handlers.ActiveCustomerMiddleware(d))

		se.Router.GET("/{$}", handlers.HandleDashboard(d))

		// ── Customer scope ───────────────────────────────────────
		se.Router.POST("/customers/{id}/activate", handlers.HandleCustomerActivate(d))
		se.Router.POST("/customers/deactivate", handlers.HandleCustomerDeactivate(d))

		// ── Generic entity CRUD ──────────────────────────────────
		for _, ent := range services.Entities {
			base := "/" + ent.Slug
			se.Router.GET(base, handlers.HandleEntityList(d, ent))
			se.Router.GET(base+"/export", handlers.HandleEntityExport(d, ent))
			se.Router.GET(base+"/create", handlers.HandleEntityCreate(d, ent))
			se.Router.POST(base, handlers.HandleEntitySave(d, ent))
			se.Router.GET(base+"/{id}/edit", handlers.HandleEntityEdit(d, ent))
			se.Router.POST(base+"/{id}/save", handlers.HandleEntityUpdate(d, ent))
			se.Router.DELETE(base+"/{id}", handlers.HandleEntityDelete(d, ent))
		}

		// ── Catalog import ───────────────────────────────────────
		se.Router.GET("/catalog/{catalog}/import", handlers.HandleCatalogImportPage(d))
		se.Router.POST("/catalog/{catalog}/import", handlers.HandleCatalogImport(d))
		se.Router.GET("/catalog/{catalog}/import/template", handlers.HandleCatalogTemplate(d))
		se.Router.POST("/catalog/{catalog}/import/errors", handlers.HandleCatalogErrorReport(d))

		// ── Offers ───────────────────────────────────────────────
		se.Router.GET("/offers", handlers.HandleOfferList(d))
		se.Router.GET("/offers/create", handlers.HandleOfferCreate(d))
		se.Router.POST("/offers", handlers.HandleOfferSave(d))
		se.Router.GET("/offers/{id}/edit", handlers.HandleOfferEdit(d))
		se.Router.POST("/offers/{id}/save", handlers.HandleOfferUpdate(d))
		se.Router.POST("/offers/{id}/status", handlers.HandleOfferStatus(d))
		se.Router.POST("/offers/{id}/contract", handlers.HandleOfferContract(d))
		se.Router.GET("/offers/{id}/export/pdf", handlers.HandleOfferExportPDF(d))
		se.Router.GET("/offers/{id}/export/excel", handlers.HandleOfferExportExcel(d))
		se.Router.GET("/offers/{id}/documents/{name}", handlers.HandleOfferDocument(d))
		se.Router.GET("/offers/{id}", handlers.HandleOfferView(d))
		se.Router.DELETE("/offers/{id}", handlers.HandleOfferDelete(d))

		// ── Line item editors: drafts and saved offers ──────────
		editorRoutes := []struct {
			prefix  string
			resolve func(*handlers.Deps) handlers.EditorResolver
		}{
			{"/drafts/{token}/{kind}", handlers.DraftEditors},
			{"/offers/{id}/lines/{kind}", handlers.OfferEditors},
		}
		for _, r := range editorRoutes {
			resolve := r.resolve(d)
			se.Router.GET(r.prefix, handlers.HandleEditorView(d, resolve))
			se.Router.GET(r.prefix+"/options", handlers.HandleEditorOptions(d, resolve))
			se.Router.POST(r.prefix+"/groups", handlers.HandleEditorAddGroup(d, resolve))
			se.Router.PATCH(r.prefix+"/groups/{group}", handlers.HandleEditorUpdateGroup(d, resolve))
			se.Router.DELETE(r.prefix+"/groups/{group}", handlers.HandleEditorDeleteGroup(d, resolve))
			se.Router.POST(r.prefix+"/groups/{group}/items", handlers.HandleEditorAddItem(d, resolve))
			se.Router.PATCH(r.prefix+"/groups/{group}/items/{item}", handlers.HandleEditorUpdateItem(d, resolve))
			se.Router.DELETE(r.prefix+"/groups/{group}/items/{item}", handlers.HandleEditorDeleteItem(d, resolve))
		}

		return se.Next()
	})

	if err := app.Start(); err != nil {
		logger.Fatal("offerdesk stopped", zap.Error(err))
	}
}
