package main

import (
	"net/http"

	"github.com/jmoiron/sqlx"

	"kishu/automation"
	"kishu/loader"
	"kishu/machines"
	"kishu/reconcile"
	"kishu/sis"
	"kishu/stores"
)

func SetupRoutes(mux *http.ServeMux, dbConn *sqlx.DB, workflow *reconcile.Workflow) {

	mux.HandleFunc("/api/machines/add", reconcile.AddMachineHandler(workflow))
	mux.HandleFunc("/api/machines/confirm-total", reconcile.ConfirmTotalHandler(workflow))
	mux.HandleFunc("/api/machines/confirm-items", reconcile.ConfirmItemsHandler(workflow))
	mux.HandleFunc("/api/machines/cancel", reconcile.CancelHandler(workflow))
	mux.HandleFunc("/api/machines/pending", reconcile.GetPendingHandler(workflow))

	mux.HandleFunc("/api/machines/list", machines.ListHandler(dbConn))
	mux.HandleFunc("/api/machines/update-quantity", machines.UpdateQuantityHandler(dbConn))
	mux.HandleFunc("/api/machines/export", machines.ExportHandler(dbConn))
	mux.HandleFunc("/api/updates/latest", machines.LatestUpdatesHandler(dbConn))

	mux.HandleFunc("/api/stores", stores.ListHandler(dbConn))
	mux.HandleFunc("/api/competitors/add", stores.AddCompetitorHandler(dbConn))
	mux.HandleFunc("/api/categories", stores.CategoriesHandler(dbConn))

	mux.HandleFunc("/api/sis/makers", sis.MakersHandler(dbConn))
	mux.HandleFunc("/api/sis/types", sis.TypesHandler(dbConn))
	mux.HandleFunc("/api/sis/machines", sis.MachinesHandler(dbConn))

	mux.HandleFunc("/api/catalog/reload", loader.ReloadCatalogHandler(dbConn))
	mux.HandleFunc("/api/automation/sis/download", automation.DownloadSisHandler(dbConn))

	mux.HandleFunc("/api/config", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			GetConfigHandler()(w, r)
		case http.MethodPost:
			SaveConfigHandler()(w, r)
		default:
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		}
	})
}
