// Package restapi exposes a catalog.Catalog over HTTP using the wire shape
// of the Iceberg REST catalog API: namespace/table/view CRUD plus
// table rename and commit. It is a thin translation layer — all catalog
// semantics live in the wrapped catalog.Catalog, this package only does
// request decoding, routing, and error-to-status mapping.
package restapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/dot-do/iceberg-sub003/catalog"
)

// Server wraps a catalog.Catalog behind a fiber.App.
type Server struct {
	catalog catalog.Catalog
	logger  zerolog.Logger
	app     *fiber.App
}

// NewServer builds a Server and registers its routes. Call Listen to serve.
func NewServer(cat catalog.Catalog, logger zerolog.Logger) *Server {
	s := &Server{
		catalog: cat,
		logger:  logger.With().Str("component", "catalog-restapi").Logger(),
		app:     fiber.New(fiber.Config{DisableStartupMessage: true}),
	}
	s.registerRoutes()
	return s
}

// App exposes the underlying fiber.App, e.g. for tests using
// app.Test(req).
func (s *Server) App() *fiber.App { return s.app }

// Listen starts serving on addr; it blocks until the server stops.
func (s *Server) Listen(addr string) error {
	s.logger.Info().Str("address", addr).Msg("starting catalog REST server")
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) registerRoutes() {
	v1 := s.app.Group("/v1")

	v1.Get("/namespaces", s.listNamespaces)
	v1.Post("/namespaces", s.createNamespace)
	v1.Head("/namespaces/:namespace", s.namespaceExists)
	v1.Get("/namespaces/:namespace", s.getNamespace)
	v1.Delete("/namespaces/:namespace", s.dropNamespace)
	v1.Post("/namespaces/:namespace/properties", s.updateNamespaceProperties)

	v1.Get("/namespaces/:namespace/tables", s.listTables)
	v1.Post("/namespaces/:namespace/tables", s.createTable)
	v1.Head("/namespaces/:namespace/tables/:table", s.tableExists)
	v1.Get("/namespaces/:namespace/tables/:table", s.loadTable)
	v1.Delete("/namespaces/:namespace/tables/:table", s.dropTable)
	v1.Post("/namespaces/:namespace/tables/:table", s.commitTable)
	v1.Post("/tables/rename", s.renameTable)

	v1.Get("/namespaces/:namespace/views", s.listViews)
	v1.Post("/namespaces/:namespace/views", s.createView)
	v1.Head("/namespaces/:namespace/views/:view", s.viewExists)
	v1.Get("/namespaces/:namespace/views/:view", s.loadView)
	v1.Delete("/namespaces/:namespace/views/:view", s.dropView)
	v1.Post("/views/rename", s.renameView)
}
