package restapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/dot-do/iceberg-sub003/catalog"
	"github.com/dot-do/iceberg-sub003/iceberg/codec"
)

func (s *Server) listViews(c *fiber.Ctx) error {
	ns := parseNamespace(c.Params("namespace"))
	ids, err := s.catalog.ListViews(c.Context(), ns)
	if err != nil {
		return writeError(c, err)
	}
	resp := listTablesResponse{Identifiers: make([]tableIdentifier, len(ids))}
	for i, id := range ids {
		resp.Identifiers[i] = toTableIdentifier(id)
	}
	return c.JSON(resp)
}

func (s *Server) createView(c *fiber.Ctx) error {
	ns := parseNamespace(c.Params("namespace"))
	var req createViewRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: errorBody{Message: err.Error(), Type: "BadRequestException", Code: fiber.StatusBadRequest}})
	}
	meta, err := codec.DecodeViewMetadata(req.Metadata)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: errorBody{Message: err.Error(), Type: "BadRequestException", Code: fiber.StatusBadRequest}})
	}
	id := make(catalog.Identifier, len(ns)+1)
	copy(id, ns)
	id[len(ns)] = req.Name
	if err := s.catalog.CreateView(c.Context(), id, meta); err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(meta)
}

func (s *Server) viewExists(c *fiber.Ctx) error {
	id := viewID(c)
	ok, err := s.catalog.ViewExists(c.Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	if !ok {
		return c.SendStatus(fiber.StatusNotFound)
	}
	return c.SendStatus(fiber.StatusOK)
}

func (s *Server) loadView(c *fiber.Ctx) error {
	id := viewID(c)
	meta, err := s.catalog.LoadView(c.Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(meta)
}

func (s *Server) dropView(c *fiber.Ctx) error {
	id := viewID(c)
	if err := s.catalog.DropView(c.Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) renameView(c *fiber.Ctx) error {
	var req renameTableRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: errorBody{Message: err.Error(), Type: "BadRequestException", Code: fiber.StatusBadRequest}})
	}
	from := fromTableIdentifier(req.Source)
	to := fromTableIdentifier(req.Destination)
	if err := s.catalog.RenameView(c.Context(), from, to); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func viewID(c *fiber.Ctx) catalog.Identifier {
	ns := parseNamespace(c.Params("namespace"))
	full := make(catalog.Identifier, len(ns)+1)
	copy(full, ns)
	full[len(ns)] = c.Params("view")
	return full
}
