package restapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/dot-do/iceberg-sub003/catalog"
	"github.com/dot-do/iceberg-sub003/iceberg/codec"
)

func (s *Server) listTables(c *fiber.Ctx) error {
	ns := parseNamespace(c.Params("namespace"))
	ids, err := s.catalog.ListTables(c.Context(), ns)
	if err != nil {
		return writeError(c, err)
	}
	resp := listTablesResponse{Identifiers: make([]tableIdentifier, len(ids))}
	for i, id := range ids {
		resp.Identifiers[i] = toTableIdentifier(id)
	}
	return c.JSON(resp)
}

func (s *Server) createTable(c *fiber.Ctx) error {
	ns := parseNamespace(c.Params("namespace"))
	var req createTableRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: errorBody{Message: err.Error(), Type: "BadRequestException", Code: fiber.StatusBadRequest}})
	}
	schema, err := codec.DecodeSchema(req.Schema)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: errorBody{Message: err.Error(), Type: "BadRequestException", Code: fiber.StatusBadRequest}})
	}
	createReq := catalog.CreateTableRequest{Schema: schema, Location: req.Location, Properties: req.Properties}
	if len(req.PartitionSpec) > 0 {
		spec, err := codec.DecodePartitionSpec(req.PartitionSpec)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: errorBody{Message: err.Error(), Type: "BadRequestException", Code: fiber.StatusBadRequest}})
		}
		createReq.Spec = &spec
	}
	if len(req.WriteOrder) > 0 {
		order, err := codec.DecodeSortOrder(req.WriteOrder)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: errorBody{Message: err.Error(), Type: "BadRequestException", Code: fiber.StatusBadRequest}})
		}
		createReq.SortOrder = &order
	}

	id := make(catalog.Identifier, len(ns)+1)
	copy(id, ns)
	id[len(ns)] = req.Name
	meta, err := s.catalog.CreateTable(c.Context(), id, createReq)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(loadTableResponse{Metadata: meta})
}

func (s *Server) tableExists(c *fiber.Ctx) error {
	id := tableID(c)
	ok, err := s.catalog.TableExists(c.Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	if !ok {
		return c.SendStatus(fiber.StatusNotFound)
	}
	return c.SendStatus(fiber.StatusOK)
}

func (s *Server) loadTable(c *fiber.Ctx) error {
	id := tableID(c)
	meta, err := s.catalog.LoadTable(c.Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(loadTableResponse{Metadata: meta})
}

func (s *Server) dropTable(c *fiber.Ctx) error {
	id := tableID(c)
	purge := c.Query("purgeRequested") == "true"
	if err := s.catalog.DropTable(c.Context(), id, purge); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) commitTable(c *fiber.Ctx) error {
	id := tableID(c)
	req, err := decodeCommitTableRequest(c.Body())
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: errorBody{Message: err.Error(), Type: "BadRequestException", Code: fiber.StatusBadRequest}})
	}
	req.Identifier = id
	resp, err := s.catalog.CommitTable(c.Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(loadTableResponse{MetadataLocation: resp.MetadataLocation, Metadata: resp.Metadata})
}

func (s *Server) renameTable(c *fiber.Ctx) error {
	var req renameTableRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: errorBody{Message: err.Error(), Type: "BadRequestException", Code: fiber.StatusBadRequest}})
	}
	from := fromTableIdentifier(req.Source)
	to := fromTableIdentifier(req.Destination)
	if err := s.catalog.RenameTable(c.Context(), from, to); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func tableID(c *fiber.Ctx) catalog.Identifier {
	ns := parseNamespace(c.Params("namespace"))
	full := make(catalog.Identifier, len(ns)+1)
	copy(full, ns)
	full[len(ns)] = c.Params("table")
	return full
}
