package restapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/dot-do/iceberg-sub003/catalog"
)

func (s *Server) listNamespaces(c *fiber.Ctx) error {
	var parent catalog.Identifier
	if p := c.Query("parent"); p != "" {
		parent = parseNamespace(p)
	}
	namespaces, err := s.catalog.ListNamespaces(c.Context(), parent)
	if err != nil {
		return writeError(c, err)
	}
	resp := listNamespacesResponse{Namespaces: make([][]string, len(namespaces))}
	for i, ns := range namespaces {
		resp.Namespaces[i] = []string(ns)
	}
	return c.JSON(resp)
}

func (s *Server) createNamespace(c *fiber.Ctx) error {
	var req createNamespaceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: errorBody{Message: err.Error(), Type: "BadRequestException", Code: fiber.StatusBadRequest}})
	}
	ns := catalog.Identifier(req.Namespace)
	if err := s.catalog.CreateNamespace(c.Context(), ns, req.Properties); err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(namespaceResponse{Namespace: req.Namespace, Properties: req.Properties})
}

func (s *Server) namespaceExists(c *fiber.Ctx) error {
	ns := parseNamespace(c.Params("namespace"))
	ok, err := s.catalog.NamespaceExists(c.Context(), ns)
	if err != nil {
		return writeError(c, err)
	}
	if !ok {
		return c.SendStatus(fiber.StatusNotFound)
	}
	return c.SendStatus(fiber.StatusOK)
}

func (s *Server) getNamespace(c *fiber.Ctx) error {
	ns := parseNamespace(c.Params("namespace"))
	props, err := s.catalog.GetNamespaceProperties(c.Context(), ns)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(namespaceResponse{Namespace: []string(ns), Properties: props})
}

func (s *Server) dropNamespace(c *fiber.Ctx) error {
	ns := parseNamespace(c.Params("namespace"))
	if err := s.catalog.DropNamespace(c.Context(), ns); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) updateNamespaceProperties(c *fiber.Ctx) error {
	ns := parseNamespace(c.Params("namespace"))
	var req updateNamespacePropertiesRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: errorBody{Message: err.Error(), Type: "BadRequestException", Code: fiber.StatusBadRequest}})
	}
	summary, err := s.catalog.UpdateNamespaceProperties(c.Context(), ns, req.Updates, req.Removals)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(updateNamespacePropertiesResponse{
		Updated: summary.Updated,
		Removed: summary.Removed,
		Missing: summary.Missing,
	})
}
