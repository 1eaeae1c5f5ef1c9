package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/foliolib/folio/internal/views"
)

type ViewsController struct {
	views *views.Service
}

func NewViewsController(service *views.Service) *ViewsController {
	return &ViewsController{views: service}
}

// respondViewError maps view service errors onto HTTP statuses.
func respondViewError(c *gin.Context, err error, context string) {
	var defErr *views.DefinitionError
	switch {
	case errors.Is(err, views.ErrViewNotFound):
		respondNotFound(c, "view")
	case errors.Is(err, views.ErrViewExists):
		respondConflict(c, err.Error())
	case errors.Is(err, views.ErrBuiltinView):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: err.Error()})
	case errors.As(err, &defErr):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: defErr.Error(), Code: "invalid_definition"})
	default:
		respondInternalError(c, err, context)
	}
}

type viewRequest struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Definition  map[string]any `json:"definition"`
}

type viewResponse struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Definition  map[string]any `json:"definition"`
	CachedCount *int           `json:"cached_count,omitempty"`
}

func (controller *ViewsController) ListViews(c *gin.Context) {
	includeBuiltin, _ := strconv.ParseBool(c.DefaultQuery("builtin", "true"))
	summaries, err := controller.views.List(includeBuiltin)
	if err != nil {
		respondInternalError(c, err, "list views")
		return
	}
	c.JSON(200, gin.H{"views": summaries, "count": len(summaries)})
}

func (controller *ViewsController) CreateView(c *gin.Context) {
	var req viewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	def, err := views.DecodeDefinition(req.Definition, req.Name)
	if err != nil {
		respondViewError(c, err, "decode definition")
		return
	}

	view, err := controller.views.Create(req.Name, req.Description, def)
	if err != nil {
		respondViewError(c, err, "create view")
		return
	}
	respondCreated(c, viewResponse{
		Name:        view.Name,
		Description: view.Description,
		Definition:  views.EncodeDefinition(def),
	})
}

func (controller *ViewsController) GetView(c *gin.Context) {
	name := c.Param("name")
	def, found, err := controller.views.ResolveDefinition(name)
	if err != nil {
		respondViewError(c, err, "get view")
		return
	}
	if !found {
		respondNotFound(c, "view")
		return
	}

	resp := viewResponse{Name: name, Definition: views.EncodeDefinition(def)}
	if !views.IsBuiltinName(name) {
		view, err := controller.views.Get(name)
		if err != nil {
			respondViewError(c, err, "get view")
			return
		}
		if view != nil {
			resp.Description = view.Description
			resp.CachedCount = view.CachedCount
		}
	}
	c.JSON(200, resp)
}

func (controller *ViewsController) UpdateView(c *gin.Context) {
	name := c.Param("name")

	var req viewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	var def *views.Definition
	if req.Definition != nil {
		decoded, err := views.DecodeDefinition(req.Definition, name)
		if err != nil {
			respondViewError(c, err, "decode definition")
			return
		}
		def = decoded
	}

	var description *string
	if req.Description != "" {
		description = &req.Description
	}

	view, err := controller.views.Update(name, def, description)
	if err != nil {
		respondViewError(c, err, "update view")
		return
	}
	c.JSON(200, gin.H{"name": view.Name, "description": view.Description})
}

func (controller *ViewsController) DeleteView(c *gin.Context) {
	deleted, err := controller.views.Delete(c.Param("name"))
	if err != nil {
		respondViewError(c, err, "delete view")
		return
	}
	if !deleted {
		respondNotFound(c, "view")
		return
	}
	respondSuccess(c, "view deleted")
}

type renameRequest struct {
	NewName string `json:"new_name" binding:"required"`
}

func (controller *ViewsController) RenameView(c *gin.Context) {
	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "new_name is required")
		return
	}

	if err := controller.views.Rename(c.Param("name"), req.NewName); err != nil {
		respondViewError(c, err, "rename view")
		return
	}
	respondSuccess(c, "view renamed")
}

// EvaluateView runs the view and returns its books, overrides applied.
func (controller *ViewsController) EvaluateView(c *gin.Context) {
	name := c.Param("name")
	results, err := controller.views.Evaluate(name)
	if err != nil {
		respondViewError(c, err, "evaluate view")
		return
	}

	type evaluatedBook struct {
		ID          uint   `json:"id"`
		Title       string `json:"title"`
		Description string `json:"description,omitempty"`
		Position    *int   `json:"position,omitempty"`
	}

	entries := make([]evaluatedBook, 0, len(results))
	for _, result := range results {
		entries = append(entries, evaluatedBook{
			ID:          result.Book.ID,
			Title:       result.Title(),
			Description: result.Description(),
			Position:    result.Position,
		})
	}
	c.JSON(200, gin.H{"view": name, "books": entries, "count": len(entries)})
}

func (controller *ViewsController) AddBook(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := controller.views.AddBook(c.Param("name"), bookID); err != nil {
		respondViewError(c, err, "add book to view")
		return
	}
	respondSuccess(c, "book added to view")
}

func (controller *ViewsController) RemoveBook(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	removed, err := controller.views.RemoveBook(c.Param("name"), bookID)
	if err != nil {
		respondViewError(c, err, "remove book from view")
		return
	}
	if !removed {
		respondNotFound(c, "view")
		return
	}
	respondSuccess(c, "book removed from view")
}

type overrideRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Position    *int    `json:"position"`
}

func (controller *ViewsController) SetOverride(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req overrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	err := controller.views.SetOverride(c.Param("name"), bookID, req.Title, req.Description, req.Position)
	if err != nil {
		respondViewError(c, err, "set override")
		return
	}
	respondSuccess(c, "override saved")
}

// UnsetOverride clears one field (?field=title|description|position) or,
// without a field parameter, the whole override row.
func (controller *ViewsController) UnsetOverride(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	field := c.Query("field")
	removed, err := controller.views.UnsetOverride(c.Param("name"), bookID, field)
	if err != nil {
		respondViewError(c, err, "unset override")
		return
	}
	if !removed {
		respondNotFound(c, "override")
		return
	}
	respondSuccess(c, "override removed")
}

func (controller *ViewsController) ListOverrides(c *gin.Context) {
	overrides, err := controller.views.GetOverrides(c.Param("name"))
	if err != nil {
		respondViewError(c, err, "list overrides")
		return
	}
	c.JSON(200, gin.H{"overrides": overrides, "count": len(overrides)})
}

// ExportView returns the view as a YAML document.
func (controller *ViewsController) ExportView(c *gin.Context) {
	data, err := controller.views.ExportYAML(c.Param("name"))
	if err != nil {
		respondViewError(c, err, "export view")
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+c.Param("name")+`.yaml"`)
	c.Data(200, "application/yaml", data)
}

// ImportView creates a view from a YAML document in the request body.
// Pass ?overwrite=true to replace an existing view of the same name.
func (controller *ViewsController) ImportView(c *gin.Context) {
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		respondBadRequest(c, "unable to read request body")
		return
	}

	overwrite, _ := strconv.ParseBool(c.DefaultQuery("overwrite", "false"))
	name, err := controller.views.ImportYAML(data, overwrite)
	if err != nil {
		respondViewError(c, err, "import view")
		return
	}
	respondCreated(c, gin.H{"name": name})
}

func (controller *ViewsController) Dependencies(c *gin.Context) {
	name := c.Param("name")
	def, _, err := controller.views.ResolveDefinition(name)
	if err != nil {
		respondViewError(c, err, "view dependencies")
		return
	}
	if def == nil {
		respondNotFound(c, "view")
		return
	}
	deps := controller.views.Dependencies(def)
	c.JSON(200, gin.H{"view": name, "dependencies": deps})
}

func (controller *ViewsController) Dependents(c *gin.Context) {
	name := c.Param("name")
	dependents, err := controller.views.Dependents(name)
	if err != nil {
		respondViewError(c, err, "view dependents")
		return
	}
	c.JSON(200, gin.H{"view": name, "dependents": dependents})
}

// ValidateView dry-runs a definition without persisting anything.
func (controller *ViewsController) ValidateView(c *gin.Context) {
	var req viewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	def, err := views.DecodeDefinition(req.Definition, "validate")
	if err != nil {
		var defErr *views.DefinitionError
		if errors.As(err, &defErr) {
			c.JSON(200, gin.H{"valid": false, "reason": defErr.Error()})
			return
		}
		respondInternalError(c, err, "validate view")
		return
	}

	valid, reason := controller.views.Validate(def)
	resp := gin.H{"valid": valid}
	if reason != "" {
		resp["reason"] = reason
	}
	c.JSON(200, resp)
}
