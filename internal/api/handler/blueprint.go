package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/daap14/blueprints/internal/api/middleware"
	"github.com/daap14/blueprints/internal/api/response"
	"github.com/daap14/blueprints/internal/api/validation"
	"github.com/daap14/blueprints/internal/blueprint"
)

// pointRequest is a point in a request body. Pointers distinguish a missing
// coordinate from zero.
type pointRequest struct {
	X *int `json:"x"`
	Y *int `json:"y"`
}

// createBlueprintRequest is the request body for POST /api/v1/blueprints.
type createBlueprintRequest struct {
	Author string         `json:"author"`
	Name   string         `json:"name"`
	Points []pointRequest `json:"points"`
}

type pointResponse struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// blueprintResponse is the API representation of a blueprint.
type blueprintResponse struct {
	Author string          `json:"author"`
	Name   string          `json:"name"`
	Points []pointResponse `json:"points"`
}

func toBlueprintResponse(bp *blueprint.Blueprint) blueprintResponse {
	points := make([]pointResponse, 0, len(bp.Points))
	for _, p := range bp.Points {
		points = append(points, pointResponse{X: p.X, Y: p.Y})
	}
	return blueprintResponse{
		Author: bp.Author,
		Name:   bp.Name,
		Points: points,
	}
}

func toBlueprintResponses(blueprints []blueprint.Blueprint) []blueprintResponse {
	items := make([]blueprintResponse, 0, len(blueprints))
	for i := range blueprints {
		items = append(items, toBlueprintResponse(&blueprints[i]))
	}
	return items
}

func toPointInput(p pointRequest) validation.PointInput {
	return validation.PointInput{X: p.X, Y: p.Y}
}

// BlueprintHandler handles blueprint endpoints.
type BlueprintHandler struct {
	repo blueprint.Repository
}

// NewBlueprintHandler creates a new BlueprintHandler.
func NewBlueprintHandler(repo blueprint.Repository) *BlueprintHandler {
	return &BlueprintHandler{repo: repo}
}

// pathParam returns the decoded URL parameter key. chi matches on
// r.URL.RawPath when it is set, so only then are parameters still escaped.
func pathParam(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return v
	}
	if unescaped, err := url.PathUnescape(v); err == nil {
		return unescaped
	}
	return v
}

// writeRepoError maps a repository failure to its HTTP response.
func writeRepoError(w http.ResponseWriter, err error, action, requestID string, attrs ...any) {
	switch blueprint.KindOf(err) {
	case blueprint.KindNotFound:
		response.Err(w, http.StatusNotFound, "NOT_FOUND", "Blueprint not found", requestID)
	case blueprint.KindConflict:
		response.Err(w, http.StatusBadRequest, "DUPLICATE_BLUEPRINT", "Blueprint already exists", requestID)
	default:
		slog.Error("failed to "+action, append([]any{"error", err, "requestId", requestID}, attrs...)...)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to "+action, requestID)
	}
}

// Create handles POST /api/v1/blueprints.
func (h *BlueprintHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req createBlueprintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	var points []validation.PointInput
	if req.Points != nil {
		points = make([]validation.PointInput, 0, len(req.Points))
		for _, p := range req.Points {
			points = append(points, toPointInput(p))
		}
	}

	fieldErrors := validation.ValidateCreateBlueprintRequest(validation.CreateBlueprintRequest{
		Author: req.Author,
		Name:   req.Name,
		Points: points,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	bp := &blueprint.Blueprint{
		Author: req.Author,
		Name:   req.Name,
		Points: make([]blueprint.Point, 0, len(req.Points)),
	}
	for _, p := range req.Points {
		bp.Points = append(bp.Points, blueprint.Point{X: *p.X, Y: *p.Y})
	}

	if err := h.repo.Save(r.Context(), bp); err != nil {
		if blueprint.KindOf(err) == blueprint.KindConflict {
			response.Err(w, http.StatusBadRequest, "DUPLICATE_BLUEPRINT",
				fmt.Sprintf("Blueprint %s/%s already exists", bp.Author, bp.Name), requestID)
			return
		}
		writeRepoError(w, err, "create blueprint", requestID, "author", bp.Author, "name", bp.Name)
		return
	}

	response.Success(w, http.StatusCreated, toBlueprintResponse(bp), requestID)
}

// List handles GET /api/v1/blueprints.
func (h *BlueprintHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	blueprints, err := h.repo.List(r.Context())
	if err != nil {
		writeRepoError(w, err, "list blueprints", requestID)
		return
	}

	items := toBlueprintResponses(blueprints)
	response.SuccessList(w, http.StatusOK, items, len(items), requestID)
}

// ListByAuthor handles GET /api/v1/blueprints/{author}.
func (h *BlueprintHandler) ListByAuthor(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	author := pathParam(r, "author")

	blueprints, err := h.repo.ListByAuthor(r.Context(), author)
	if err != nil {
		if blueprint.KindOf(err) == blueprint.KindNotFound {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("No blueprints for author %s", author), requestID)
			return
		}
		writeRepoError(w, err, "list blueprints", requestID, "author", author)
		return
	}

	items := toBlueprintResponses(blueprints)
	response.SuccessList(w, http.StatusOK, items, len(items), requestID)
}

// Get handles GET /api/v1/blueprints/{author}/{bpname}.
func (h *BlueprintHandler) Get(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	author := pathParam(r, "author")
	name := pathParam(r, "bpname")

	bp, err := h.repo.Get(r.Context(), author, name)
	if err != nil {
		writeRepoError(w, err, "get blueprint", requestID, "author", author, "name", name)
		return
	}

	response.Success(w, http.StatusOK, toBlueprintResponse(bp), requestID)
}

// AppendPoint handles PUT /api/v1/blueprints/{author}/{bpname}/points and
// responds with the refreshed blueprint.
func (h *BlueprintHandler) AppendPoint(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	author := pathParam(r, "author")
	name := pathParam(r, "bpname")

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req pointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	if fieldErrors := validation.ValidatePointRequest(toPointInput(req)); len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	point := blueprint.Point{X: *req.X, Y: *req.Y}
	if _, err := h.repo.AppendPoint(r.Context(), author, name, point); err != nil {
		writeRepoError(w, err, "append point", requestID, "author", author, "name", name)
		return
	}

	bp, err := h.repo.Get(r.Context(), author, name)
	if err != nil {
		writeRepoError(w, err, "get blueprint", requestID, "author", author, "name", name)
		return
	}

	response.Success(w, http.StatusAccepted, toBlueprintResponse(bp), requestID)
}

// Delete handles DELETE /api/v1/blueprints/{author}/{bpname}.
func (h *BlueprintHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	author := pathParam(r, "author")
	name := pathParam(r, "bpname")

	if err := h.repo.Delete(r.Context(), author, name); err != nil {
		writeRepoError(w, err, "delete blueprint", requestID, "author", author, "name", name)
		return
	}

	response.NoContent(w)
}
