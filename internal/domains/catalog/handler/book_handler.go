package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"catalog-backend/internal/domains/catalog/model"
	"catalog-backend/internal/shared/response"
)

type BookHandler struct {
	repo BookRepository
}

func NewBookHandler(repo BookRepository) *BookHandler {
	return &BookHandler{repo: repo}
}

// ════════════════════════════════════════════════════════════════
// LIST: GET /api/v1/books?page=1&pageSize=20&sort=-title&authors__name__ilike=
// ════════════════════════════════════════════════════════════════

func (h *BookHandler) List(c *gin.Context) {
	filter, page, err := parseBookQuery(c)
	if err != nil {
		renderError(c, err)
		return
	}

	var (
		total int64
		books []model.BookResponse
	)

	// Count và Find độc lập nhau, chạy song song
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		var err error
		books, err = h.repo.Find(ctx, filter, page)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = h.repo.Count(ctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		renderError(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, books, &response.Meta{
		Page:     page.Page,
		PageSize: page.PageSize,
		Total:    total,
	})
}

// ════════════════════════════════════════════════════════════════
// CREATE: POST /api/v1/books
// ════════════════════════════════════════════════════════════════

func (h *BookHandler) Create(c *gin.Context) {
	var req BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}

	resp, err := h.repo.Create(c.Request.Context(), req.toInput())
	if err != nil {
		renderError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, resp)
}

// ════════════════════════════════════════════════════════════════
// READ: GET /api/v1/books/:id
// ════════════════════════════════════════════════════════════════

func (h *BookHandler) GetByID(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		renderError(c, err)
		return
	}

	resp, err := h.repo.FindByID(c.Request.Context(), id)
	if err != nil {
		renderError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp)
}

// ════════════════════════════════════════════════════════════════
// REPLACE: PUT /api/v1/books/:id
// ════════════════════════════════════════════════════════════════

func (h *BookHandler) Replace(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		renderError(c, err)
		return
	}

	var req BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}

	resp, err := h.repo.Replace(c.Request.Context(), id, req.toInput())
	if err != nil {
		renderError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp)
}

// ════════════════════════════════════════════════════════════════
// UPDATE: PATCH /api/v1/books/:id
// ════════════════════════════════════════════════════════════════

func (h *BookHandler) Update(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		renderError(c, err)
		return
	}

	var req BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}

	resp, err := h.repo.Update(c.Request.Context(), id, req.toPatch())
	if err != nil {
		renderError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp)
}

// ════════════════════════════════════════════════════════════════
// DELETE: DELETE /api/v1/books/:id
// ════════════════════════════════════════════════════════════════

func (h *BookHandler) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		renderError(c, err)
		return
	}

	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		renderError(c, err)
		return
	}

	response.NoContent(c)
}
