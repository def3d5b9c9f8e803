// Package httpserver exposes the user directory as a JSON API for the dashboard table.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/and161185/userdir/internal/errs"
	"github.com/and161185/userdir/internal/model"
)

// Store is the part of service.Directory the API needs.
type Store interface {
	View(st model.ViewState) (model.View, error)
	Status() model.Status
	Add(ctx context.Context, u model.User) (model.User, error)
	Edit(ctx context.Context, u model.User) (model.User, error)
	Delete(ctx context.Context, id int) error
}

// UserRequest is the create/replace payload.
type UserRequest struct {
	FirstName  string `json:"firstName" binding:"required"`
	LastName   string `json:"lastName" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Department string `json:"department"`
}

func (r UserRequest) user(id int) model.User {
	return model.User{ID: id, FirstName: r.FirstName, LastName: r.LastName, Email: r.Email, Department: r.Department}
}

// ListResponse is a page of the directory plus the lifecycle flags.
type ListResponse struct {
	model.View
	Status model.Status `json:"status"`
}

// Server wires HTTP routes to the Store.
type Server struct {
	store Store
}

// New returns a Server.
func New(store Store) *Server {
	return &Server{store: store}
}

// RegisterRoutes mounts the directory routes on rg.
func (s *Server) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/status", s.status)
	users := rg.Group("/users")
	{
		users.GET("", s.list)
		users.POST("", s.create)
		users.PUT("/:id", s.replace)
		users.DELETE("/:id", s.remove)
	}
}

func (s *Server) status(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Status())
}

func (s *Server) list(c *gin.Context) {
	st := model.NewViewState()
	st.SetFilter(c.Query("filter"))
	if v := c.Query("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			BadRequest(c, "invalid_query", "size must be an integer")
			return
		}
		st.PageSize = n
	}
	if v := c.Query("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			BadRequest(c, "invalid_query", "page must be an integer")
			return
		}
		st.Page = n
	}

	v, err := s.store.View(st)
	if err != nil {
		s.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, ListResponse{View: v, Status: s.store.Status()})
}

func (s *Server) create(c *gin.Context) {
	var req UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ValidationError(c, err)
		return
	}
	u, err := s.store.Add(c.Request.Context(), req.user(0))
	if err != nil {
		s.handleError(c, err)
		return
	}
	c.Header("Location", fmt.Sprintf("%s/%d", c.FullPath(), u.ID))
	c.JSON(http.StatusCreated, u)
}

func (s *Server) replace(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ValidationError(c, err)
		return
	}
	u, err := s.store.Edit(c.Request.Context(), req.user(id))
	if err != nil {
		s.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (s *Server) remove(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.store.Delete(c.Request.Context(), id); err != nil {
		s.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func pathID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		BadRequest(c, "invalid_id", "id must be a positive integer")
		return 0, false
	}
	return id, true
}

func (s *Server) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errs.ErrLoading):
		Unavailable(c, err.Error())
	case errors.Is(err, errs.ErrNotFound):
		NotFound(c, "user")
	case errors.Is(err, errs.ErrInvalidPage), errors.Is(err, errs.ErrInvalidPageSize):
		BadRequest(c, "invalid_query", err.Error())
	case errors.Is(err, errs.ErrCreateFailed):
		Failure(c, "create_failed", errs.ErrCreateFailed.Error())
	case errors.Is(err, errs.ErrUpdateFailed):
		Failure(c, "update_failed", errs.ErrUpdateFailed.Error())
	case errors.Is(err, errs.ErrDeleteFailed):
		Failure(c, "delete_failed", errs.ErrDeleteFailed.Error())
	case errors.Is(err, errs.ErrCacheSealed), errors.Is(err, errs.ErrCacheVersion):
		Failure(c, "cache_unavailable", err.Error())
	default:
		Failure(c, "internal_error", "unexpected error")
	}
}
