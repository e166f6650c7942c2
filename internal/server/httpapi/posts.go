package httpapi

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dmitrijs2005/snipbin/internal/common"
	"github.com/dmitrijs2005/snipbin/internal/server/config"
	"github.com/dmitrijs2005/snipbin/internal/server/models"
	"github.com/dmitrijs2005/snipbin/internal/server/pagination"
	"github.com/google/uuid"
)

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter, err := parseFilter(q)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if s.cfg.PaginationMode == config.PaginationOffset {
		skip, err := intParam(q, "skip")
		if err != nil {
			s.fail(w, r, err)
			return
		}
		limit, err := intParam(q, "limit")
		if err != nil {
			s.fail(w, r, err)
			return
		}
		page, err := s.posts.ListOffset(r.Context(), pagination.OffsetParams{Filter: filter, Skip: skip, Limit: limit})
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, offsetResponse{
			Data:       toPostResponses(page.Items),
			HasMore:    page.HasMore,
			TotalCount: page.TotalCount,
		})
		return
	}

	sort, err := pagination.ParseSort(q.Get("sort"))
	if err != nil {
		s.fail(w, r, common.NewFieldError("sort", err))
		return
	}
	if filter.CreatedAt, err = timeFilter(q, "createdAt"); err != nil {
		s.fail(w, r, err)
		return
	}
	if filter.UpdatedAt, err = timeFilter(q, "updatedAt"); err != nil {
		s.fail(w, r, err)
		return
	}
	count, err := intParam(q, "count")
	if err != nil {
		s.fail(w, r, err)
		return
	}

	page, err := s.posts.List(r.Context(), pagination.Params{
		Filter:   filter,
		Sort:     sort,
		Token:    q.Get("token"),
		PageSize: count,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, keysetResponse{Data: toPostResponses(page.Items), Token: page.NextToken})
}

// parseFilter reads the equality filters shared by both listing modes.
func parseFilter(q url.Values) (pagination.Filter, error) {
	var f pagination.Filter
	if v := q.Get("ownerId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return f, common.NewFieldError("ownerId", fmt.Errorf("%w: not a uuid", common.ErrValidation))
		}
		f.OwnerID = &id
	}
	if v := q.Get("language"); v != "" {
		f.Language = &v
	}
	return f, nil
}

func timeFilter(q url.Values, name string) (*pagination.TimeFilter, error) {
	v := q.Get(name)
	if v == "" {
		return nil, nil
	}
	tf, err := pagination.ParseTimeFilter(v)
	if err != nil {
		return nil, common.NewFieldError(name, err)
	}
	return tf, nil
}

func intParam(q url.Values, name string) (int, error) {
	v := q.Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, common.NewFieldError(name, fmt.Errorf("%w: not an integer", common.ErrValidation))
	}
	return n, nil
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	p, err := s.posts.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPostResponse(p))
}

// handleRawPost redirects to the mirrored object when there is one and
// serves the content as plain text otherwise.
func (s *Server) handleRawPost(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	link, err := s.posts.RawURL(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if link != "" {
		http.Redirect(w, r, link, http.StatusTemporaryRedirect)
		return
	}

	p, err := s.posts.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(p.Content))
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var req createPostRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if req.Content == nil {
		s.fail(w, r, common.NewFieldError("content", fmt.Errorf("%w: required", common.ErrValidation)))
		return
	}

	p, err := s.posts.Create(r.Context(), principal(r).Account, models.NewPost{
		Content:  *req.Content,
		Name:     req.Name,
		Language: req.Language,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPostResponse(p))
}

func (s *Server) handleUpdatePost(w http.ResponseWriter, r *http.Request) {
	var req updatePostRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if req.Content.Set && req.Content.Value == nil {
		s.fail(w, r, common.NewFieldError("content", fmt.Errorf("%w: cannot be null", common.ErrValidation)))
		return
	}

	p, err := s.posts.Update(r.Context(), principal(r).UserID, r.PathValue("id"), models.PostPatch{
		Content:  req.Content.Value,
		Name:     req.Name,
		Language: req.Language,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPostResponse(p))
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	err := s.posts.Delete(r.Context(), principal(r).UserID, r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
