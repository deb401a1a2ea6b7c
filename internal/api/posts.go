package api

import (
	"fmt"
	"net/http"

	"github.com/osstd/The-Blog/internal/blog"
)

// PostPage renders a single post with its comments and mean rating.
// Posts are world-readable; no login required.
func (h *Handler) PostPage(w http.ResponseWriter, r *http.Request) {
	id := urlID(r, "postID")
	if id == 0 {
		h.NotFound(w, r)
		return
	}

	view, err := h.posts.Get(r.Context(), id)
	if err != nil {
		if blog.KindOf(err) == blog.KindNotFound {
			h.NotFound(w, r)
			return
		}
		h.flashAndRedirect(w, r, err, "/error")
		return
	}

	h.render(w, r, http.StatusOK, "post.html", view.Post.Title, view)
}

func (h *Handler) NewPostPage(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{"Heading": "New Post", "Post": nil}
	h.render(w, r, http.StatusOK, "make-post.html", "New Post", data)
}

func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	actor := CurrentUser(r.Context())

	post, err := h.posts.Create(r.Context(), actor, parsePostForm(r))
	if err != nil {
		if blog.KindOf(err) == blog.KindForbidden {
			h.flashAndRedirect(w, r, err, "/")
			return
		}
		h.flashAndRedirect(w, r, err, "/new-post")
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/post/%d", post.ID), http.StatusSeeOther)
}

func (h *Handler) EditPostPage(w http.ResponseWriter, r *http.Request) {
	id := urlID(r, "postID")
	if id == 0 {
		h.NotFound(w, r)
		return
	}

	view, err := h.posts.Get(r.Context(), id)
	if err != nil {
		h.flashAndRedirect(w, r, err, "/")
		return
	}

	data := map[string]any{"Heading": "Edit Post", "Post": view.Post}
	h.render(w, r, http.StatusOK, "make-post.html", "Edit Post", data)
}

func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	id := urlID(r, "postID")
	if id == 0 {
		h.NotFound(w, r)
		return
	}
	actor := CurrentUser(r.Context())

	post, err := h.posts.Update(r.Context(), actor, id, parsePostForm(r))
	if err != nil {
		switch blog.KindOf(err) {
		case blog.KindValidation, blog.KindConflict:
			h.flashAndRedirect(w, r, err, fmt.Sprintf("/edit-post/%d", id))
		default:
			h.flashAndRedirect(w, r, err, fmt.Sprintf("/post/%d", id))
		}
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/post/%d", post.ID), http.StatusSeeOther)
}

func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	id := urlID(r, "postID")
	if id == 0 {
		h.NotFound(w, r)
		return
	}
	actor := CurrentUser(r.Context())

	if err := h.posts.Delete(r.Context(), actor, id); err != nil {
		h.flashAndRedirect(w, r, err, fmt.Sprintf("/post/%d", id))
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// AddComment attaches a comment to the post. One comment per user per post;
// a second attempt flashes a conflict message.
func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	id := urlID(r, "postID")
	if id == 0 {
		h.NotFound(w, r)
		return
	}
	actor := CurrentUser(r.Context())
	target := fmt.Sprintf("/post/%d", id)

	if _, err := h.comments.Create(r.Context(), actor, id, r.FormValue("comment")); err != nil {
		h.flashAndRedirect(w, r, err, target)
		return
	}

	http.Redirect(w, r, target, http.StatusSeeOther)
}

// AddRating records a 0-10 rating. One rating per user per post.
func (h *Handler) AddRating(w http.ResponseWriter, r *http.Request) {
	id := urlID(r, "postID")
	if id == 0 {
		h.NotFound(w, r)
		return
	}
	actor := CurrentUser(r.Context())
	target := fmt.Sprintf("/post/%d", id)

	if _, err := h.ratings.Create(r.Context(), actor, id, parseRatingValue(r)); err != nil {
		h.flashAndRedirect(w, r, err, target)
		return
	}

	http.Redirect(w, r, target, http.StatusSeeOther)
}
