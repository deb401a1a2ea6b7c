package api

import (
	"fmt"
	"net/http"
)

// Feedback pages let a user revise or withdraw their own comments and
// ratings. Ownership is enforced in the services; admins get no override
// here.

func (h *Handler) EditCommentPage(w http.ResponseWriter, r *http.Request) {
	id := urlID(r, "commentID")
	if id == 0 {
		h.NotFound(w, r)
		return
	}
	actor := CurrentUser(r.Context())

	comment, err := h.comments.GetOwn(r.Context(), actor, id)
	if err != nil {
		h.flashAndRedirect(w, r, err, "/user")
		return
	}

	data := map[string]any{"Comment": comment}
	h.render(w, r, http.StatusOK, "edit-comment.html", "Edit Comment", data)
}

func (h *Handler) EditComment(w http.ResponseWriter, r *http.Request) {
	id := urlID(r, "commentID")
	if id == 0 {
		h.NotFound(w, r)
		return
	}
	actor := CurrentUser(r.Context())

	comment, err := h.comments.Edit(r.Context(), actor, id, r.FormValue("comment"))
	if err != nil {
		h.flashAndRedirect(w, r, err, "/user")
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/post/%d", comment.PostID), http.StatusSeeOther)
}

func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	id := urlID(r, "commentID")
	if id == 0 {
		h.NotFound(w, r)
		return
	}
	actor := CurrentUser(r.Context())

	comment, err := h.comments.Delete(r.Context(), actor, id)
	if err != nil {
		h.flashAndRedirect(w, r, err, "/user")
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/post/%d", comment.PostID), http.StatusSeeOther)
}

func (h *Handler) EditRatingPage(w http.ResponseWriter, r *http.Request) {
	id := urlID(r, "ratingID")
	if id == 0 {
		h.NotFound(w, r)
		return
	}
	actor := CurrentUser(r.Context())

	rating, err := h.ratings.GetOwn(r.Context(), actor, id)
	if err != nil {
		h.flashAndRedirect(w, r, err, "/user")
		return
	}

	data := map[string]any{"Rating": rating}
	h.render(w, r, http.StatusOK, "edit-rating.html", "Edit Rating", data)
}

func (h *Handler) EditRating(w http.ResponseWriter, r *http.Request) {
	id := urlID(r, "ratingID")
	if id == 0 {
		h.NotFound(w, r)
		return
	}
	actor := CurrentUser(r.Context())

	rating, err := h.ratings.Edit(r.Context(), actor, id, parseRatingValue(r))
	if err != nil {
		h.flashAndRedirect(w, r, err, "/user")
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/post/%d", rating.PostID), http.StatusSeeOther)
}

func (h *Handler) DeleteRating(w http.ResponseWriter, r *http.Request) {
	id := urlID(r, "ratingID")
	if id == 0 {
		h.NotFound(w, r)
		return
	}
	actor := CurrentUser(r.Context())

	rating, err := h.ratings.Delete(r.Context(), actor, id)
	if err != nil {
		h.flashAndRedirect(w, r, err, "/user")
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/post/%d", rating.PostID), http.StatusSeeOther)
}
