package http

import (
	"context"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/ClientReviews/internal/embed"
	"github.com/utafrali/ClientReviews/internal/service"
	"github.com/utafrali/ClientReviews/internal/view"
	apperrors "github.com/utafrali/ClientReviews/pkg/errors"
	"github.com/utafrali/ClientReviews/pkg/logger"
)

const (
	submittedParam = "submitted"
	maxFormBytes   = 64 << 10
	pageTitle      = "Client Reviews"
	unavailableMsg = "There was an error. Try again later."
)

// TokenIssuer issues anti-forgery tokens.
type TokenIssuer interface {
	Issue(ctx context.Context, sessionID, action string) (string, error)
}

// PublicHandler serves the host pages, embeddable fragments and form posts.
type PublicHandler struct {
	registry   *embed.Registry
	view       *view.Renderer
	submission *service.SubmissionService
	slider     *service.SliderService
	tokens     TokenIssuer
	cookies    CookieConfig
	logger     *slog.Logger
}

// NewPublicHandler creates a new public HTTP handler. Its FormMarker and
// SliderMarker methods are meant to be registered on registry.
func NewPublicHandler(
	registry *embed.Registry,
	renderer *view.Renderer,
	submission *service.SubmissionService,
	slider *service.SliderService,
	tokens TokenIssuer,
	cookies CookieConfig,
	logger *slog.Logger,
) *PublicHandler {
	return &PublicHandler{
		registry:   registry,
		view:       renderer,
		submission: submission,
		slider:     slider,
		tokens:     tokens,
		cookies:    cookies,
		logger:     logger,
	}
}

// Home handles GET / by redirecting to the first demo page.
func (h *PublicHandler) Home(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/pages/1", http.StatusFound)
}

// ShowPage handles GET /pages/{pageID}.
func (h *PublicHandler) ShowPage(w http.ResponseWriter, r *http.Request) {
	pageID, ok := parsePageParam(w, r)
	if !ok {
		return
	}
	h.renderPage(w, r, pageID, http.StatusOK)
}

// SubmitPage handles POST /pages/{pageID}.
func (h *PublicHandler) SubmitPage(w http.ResponseWriter, r *http.Request) {
	pageID, ok := parsePageParam(w, r)
	if !ok {
		return
	}
	h.submit(w, r, func(w http.ResponseWriter, r *http.Request, status int) {
		h.renderPage(w, r, pageID, status)
	})
}

// ShowEmbed handles GET /embed/{marker}. Query parameters become marker
// attributes.
func (h *PublicHandler) ShowEmbed(w http.ResponseWriter, r *http.Request) {
	h.renderFragment(w, r, chi.URLParam(r, "marker"), http.StatusOK)
}

// ShowSlider handles GET /embed/review_slider, which host sites on the
// configured origins may fetch cross-origin.
func (h *PublicHandler) ShowSlider(w http.ResponseWriter, r *http.Request) {
	h.renderFragment(w, r, embed.MarkerReviewSlider, http.StatusOK)
}

// SubmitEmbed handles POST /embed/review_form.
func (h *PublicHandler) SubmitEmbed(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, func(w http.ResponseWriter, r *http.Request, status int) {
		h.renderFragment(w, r, embed.MarkerReviewForm, status)
	})
}

type renderFunc func(w http.ResponseWriter, r *http.Request, status int)

// submit runs one form post. Success answers 303 See Other back to the same
// URL with submitted=1; failure re-renders inline with the error notice.
func (h *PublicHandler) submit(w http.ResponseWriter, r *http.Request, rerender renderFunc) {
	ctx, sessionID := ensureSession(r.Context(), w, r, h.cookies)
	r = r.WithContext(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, apperrors.ValidationFailed(nil), rerender)
		return
	}

	_, err := h.submission.Submit(ctx, service.SubmitInput{
		Name:         r.PostFormValue("name"),
		Email:        r.PostFormValue("email"),
		Message:      r.PostFormValue("message"),
		OriginPageID: r.PostFormValue("page_id"),
		Token:        r.PostFormValue(view.TokenField),
		SessionID:    sessionID,
	})
	if err != nil {
		h.fail(w, r, err, rerender)
		return
	}

	http.Redirect(w, r, submittedURL(r.URL), http.StatusSeeOther)
}

func (h *PublicHandler) fail(w http.ResponseWriter, r *http.Request, err error, rerender renderFunc) {
	ctx := withNotice(r.Context(), service.ErrorNotice(err))
	rerender(w, r.WithContext(ctx), apperrors.HTTPStatus(err))
}

func (h *PublicHandler) renderPage(w http.ResponseWriter, r *http.Request, pageID, status int) {
	ctx := r.Context()
	req := embed.Request{PageID: pageID, Attrs: queryAttrs(r.URL.Query()), HTTP: r, Writer: w}

	slider, err := h.registry.Render(ctx, embed.MarkerReviewSlider, req)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	form, err := h.registry.Render(ctx, embed.MarkerReviewForm, req)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.view.Page(w, view.PageData{
		Title:  pageTitle,
		PageID: pageID,
		Slider: slider,
		Form:   form,
	}); err != nil {
		logger.WithContext(ctx, h.logger).Error("failed to write page", slog.String("error", err.Error()))
	}
}

func (h *PublicHandler) renderFragment(w http.ResponseWriter, r *http.Request, marker string, status int) {
	q := r.URL.Query()
	pageID, _ := strconv.Atoi(q.Get("page_id"))

	out, err := h.registry.Render(r.Context(), marker, embed.Request{
		PageID: max(pageID, 0),
		Attrs:  queryAttrs(q),
		HTTP:   r,
		Writer: w,
	})
	if errors.Is(err, embed.ErrUnknownMarker) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	writeHTML(w, status, out)
}

func (h *PublicHandler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	logger.WithContext(r.Context(), h.logger).Error("failed to render",
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	http.Error(w, unavailableMsg, http.StatusServiceUnavailable)
}

func writeHTML(w http.ResponseWriter, status int, body template.HTML) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// submittedURL returns u's path and query with any submitted parameter
// replaced by a trailing submitted=1.
func submittedURL(u *url.URL) string {
	q := u.Query()
	q.Del(submittedParam)

	target := u.EscapedPath()
	if encoded := q.Encode(); encoded != "" {
		return target + "?" + encoded + "&" + submittedParam + "=1"
	}
	return target + "?" + submittedParam + "=1"
}

// queryAttrs flattens a query string to its first value per key.
func queryAttrs(q url.Values) map[string]string {
	attrs := make(map[string]string, len(q))
	for k, v := range q {
		if len(v) > 0 {
			attrs[k] = v[0]
		}
	}
	return attrs
}

func parsePageParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "pageID"))
	if err != nil || id <= 0 {
		http.NotFound(w, r)
		return 0, false
	}
	return id, true
}
