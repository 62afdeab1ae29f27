package http

import (
	"context"
	"fmt"
	"html/template"

	"github.com/utafrali/ClientReviews/internal/antiforgery"
	"github.com/utafrali/ClientReviews/internal/embed"
	"github.com/utafrali/ClientReviews/internal/service"
	"github.com/utafrali/ClientReviews/internal/view"
)

type noticeKey struct{}

func withNotice(ctx context.Context, n *service.Notice) context.Context {
	return context.WithValue(ctx, noticeKey{}, n)
}

func noticeFromContext(ctx context.Context) *service.Notice {
	n, _ := ctx.Value(noticeKey{}).(*service.Notice)
	return n
}

// FormMarker renders the review form with a fresh anti-forgery token. A
// failed submission's notice travels in ctx; submitted=1 in the query shows
// the success notice.
func (h *PublicHandler) FormMarker(ctx context.Context, req embed.Request) (template.HTML, error) {
	ctx, sessionID := ensureSession(ctx, req.Writer, req.HTTP, h.cookies)

	token, err := h.tokens.Issue(ctx, sessionID, antiforgery.ActionSubmitReview)
	if err != nil {
		return "", fmt.Errorf("issue form token: %w", err)
	}

	notice := noticeFromContext(ctx)
	if notice == nil && req.HTTP.URL.Query().Get(submittedParam) == "1" {
		notice = service.SuccessNotice()
	}

	return h.view.Form(view.FormData{
		Token:  token,
		PageID: req.PageID,
		Notice: notice,
	})
}

// SliderMarker renders published reviews. Attributes: count (alias posts)
// and excerpt_len.
func (h *PublicHandler) SliderMarker(ctx context.Context, req embed.Request) (template.HTML, error) {
	slider, err := h.slider.RenderSlider(ctx, service.ParseSliderOptions(req.Attrs))
	if err != nil {
		return "", err
	}
	return h.view.Slider(slider)
}
