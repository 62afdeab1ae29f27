package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"strings"
	"time"

	"github.com/utafrali/ClientReviews/internal/service"
)

// TokenField is the form field carrying the anti-forgery token.
const TokenField = "_token"

// DefaultAssetBase is where Assets is mounted by the HTTP router.
const DefaultAssetBase = "/assets"

// AutoAdvance is the slider auto-advance period.
const AutoAdvance = 5 * time.Second

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed assets/*.css assets/*.js
var assetsFS embed.FS

// Assets returns the static slider stylesheet and script.
func Assets() fs.FS {
	sub, err := fs.Sub(assetsFS, "assets")
	if err != nil {
		panic(err)
	}
	return sub
}

// FormData is the view model of the review form.
type FormData struct {
	// Action is the URL the form posts to; empty posts to the current URL.
	Action string
	Token  string
	PageID int
	Notice *service.Notice
}

// PageData is the view model of the demo host page.
type PageData struct {
	Title  string
	PageID int
	Slider template.HTML
	Form   template.HTML
}

// Renderer executes the embedded templates.
type Renderer struct {
	tmpl      *template.Template
	assetBase string
}

// New parses the embedded templates. assetBase is the URL prefix of Assets;
// empty uses DefaultAssetBase.
func New(assetBase string) (*Renderer, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	if assetBase == "" {
		assetBase = DefaultAssetBase
	}
	return &Renderer{tmpl: tmpl, assetBase: strings.TrimRight(assetBase, "/")}, nil
}

// Form renders the review form fragment.
func (r *Renderer) Form(data FormData) (template.HTML, error) {
	return r.fragment("form", struct {
		FormData
		TokenField string
	}{data, TokenField})
}

// Slider renders the review carousel, or the empty-state paragraph when s
// holds no cards.
func (r *Renderer) Slider(s *service.Slider) (template.HTML, error) {
	empty := s == nil || s.Empty || len(s.Cards) == 0
	data := struct {
		Empty      bool
		Cards      []service.Card
		AssetBase  string
		IntervalMS int64
	}{
		Empty:      empty,
		AssetBase:  r.assetBase,
		IntervalMS: AutoAdvance.Milliseconds(),
	}
	if !empty {
		data.Cards = s.Cards
	}
	return r.fragment("slider", data)
}

// Page writes a complete HTML document.
func (r *Renderer) Page(w io.Writer, data PageData) error {
	if err := r.tmpl.ExecuteTemplate(w, "page", struct {
		PageData
		AssetBase string
	}{data, r.assetBase}); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	return nil
}

func (r *Renderer) fragment(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return template.HTML(buf.String()), nil // #nosec G203 -- produced by html/template
}
