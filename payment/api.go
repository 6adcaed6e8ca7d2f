package payment

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/exp/slog"
)

//go:embed templates/payment.html
var templates embed.FS

var pageTemplate = template.Must(template.ParseFS(templates, "templates/payment.html"))

const maxFormBytes = 16 << 10

// API serves the payment form. Every outcome is rendered inline on the page
// with status 200.
type API struct {
	payment *Service
	logger  *slog.Logger
}

func NewAPI(payment *Service, logger *slog.Logger) *API {
	return &API{
		payment: payment,
		logger:  logger,
	}
}

func (a *API) AppendRoutes(r chi.Router) {
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/payment", http.StatusFound)
	})
	r.Route("/payment", func(r chi.Router) {
		r.Get("/", a.showForm)
		r.Post("/", a.submitForm)
	})
}

func (a *API) showForm(w http.ResponseWriter, r *http.Request) {
	a.render(w, a.payment.Page())
}

func (a *API) submitForm(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		a.logger.Info("parsing payment form", slog.Any("err", err))
		page := a.payment.Page()
		page.Message = ""
		page.ErrorMessage = MessageFixForm
		a.render(w, page)
		return
	}

	card, parseErrs := DecodeForm(r.PostForm)
	_, err := a.payment.Submit(r.Context(), card)

	page := a.payment.Render(card, err)
	for field, msg := range parseErrs {
		if page.FieldErrors != nil {
			page.FieldErrors[field] = msg
		}
	}
	a.render(w, page)
}

func (a *API) render(w http.ResponseWriter, page PageData) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, page); err != nil {
		a.logger.Error("rendering payment page", slog.Any("err", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
