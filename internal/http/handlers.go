package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/inventory-stock-service/internal/config"
	httpopenapi "github.com/fairyhunter13/inventory-stock-service/internal/http/openapi"
	"github.com/fairyhunter13/inventory-stock-service/internal/inventory"
	"github.com/fairyhunter13/inventory-stock-service/internal/journal"
	"github.com/fairyhunter13/inventory-stock-service/internal/obs"
)

const basePath = "/api/products"

type App struct {
	Cfg     config.Config
	Svc     *inventory.Service
	Journal *journal.Manager
	closing bool
	started time.Time
}

// productRequest is the body of create and update calls.
type productRequest struct {
	Name     string          `json:"name"`
	Quantity int64           `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

func NewApp(cfg config.Config, svc *inventory.Service, jm *journal.Manager) *App {
	return &App{Cfg: cfg, Svc: svc, Journal: jm, started: time.Now()}
}

func (a *App) StartShutdown() {
	a.closing = true
	if a.Journal != nil {
		a.Journal.CloseIntake()
	}
}

func (a *App) shuttingDown() bool {
	return a.closing || (a.Journal != nil && a.Journal.IsShuttingDown())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeProductRequest parses and shape-checks a create/update body.
func (a *App) decodeProductRequest(w http.ResponseWriter, r *http.Request) (productRequest, bool) {
	var req productRequest
	ct := r.Header.Get("Content-Type")
	if !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		WriteJSONError(w, http.StatusUnsupportedMediaType, "unsupported_media_type", "expected application/json")
		return req, false
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return req, false
	}
	return req, true
}

// productsHandler serves the collection: GET lists, POST creates.
func (a *App) productsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listProducts(w, r)
	case http.MethodPost:
		a.createProduct(w, r)
	default:
		WriteJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
	}
}

// productHandler serves everything under /api/products/: the low-stock and
// summary views, single-product reads and writes, and the sell operation.
func (a *App) productHandler(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, basePath+"/")
	if rest == "" || strings.Contains(strings.TrimSuffix(rest, "/sell"), "/") {
		WriteJSONError(w, http.StatusNotFound, "not_found", "")
		return
	}
	switch {
	case rest == "low-stock":
		if r.Method != http.MethodGet {
			WriteJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
			return
		}
		a.listLowStock(w, r)
	case rest == "summary":
		if r.Method != http.MethodGet {
			WriteJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
			return
		}
		a.summary(w, r)
	case strings.HasSuffix(rest, "/sell"):
		if r.Method != http.MethodPut {
			WriteJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
			return
		}
		a.sellProduct(w, r, strings.TrimSuffix(rest, "/sell"))
	default:
		switch r.Method {
		case http.MethodGet:
			a.getProduct(w, r, rest)
		case http.MethodPut:
			a.updateProduct(w, r, rest)
		case http.MethodDelete:
			a.deleteProduct(w, r, rest)
		default:
			WriteJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
		}
	}
}

func (a *App) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := a.Svc.Products(r.Context())
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (a *App) listLowStock(w http.ResponseWriter, r *http.Request) {
	products, err := a.Svc.LowStock(r.Context())
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (a *App) summary(w http.ResponseWriter, r *http.Request) {
	sum, err := a.Svc.Summary(r.Context())
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (a *App) getProduct(w http.ResponseWriter, r *http.Request, id string) {
	p, err := a.Svc.Product(r.Context(), id)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *App) createProduct(w http.ResponseWriter, r *http.Request) {
	if a.shuttingDown() {
		WriteJSONError(w, http.StatusServiceUnavailable, "shutting_down", "")
		return
	}
	req, ok := a.decodeProductRequest(w, r)
	if !ok {
		return
	}
	p, err := a.Svc.AddProduct(r.Context(), req.Name, req.Quantity, req.Price)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
	obs.Logger.Info("product_created",
		"request_id", RequestIDFromContext(r.Context()),
		"product_id", p.ID,
		"quantity", p.Quantity,
	)
}

func (a *App) updateProduct(w http.ResponseWriter, r *http.Request, id string) {
	if a.shuttingDown() {
		WriteJSONError(w, http.StatusServiceUnavailable, "shutting_down", "")
		return
	}
	req, ok := a.decodeProductRequest(w, r)
	if !ok {
		return
	}
	p, err := a.Svc.UpdateProduct(r.Context(), id, req.Name, req.Quantity, req.Price)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *App) sellProduct(w http.ResponseWriter, r *http.Request, id string) {
	if a.shuttingDown() {
		WriteJSONError(w, http.StatusServiceUnavailable, "shutting_down", "")
		return
	}
	raw := r.URL.Query().Get("amount")
	amount, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, "validation_error", "amount must be a positive integer")
		return
	}
	p, err := a.Svc.Sell(r.Context(), id, amount)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
	obs.Logger.Info("product_sold",
		"request_id", RequestIDFromContext(r.Context()),
		"product_id", p.ID,
		"amount", amount,
		"remaining", p.Quantity,
	)
}

func (a *App) deleteProduct(w http.ResponseWriter, r *http.Request, id string) {
	if a.shuttingDown() {
		WriteJSONError(w, http.StatusServiceUnavailable, "shutting_down", "")
		return
	}
	if err := a.Svc.DeleteProduct(r.Context(), id); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) metricsHandler(w http.ResponseWriter, r *http.Request) {
	m := map[string]any{
		"uptime_sec": time.Since(a.started).Seconds(),
	}
	if a.Journal != nil {
		enq, proc, backlog, depth := a.Journal.Metrics()
		m["journal_recorded"] = enq
		m["journal_processed"] = proc
		m["journal_backlog"] = backlog
		m["journal_depth"] = depth
		m["worker_count"] = a.Journal.WorkerCount()
	}
	writeJSON(w, http.StatusOK, m)
}

func (a *App) openapiHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(httpopenapi.YAML)
}

func (a *App) docsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	html := `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui'
      });
    </script>
  </body>
</html>`
	_, _ = w.Write([]byte(html))
}
