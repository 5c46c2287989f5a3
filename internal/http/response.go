package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/atom19-i/superannuation/internal/core"
	"github.com/atom19-i/superannuation/internal/engine"
	"github.com/atom19-i/superannuation/internal/projection"
	"github.com/atom19-i/superannuation/internal/storage"
)

// ResponseBuilder provides a fluent API for building JSON responses.
type ResponseBuilder struct {
	statusCode int
	headers    map[string]string
	payload    any
}

// NewResponse creates a response builder with default 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// JSON sets the response payload.
func (b *ResponseBuilder) JSON(payload any) *ResponseBuilder {
	b.payload = payload
	return b
}

// Write marshals and sends the built response.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.payload == nil {
		w.WriteHeader(b.statusCode)
		return
	}

	body, err := json.Marshal(b.payload)
	if err != nil {
		http.Error(w, `{"status":"INTERNAL","error":"response encoding failed"}`,
			http.StatusInternalServerError)
		return
	}
	writeJSONBytes(w, b.statusCode, body)
}

func writeJSONBytes(w http.ResponseWriter, statusCode int, body []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	_, _ = w.Write(body)
}

type errorBody struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// ErrorResponse creates a standard error envelope.
func ErrorResponse(httpStatus int, code, message string) *ResponseBuilder {
	return NewResponse().Status(httpStatus).JSON(errorBody{Status: code, Error: message})
}

// InternalError creates a 500 response.
func InternalError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, statusInternal, message)
}

// InvalidInputError creates a 422 response.
func InvalidInputError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, statusInvalidInput, message)
}

// NotFoundError creates a 404 response.
func NotFoundError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusNotFound, statusInvalidInput, message)
}

// MethodNotAllowedError creates a 405 response naming the allowed methods.
func MethodNotAllowedError(allowedMethods string) *ResponseBuilder {
	return NewResponse().
		Status(http.StatusMethodNotAllowed).
		Header("Allow", allowedMethods).
		JSON(errorBody{Status: statusInvalidInput, Error: "method not allowed"})
}

func (e *requestError) response() *ResponseBuilder {
	return ErrorResponse(e.httpStatus, e.code, e.message)
}

// Wire DTOs. All monetary fields serialize as exact two-decimal rupee values.

type transactionDTO struct {
	Timestamp     string  `json:"timestamp"`
	Amount        float64 `json:"amount"`
	Ceiling       float64 `json:"ceiling"`
	Remanent      float64 `json:"remanent"`
	RemanentBase  float64 `json:"remanentBase"`
	RemanentFinal float64 `json:"remanentFinal"`
}

type rejectionDTO struct {
	Transaction int    `json:"transaction"`
	Code        string `json:"code"`
	Message     string `json:"message"`
}

type windowDTO struct {
	ID     string  `json:"id"`
	Start  string  `json:"start"`
	End    string  `json:"end"`
	Amount float64 `json:"amount"`
}

type totalsDTO struct {
	Amount   float64 `json:"amount"`
	Ceiling  float64 `json:"ceiling"`
	Remanent float64 `json:"remanent"`
}

type roundupResponse struct {
	Status       string           `json:"status"`
	RunID        int64            `json:"runId,omitempty"`
	Transactions []transactionDTO `json:"transactions"`
	Rejected     []rejectionDTO   `json:"rejected"`
	Duplicates   []rejectionDTO   `json:"duplicates"`
	Windows      []windowDTO      `json:"windows"`
	Totals       totalsDTO        `json:"totals"`
}

type validateResponse struct {
	Status     string           `json:"status"`
	Valid      []transactionDTO `json:"valid"`
	Invalid    []rejectionDTO   `json:"invalid"`
	Duplicates []rejectionDTO   `json:"duplicates"`
}

type projectionWindowDTO struct {
	windowDTO
	Profits    float64 `json:"profits"`
	TaxBenefit float64 `json:"taxBenefit"`
	RealValue  float64 `json:"realValue"`
}

type projectionResponse struct {
	Status       string                `json:"status"`
	RunID        int64                 `json:"runId,omitempty"`
	HorizonYears int                   `json:"horizonYears"`
	Windows      []projectionWindowDTO `json:"windows"`
	Rejected     []rejectionDTO        `json:"rejected"`
	Duplicates   []rejectionDTO        `json:"duplicates"`
	Totals       totalsDTO             `json:"totals"`
}

// qualifyRejection prefixes a per-record message with the record's input path
// so callers can locate it without counting.
func qualifyRejection(rej engine.Rejected) rejectionDTO {
	msg := rej.Message
	qualified := fmt.Sprintf("transactions[%d]: %s", rej.Record.Pos, msg)
	for _, field := range []string{"timestamp", "amount", "remanent"} {
		if strings.HasPrefix(msg, field) {
			qualified = fmt.Sprintf("transactions[%d].%s", rej.Record.Pos, msg)
			break
		}
	}
	return rejectionDTO{
		Transaction: rej.Record.Pos,
		Code:        string(rej.Code),
		Message:     qualified,
	}
}

func qualifyRejections(rejs []engine.Rejected) []rejectionDTO {
	out := make([]rejectionDTO, 0, len(rejs))
	for _, rej := range rejs {
		out = append(out, qualifyRejection(rej))
	}
	return out
}

func buildTransactionDTOs(txs []core.Transaction) []transactionDTO {
	out := make([]transactionDTO, 0, len(txs))
	for _, tx := range txs {
		out = append(out, transactionDTO{
			Timestamp:     tx.Timestamp,
			Amount:        tx.Amount.Display(),
			Ceiling:       tx.Ceiling.Display(),
			Remanent:      tx.FinalRemanent.Display(),
			RemanentBase:  tx.BaseRemanent.Display(),
			RemanentFinal: tx.FinalRemanent.Display(),
		})
	}
	return out
}

func buildWindowDTO(sum engine.WindowSum) windowDTO {
	return windowDTO{
		ID:     sum.Window.ID,
		Start:  sum.Window.StartText,
		End:    sum.Window.EndText,
		Amount: sum.Amount.Display(),
	}
}

func buildTotalsDTO(t engine.Totals) totalsDTO {
	return totalsDTO{
		Amount:   t.Amount.Display(),
		Ceiling:  t.Ceiling.Display(),
		Remanent: t.Remanent.Display(),
	}
}

func buildRoundupResponse(res engine.Result, runID int64) roundupResponse {
	windows := make([]windowDTO, 0, len(res.Windows))
	for _, sum := range res.Windows {
		windows = append(windows, buildWindowDTO(sum))
	}
	return roundupResponse{
		Status:       "OK",
		RunID:        runID,
		Transactions: buildTransactionDTOs(res.Outcome.Valid),
		Rejected:     qualifyRejections(res.Outcome.Invalid),
		Duplicates:   qualifyRejections(res.Outcome.Duplicates),
		Windows:      windows,
		Totals:       buildTotalsDTO(res.Totals),
	}
}

func buildValidateResponse(out engine.Outcome) validateResponse {
	return validateResponse{
		Status:     "OK",
		Valid:      buildTransactionDTOs(out.Valid),
		Invalid:    qualifyRejections(out.Invalid),
		Duplicates: qualifyRejections(out.Duplicates),
	}
}

func buildProjectionResponse(res engine.Result, params projection.Params, runID int64) (projectionResponse, error) {
	windows := make([]projectionWindowDTO, 0, len(res.Windows))
	for _, sum := range res.Windows {
		outcome, err := projection.Project(sum.Amount.Display(), params)
		if err != nil {
			return projectionResponse{}, err
		}
		windows = append(windows, projectionWindowDTO{
			windowDTO:  buildWindowDTO(sum),
			Profits:    outcome.Profit,
			TaxBenefit: outcome.TaxBenefit,
			RealValue:  outcome.Real,
		})
	}
	return projectionResponse{
		Status:       "OK",
		RunID:        runID,
		HorizonYears: projection.HorizonYears(params.Age),
		Windows:      windows,
		Rejected:     qualifyRejections(res.Outcome.Invalid),
		Duplicates:   qualifyRejections(res.Outcome.Duplicates),
		Totals:       buildTotalsDTO(res.Totals),
	}, nil
}

type runDTO struct {
	ID            int64   `json:"id"`
	Digest        string  `json:"digest"`
	Instrument    string  `json:"instrument,omitempty"`
	Accepted      int64   `json:"accepted"`
	Rejected      int64   `json:"rejected"`
	Duplicates    int64   `json:"duplicates"`
	Windows       int64   `json:"windows"`
	TotalAmount   float64 `json:"totalAmount"`
	TotalCeiling  float64 `json:"totalCeiling"`
	TotalRemanent float64 `json:"totalRemanent"`
	CreatedAt     string  `json:"createdAt"`
	Exported      bool    `json:"exported"`
}

func buildRunDTOs(runs []storage.Run) []runDTO {
	out := make([]runDTO, 0, len(runs))
	for _, run := range runs {
		out = append(out, runDTO{
			ID:            run.ID,
			Digest:        run.Digest,
			Instrument:    run.Instrument,
			Accepted:      run.Accepted,
			Rejected:      run.Rejected,
			Duplicates:    run.Duplicates,
			Windows:       run.Windows,
			TotalAmount:   core.Paise(run.AmountPaise).Display(),
			TotalCeiling:  core.Paise(run.CeilingPaise).Display(),
			TotalRemanent: core.Paise(run.RemanentPaise).Display(),
			CreatedAt:     run.CreatedAt.In(core.IST).Format(core.TimestampLayout),
			Exported:      run.ExportedAt.Valid,
		})
	}
	return out
}
