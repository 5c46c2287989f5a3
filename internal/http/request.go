package http

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/atom19-i/superannuation/internal/core"
	"github.com/atom19-i/superannuation/internal/engine"
	"github.com/atom19-i/superannuation/internal/projection"
)

// Wire shapes. Amount-like fields stay untyped so callers may send either a
// decimal string or a JSON number.
type txRecord struct {
	Timestamp string `json:"timestamp"`
	Amount    any    `json:"amount"`
	Remanent  any    `json:"remanent,omitempty"`
}

type overrideRecord struct {
	ID    string `json:"id"`
	Fixed any    `json:"fixed"`
	Start string `json:"start"`
	End   string `json:"end"`
}

type extraRecord struct {
	ID    string `json:"id"`
	Extra any    `json:"extra"`
	Start string `json:"start"`
	End   string `json:"end"`
}

type windowRecord struct {
	ID    string `json:"id"`
	Start string `json:"start"`
	End   string `json:"end"`
}

type roundupRequest struct {
	Transactions []txRecord       `json:"transactions"`
	Overrides    []overrideRecord `json:"overrides"`
	Extras       []extraRecord    `json:"extras"`
	Windows      []windowRecord   `json:"windows"`
}

type projectionRequest struct {
	roundupRequest
	Instrument  string  `json:"instrument"`
	Age         int     `json:"age"`
	MonthlyWage float64 `json:"monthlyWage"`
	Inflation   float64 `json:"inflation"`
}

// requestError is a request-level rejection: the whole batch is refused, as
// opposed to the per-record rejections inside a run.
type requestError struct {
	httpStatus int
	code       string
	message    string
}

const (
	statusInvalidInput    = "INVALID_INPUT"
	statusPayloadTooLarge = "PAYLOAD_TOO_LARGE"
	statusInternal        = "INTERNAL"
)

func invalidInput(format string, args ...any) *requestError {
	return &requestError{
		httpStatus: http.StatusUnprocessableEntity,
		code:       statusInvalidInput,
		message:    fmt.Sprintf(format, args...),
	}
}

func payloadTooLarge(format string, args ...any) *requestError {
	return &requestError{
		httpStatus: http.StatusRequestEntityTooLarge,
		code:       statusPayloadTooLarge,
		message:    fmt.Sprintf(format, args...),
	}
}

// readBody drains the request body under the configured size cap.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, *requestError) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.secMetrics.recordOversized()
			return nil, payloadTooLarge("request body exceeds the %d byte limit", maxErr.Limit)
		}
		return nil, invalidInput("request body could not be read")
	}
	return body, nil
}

// digestOf keys caching and run recording by exact request bytes.
func digestOf(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// buildInput converts wire records into a pipeline input. Transactions pass
// through raw (the pipeline screens them record by record); a malformed
// period refuses the whole request with a path-qualified message.
func buildInput(req roundupRequest, maxRecords int, profile engine.Profile) (engine.Input, *requestError) {
	if len(req.Transactions) > maxRecords {
		return engine.Input{}, payloadTooLarge("transactions exceeds the %d record limit", maxRecords)
	}
	if len(req.Overrides) > maxRecords {
		return engine.Input{}, payloadTooLarge("overrides exceeds the %d record limit", maxRecords)
	}
	if len(req.Extras) > maxRecords {
		return engine.Input{}, payloadTooLarge("extras exceeds the %d record limit", maxRecords)
	}
	if len(req.Windows) > maxRecords {
		return engine.Input{}, payloadTooLarge("windows exceeds the %d record limit", maxRecords)
	}

	in := engine.Input{Profile: profile}

	for i, rec := range req.Transactions {
		in.Transactions = append(in.Transactions, engine.RawTransaction{
			Timestamp: rec.Timestamp,
			Amount:    rec.Amount,
			Remanent:  rec.Remanent,
			Pos:       i,
		})
	}

	for i, rec := range req.Overrides {
		start, end, rerr := parsePeriod("overrides", i, rec.Start, rec.End)
		if rerr != nil {
			return engine.Input{}, rerr
		}
		field := fmt.Sprintf("overrides[%d].fixed", i)
		fixed, err := core.ParseAmount(rec.Fixed)
		if err != nil {
			return engine.Input{}, invalidInput("%s must be a valid decimal value", field)
		}
		if err := core.ValidateRange(fixed, 0, core.MaxAmountPaise, field); err != nil {
			return engine.Input{}, invalidInput("%s", err)
		}
		in.Overrides = append(in.Overrides, core.OverridePeriod{
			ID: rec.ID, Fixed: fixed, Start: start, End: end, Pos: i,
		})
	}

	for i, rec := range req.Extras {
		start, end, rerr := parsePeriod("extras", i, rec.Start, rec.End)
		if rerr != nil {
			return engine.Input{}, rerr
		}
		field := fmt.Sprintf("extras[%d].extra", i)
		extra, err := core.ParseAmount(rec.Extra)
		if err != nil {
			return engine.Input{}, invalidInput("%s must be a valid decimal value", field)
		}
		if err := core.ValidateRange(extra, 0, core.MaxAmountPaise, field); err != nil {
			return engine.Input{}, invalidInput("%s", err)
		}
		in.Extras = append(in.Extras, core.ExtraPeriod{
			ID: rec.ID, Extra: extra, Start: start, End: end,
		})
	}

	for i, rec := range req.Windows {
		start, end, rerr := parsePeriod("windows", i, rec.Start, rec.End)
		if rerr != nil {
			return engine.Input{}, rerr
		}
		in.Windows = append(in.Windows, core.SavingsWindow{
			ID: rec.ID, Start: start, End: end,
			StartText: rec.Start, EndText: rec.End, Pos: i,
		})
	}

	return in, nil
}

func parsePeriod(list string, i int, startText, endText string) (core.Instant, core.Instant, *requestError) {
	start, err := core.ParseTimestamp(startText, fmt.Sprintf("%s[%d].start", list, i))
	if err != nil {
		return 0, 0, invalidInput("%s", err)
	}
	end, err := core.ParseTimestamp(endText, fmt.Sprintf("%s[%d].end", list, i))
	if err != nil {
		return 0, 0, invalidInput("%s", err)
	}
	if start > end {
		return 0, 0, invalidInput("%s[%d].start is after %s[%d].end", list, i, list, i)
	}
	return start, end, nil
}

// parseProjectionParams validates the saver profile attached to a projection
// request. An unknown instrument refuses the request whole.
func parseProjectionParams(req projectionRequest) (projection.Params, *requestError) {
	instrument := projection.Instrument(req.Instrument)
	switch instrument {
	case projection.InstrumentPPF, projection.InstrumentIndex:
	default:
		return projection.Params{}, invalidInput("instrument must be %q or %q",
			projection.InstrumentPPF, projection.InstrumentIndex)
	}

	if req.Age < 0 || req.Age > 120 {
		return projection.Params{}, invalidInput("age must be in [0, 120], got %d", req.Age)
	}
	if req.MonthlyWage < 0 {
		return projection.Params{}, invalidInput("monthlyWage must not be negative")
	}
	if req.Inflation < 0 {
		return projection.Params{}, invalidInput("inflation must not be negative")
	}

	return projection.Params{
		Instrument:  instrument,
		Age:         req.Age,
		MonthlyWage: req.MonthlyWage,
		Inflation:   req.Inflation,
	}, nil
}
