package server

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/fourbar/pkg/buildinfo"
	"github.com/matzehuels/fourbar/pkg/errors"
	"github.com/matzehuels/fourbar/pkg/linkage"
	"github.com/matzehuels/fourbar/pkg/pipeline"
)

var contentTypes = map[string]string{
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatJSON: "application/json",
	pipeline.FormatCSV:  "text/csv; charset=utf-8",
	pipeline.FormatPNG:  "image/png",
	pipeline.FormatPDF:  "application/pdf",
}

// solverSettings are the optional Newton-Raphson settings of a request.
type solverSettings struct {
	Tolerance         float64 `json:"tolerance" validate:"gte=0,lt=1"`
	MaxIter           int     `json:"max_iter" validate:"gte=0,lte=10000"`
	SingularThreshold float64 `json:"singular_threshold" validate:"gte=0"`
}

type classifyRequest struct {
	Lengths []float64 `json:"lengths" validate:"required,len=4,dive,gt=0"`
}

type classifyResponse struct {
	Type        linkage.MechanismType `json:"type"`
	Description string                `json:"description"`
	Grashof     bool                  `json:"grashof"`
	Shortest    string                `json:"shortest"`
}

type seedRequest struct {
	Theta3 float64 `json:"theta3"` // degrees
	Theta4 float64 `json:"theta4"` // degrees
}

type solveRequest struct {
	Lengths       []float64    `json:"lengths" validate:"required,len=4,dive,gt=0"`
	Angle         *float64     `json:"angle" validate:"required"`
	Configuration string       `json:"configuration" validate:"omitempty,oneof=open crossed"`
	Seed          *seedRequest `json:"seed"`
	solverSettings
}

type solveResponse struct {
	Type     linkage.MechanismType  `json:"type"`
	Position linkage.PositionResult `json:"position"`
}

type sweepRequest struct {
	Lengths []float64 `json:"lengths" validate:"required,len=4,dive,gt=0"`
	Step    int       `json:"step" validate:"gte=0,lte=360"`
	Format  string    `json:"format" validate:"omitempty,oneof=svg json csv png pdf"`
	Width   int       `json:"width" validate:"gte=0,lte=8192"`
	Height  int       `json:"height" validate:"gte=0,lte=8192"`
	solverSettings
}

type healthResponse struct {
	Status string         `json:"status"`
	Build  buildinfo.Info `json:"build"`
}

type errorResponse struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
	Details any         `json:"details,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Build: buildinfo.Get()})
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if !s.decode(w, r, &req) {
		return
	}
	l := req.Lengths
	kind := linkage.Classify(l[0], l[1], l[2], l[3])
	writeJSON(w, http.StatusOK, classifyResponse{
		Type:        kind,
		Description: kind.Description(),
		Grashof:     kind.IsGrashof(),
		Shortest:    linkage.ShortestLink(l[0], l[1], l[2], l[3]).String(),
	})
}

func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	var req solveRequest
	if !s.decode(w, r, &req) {
		return
	}

	opts := pipeline.SolveOptions{
		Lengths:           [4]float64(req.Lengths),
		Angle:             *req.Angle,
		Configuration:     linkage.Configuration(req.Configuration),
		Tolerance:         req.Tolerance,
		MaxIter:           req.MaxIter,
		SingularThreshold: req.SingularThreshold,
	}
	if req.Seed != nil {
		seed := linkage.SeedDegrees(req.Seed.Theta3, req.Seed.Theta4)
		opts.Seed = &seed
	}

	out, err := s.runner.Solve(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	if !out.OK {
		s.writeError(w, r, out.Solve.Err(), out.Solve)
		return
	}
	writeJSON(w, http.StatusOK, solveResponse{Type: out.Linkage.Classify(), Position: out.Position})
}

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	var req sweepRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Format == "" {
		req.Format = pipeline.FormatJSON
	}

	result, err := s.runner.Execute(r.Context(), pipeline.Options{
		Lengths:           [4]float64(req.Lengths),
		Step:              req.Step,
		Tolerance:         req.Tolerance,
		MaxIter:           req.MaxIter,
		SingularThreshold: req.SingularThreshold,
		Formats:           []string{req.Format},
		Width:             req.Width,
		Height:            req.Height,
		Logger:            s.logger.With("request", RequestIDFrom(r.Context())),
	})
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}

	h := w.Header()
	h.Set("Content-Type", contentTypes[req.Format])
	h.Set("X-Run-ID", result.RunID)
	h.Set("X-Sweep-Hash", result.SweepHash)
	h.Set("X-Cache", cacheStatus(result.CacheInfo))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Artifacts[req.Format])
}

func cacheStatus(ci pipeline.CacheInfo) string {
	switch {
	case ci.SweepHit && ci.RenderHit:
		return "hit"
	case ci.SweepHit:
		return "partial"
	}
	return "miss"
}

// decode reads and validates a JSON request body. It writes the error
// response and returns false on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body"), nil)
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "%s", describe(err)), nil)
		return false
	}
	return true
}

// describe renders validator errors as "lengths[2]: failed gt=0".
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		tag := fe.Tag()
		if fe.Param() != "" {
			tag += "=" + fe.Param()
		}
		msgs[i] = fmt.Sprintf("%s: failed %s", jsonPath(fe.Namespace()), tag)
	}
	return strings.Join(msgs, "; ")
}

// jsonPath keeps the last element of a validator namespace. Request fields
// are flat, so that is the JSON field name.
func jsonPath(ns string) string {
	if i := strings.LastIndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, details any) {
	status := errors.HTTPStatus(err)
	code := errors.GetCode(err)
	msg := errors.UserMessage(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "id", RequestIDFrom(r.Context()), "err", err)
		msg = "internal error"
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg, Details: details})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
