package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/apex/log"
	"github.com/google/uuid"

	"cardiac-xai/api/internal/apperr"
	"cardiac-xai/api/internal/imaging"
	"cardiac-xai/api/internal/llm"
	"cardiac-xai/api/internal/metrics"
	"cardiac-xai/api/internal/prompt"
	"cardiac-xai/api/internal/report"
)

const DefaultTimeout = 30 * time.Second

// Config is fixed at construction; a Service never mutates it.
type Config struct {
	// Credential of the active provider. Empty means every call fails with
	// KindNotConfigured before anything else happens.
	Credential       string
	MaxImageBytes    int64
	Timeout          time.Duration
	EchoImage        bool
	EchoMaxDimension int
}

type Input struct {
	Data           []byte
	ContentType    string
	PatientHistory string
	RequestID      string
	// Timeout may shorten, never extend, Config.Timeout.
	Timeout time.Duration
}

type Failure struct {
	Kind    apperr.Kind `json:"kind"`
	Message string      `json:"message"`
	Detail  string      `json:"detail,omitempty"`
}

// Outcome is the result of exactly one Analyze call: Analysis is set when
// Success is true, Error otherwise.
type Outcome struct {
	Success     bool                     `json:"success"`
	RequestID   string                   `json:"request_id,omitempty"`
	Analysis    *report.DiagnosticReport `json:"analysis,omitempty"`
	ImageBase64 string                   `json:"image_base64,omitempty"`
	Error       *Failure                 `json:"error,omitempty"`
}

type Service struct {
	cfg       Config
	client    llm.Client
	validator *imaging.Validator
}

func NewService(cfg Config, client llm.Client) *Service {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.EchoMaxDimension <= 0 {
		cfg.EchoMaxDimension = imaging.DefaultEchoMaxDimension
	}
	v := imaging.NewValidator(cfg.MaxImageBytes)
	cfg.MaxImageBytes = v.MaxBytes()
	return &Service{cfg: cfg, client: client, validator: v}
}

func (s *Service) Config() Config { return s.cfg }

func (s *Service) Configured() bool { return s.cfg.Credential != "" }

func (s *Service) Provider() string {
	if s.client == nil {
		return ""
	}
	return s.client.Name()
}

func (s *Service) Model() string {
	if s.client == nil {
		return ""
	}
	return s.client.GetModel()
}

// Analyze runs validation, prompting, inference and parsing for one upload.
// It never panics and never returns without an Outcome.
func (s *Service) Analyze(ctx context.Context, in Input) (out Outcome) {
	start := time.Now()
	if in.RequestID == "" {
		in.RequestID = uuid.NewString()
	}
	metrics.InFlight.Inc()

	defer func() {
		if r := recover(); r != nil {
			out = failed(in.RequestID, &apperr.Error{
				Kind:    apperr.KindUpstreamUnavailable,
				Op:      "analysis.Analyze",
				Message: "internal error while analyzing the image",
				Cause:   fmt.Errorf("panic: %v", r),
			})
		}
		metrics.InFlight.Dec()
		s.record(in, out, time.Since(start))
	}()

	rep, echo, err := s.run(ctx, in)
	if err != nil {
		return failed(in.RequestID, err)
	}
	return Outcome{
		Success:     true,
		RequestID:   in.RequestID,
		Analysis:    &rep,
		ImageBase64: echo,
	}
}

func (s *Service) run(ctx context.Context, in Input) (report.DiagnosticReport, string, error) {
	const op = "analysis.Analyze"

	if !s.Configured() || s.client == nil {
		return report.DiagnosticReport{}, "", apperr.New(apperr.KindNotConfigured, op,
			"inference provider credential is not configured")
	}

	img, err := s.validator.Validate(in.Data, in.ContentType)
	if err != nil {
		return report.DiagnosticReport{}, "", err
	}

	text := prompt.Build(img, prompt.Options{PatientHistory: in.PatientHistory})

	raw, err := s.infer(ctx, in, text, img)
	if err != nil {
		return report.DiagnosticReport{}, "", err
	}

	rep, err := report.Parse(raw)
	if err != nil {
		return report.DiagnosticReport{}, "", err
	}

	var echo string
	if s.cfg.EchoImage {
		if echo, err = imaging.Echo(img, s.cfg.EchoMaxDimension); err != nil {
			log.WithError(err).WithField("request_id", in.RequestID).Warn("image echo failed")
			echo = ""
		}
	}
	return rep, echo, nil
}

func (s *Service) infer(ctx context.Context, in Input, text string, img imaging.Image) (string, error) {
	const op = "analysis.infer"

	timeout := s.cfg.Timeout
	if in.Timeout > 0 && in.Timeout < timeout {
		timeout = in.Timeout
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	raw, err := s.client.Infer(cctx, text, img)
	metrics.UpstreamDurationSeconds.WithLabelValues(s.client.Name()).Observe(time.Since(start).Seconds())

	if err != nil {
		switch {
		case errors.Is(cctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
			// the provider may report our own deadline as a transport error
			return "", &apperr.Error{
				Kind:    apperr.KindUpstreamTimeout,
				Op:      op,
				Message: fmt.Sprintf("inference provider did not respond within %s", timeout),
				Cause:   err,
			}
		case ctx.Err() != nil:
			return "", llm.FromContext(ctx, op, err)
		}
		return "", apperr.Wrap(apperr.KindUpstreamUnavailable, op, "inference provider call failed", err)
	}
	return raw, nil
}

func failed(requestID string, err error) Outcome {
	kind := apperr.KindOf(err, apperr.KindUpstreamUnavailable)
	msg := apperr.MessageOf(err)
	var typed *apperr.Error
	if !errors.As(err, &typed) {
		msg = "inference provider call failed"
	}
	return Outcome{
		Success:   false,
		RequestID: requestID,
		Error: &Failure{
			Kind:    kind,
			Message: msg,
			Detail:  apperr.DetailOf(err),
		},
	}
}

func (s *Service) record(in Input, out Outcome, d time.Duration) {
	kind := "success"
	if out.Error != nil {
		kind = string(out.Error.Kind)
	}
	metrics.AnalysesTotal.WithLabelValues(kind).Inc()
	metrics.AnalysisDurationSeconds.Observe(d.Seconds())

	entry := log.WithFields(log.Fields{
		"request_id": in.RequestID,
		"provider":   s.Provider(),
		"model":      s.Model(),
		"kind":       kind,
		"bytes":      len(in.Data),
		"duration":   d.Round(time.Millisecond).String(),
	})
	switch {
	case out.Success:
		entry.WithField("classification", out.Analysis.PrimaryDiagnosis.Classification).Info("analysis done")
	case out.Error.Kind == apperr.KindInvalidImage:
		entry.WithField("reason", out.Error.Message).Info("analysis rejected")
	default:
		entry.WithField("reason", out.Error.Message).Warn("analysis failed")
	}
}
