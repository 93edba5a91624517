// Package judge asks a language model how genuine a job posting reads.
package judge

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"

	apperrors "ghostjob-workers/internal/common/errors"
	"ghostjob-workers/internal/common/logger"
	"ghostjob-workers/internal/common/metrics"
	"ghostjob-workers/internal/models"
)

// Judge rates the authenticity of a single posting.
type Judge interface {
	Judge(ctx context.Context, posting models.JobPosting) (*models.AuthenticityJudgement, error)
}

// Generator sends a prompt to a model and returns its text answer.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

//go:embed prompt.md
var promptTemplate string

const (
	serviceName      = "authenticity-judge"
	maxLogPreviewLen = 200
)

// Options tunes a ModelJudge. Zero values disable the limiter and timeout.
type Options struct {
	Timeout           time.Duration
	RequestsPerMinute int
	Burst             int
}

// ModelJudge is the Judge backed by a Generator.
type ModelJudge struct {
	generator Generator
	limiter   *rate.Limiter
	timeout   time.Duration
	logger    logger.Logger
}

func New(generator Generator, opts Options, log logger.Logger) *ModelJudge {
	j := &ModelJudge{
		generator: generator,
		timeout:   opts.Timeout,
		logger:    log,
	}
	if opts.RequestsPerMinute > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		j.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), burst)
	}
	return j
}

// Judge returns the model's verdict. A verdict that cannot be parsed, or whose
// score is not an integer in [1,10], is a JUDGE_RESPONSE_INVALID error; no
// fallback score is ever produced.
func (j *ModelJudge) Judge(ctx context.Context, posting models.JobPosting) (*models.AuthenticityJudgement, error) {
	if strings.TrimSpace(posting.JobTitle) == "" || strings.TrimSpace(posting.Company) == "" ||
		strings.TrimSpace(posting.JobDescription) == "" {
		return nil, apperrors.NewInvalidInputError("jobTitle, company and jobDescription are required")
	}

	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	if j.limiter != nil {
		if err := j.limiter.Wait(ctx); err != nil {
			metrics.JudgeRequests.WithLabelValues("throttled").Inc()
			return nil, apperrors.NewTimeoutError(serviceName, err)
		}
	}

	prompt, err := buildPrompt(posting)
	if err != nil {
		return nil, err
	}

	j.logger.Debug("judge request", map[string]interface{}{
		"company":      posting.Company,
		"jobTitle":     posting.JobTitle,
		"promptLength": utf8.RuneCountInString(prompt),
	})

	raw, err := j.generator.GenerateContent(ctx, prompt)
	if apperrors.CodeOf(err) == apperrors.ErrCodeJudgeResponseInvalid {
		metrics.JudgeRequests.WithLabelValues("invalid").Inc()
		return nil, err
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			metrics.JudgeRequests.WithLabelValues("timeout").Inc()
			return nil, apperrors.NewTimeoutError(serviceName, err)
		}
		metrics.JudgeRequests.WithLabelValues("error").Inc()
		return nil, apperrors.NewExternalServiceError(serviceName, err)
	}

	judgement, err := ParseJudgement(raw)
	if err != nil {
		metrics.JudgeRequests.WithLabelValues("invalid").Inc()
		j.logger.Warn("judge returned an invalid verdict", map[string]interface{}{
			"company":         posting.Company,
			"responsePreview": logger.TruncateForLog(raw, maxLogPreviewLen),
			"error":           err.Error(),
		})
		return nil, err
	}

	metrics.JudgeRequests.WithLabelValues("ok").Inc()
	j.logger.Info("posting judged", map[string]interface{}{
		"company":           posting.Company,
		"authenticityScore": judgement.AuthenticityScore,
		"redFlags":          len(judgement.RedFlags),
		"greenFlags":        len(judgement.GreenFlags),
	})

	return judgement, nil
}

func buildPrompt(posting models.JobPosting) (string, error) {
	payload, err := json.MarshalIndent(posting, "", "  ")
	if err != nil {
		return "", apperrors.NewInvalidInputError("posting cannot be encoded: " + err.Error())
	}
	return strings.ReplaceAll(promptTemplate, "{{POSTING_JSON}}", string(payload)), nil
}
