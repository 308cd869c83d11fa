package quizgen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"learnnest/internal/domain"
	"learnnest/internal/util"

	"go.uber.org/zap"
)

// StepOutcome classifies how a pipeline sub-step ended.
type StepOutcome string

const (
	OutcomeOK       StepOutcome = "ok"
	OutcomeDegraded StepOutcome = "degraded"
	OutcomeFatal    StepOutcome = "fatal"
)

// Step names used in diagnostics.
const (
	StepRetrieval    = "retrieval"
	StepGeneration   = "generation"
	StepSupplemental = "supplemental_generation"
	StepSemantic     = "semantic_validation"
	StepAudit        = "audit"
)

// Request defaults.
const (
	DefaultQuestionCount = 8
	DefaultDifficulty    = domain.DifficultyMedium
	DefaultLanguage      = "en"
	DefaultContentSource = "paste"
)

// Config bounds the work done by one run.
type Config struct {
	MaxChunkChars        int
	MaxChunks            int
	SupplementalChars    int
	TopK                 int
	Timeout              time.Duration
	GeneratorTemperature float64
	ValidatorTemperature float64
	// Location is used for the timestamp in the quiz title. Defaults to UTC.
	Location *time.Location
}

// DefaultConfig returns the production limits.
func DefaultConfig() Config {
	return Config{
		MaxChunkChars:        DefaultMaxChunkChars,
		MaxChunks:            4,
		SupplementalChars:    48000,
		TopK:                 DefaultTopK,
		Timeout:              120 * time.Second,
		GeneratorTemperature: 0.7,
		ValidatorTemperature: 0.2,
		Location:             time.UTC,
	}
}

// Deps are the capability handles a Pipeline works with. Primary drafts
// questions; Secondary seeds retrieval and performs semantic validation.
type Deps struct {
	Primary   domain.TextCompleter
	Secondary domain.TextCompleter
	Embedder  domain.EmbeddingService
	Index     domain.VectorIndex
	Audit     domain.AuditLogStore
	Logger    *zap.Logger

	// Now and NewID default to time.Now and util.NewULID.
	Now   func() time.Time
	NewID func() string
}

// RunInput is one quiz generation request. Zero values take the defaults.
type RunInput struct {
	SourceText        string
	UserID            string
	NumberOfQuestions int
	Difficulty        string
	QuestionTypes     []domain.QuestionType
	LanguageCode      string
	ContentSource     string
}

// Pipeline turns a source text into a validated quiz.
type Pipeline struct {
	cfg       Config
	deps      Deps
	generator *Generator
	validator *SemanticValidator
	retriever *Retriever
	logger    *zap.Logger
}

func NewPipeline(cfg Config, deps Deps) *Pipeline {
	def := DefaultConfig()
	if cfg.MaxChunkChars <= 0 {
		cfg.MaxChunkChars = def.MaxChunkChars
	}
	if cfg.MaxChunks <= 0 {
		cfg.MaxChunks = def.MaxChunks
	}
	if cfg.SupplementalChars <= 0 {
		cfg.SupplementalChars = def.SupplementalChars
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewID == nil {
		deps.NewID = util.NewULID
	}

	return &Pipeline{
		cfg:       cfg,
		deps:      deps,
		generator: NewGenerator(deps.Primary, cfg.GeneratorTemperature, deps.Logger),
		validator: NewSemanticValidator(deps.Secondary, cfg.ValidatorTemperature, deps.Logger),
		retriever: NewRetriever(deps.Secondary, deps.Embedder, deps.Index, cfg.TopK, deps.Logger),
		logger:    deps.Logger,
	}
}

// AuditCollectionPath is where a user's audit records are appended.
func AuditCollectionPath(userID string) string {
	return "users/" + userID + "/quiz_generation_logs"
}

type runState struct {
	id          string
	logger      *zap.Logger
	diagnostics []domain.Diagnostic
}

func (s *runState) degrade(step string, err error) {
	s.logger.Warn("Pipeline step degraded", zap.String("step", step), zap.Error(err))
	s.diagnostics = append(s.diagnostics, domain.Diagnostic{
		Step:    step,
		Outcome: string(OutcomeDegraded),
		Detail:  err.Error(),
	})
}

// classify decides whether a sub-step error can be absorbed. Once the run's
// context is done nothing can be.
func classify(ctx context.Context, err error) StepOutcome {
	switch {
	case err == nil:
		return OutcomeOK
	case ctx.Err() != nil:
		return OutcomeFatal
	default:
		return OutcomeDegraded
	}
}

func fatal(ctx context.Context, step string) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return domain.NewInternalError("quiz generation timed out during "+step, ctx.Err())
	}
	return domain.NewInternalError("quiz generation aborted during "+step, ctx.Err())
}

// Run executes one pipeline run. It fails only for missing input, missing model
// capabilities or an expired context; every other sub-step failure is absorbed
// and recorded in the result's diagnostics.
func (p *Pipeline) Run(ctx context.Context, in RunInput) (*domain.QuizResult, error) {
	if strings.TrimSpace(in.SourceText) == "" {
		return nil, domain.NewInvalidArgumentError("source text is required")
	}
	if strings.TrimSpace(in.UserID) == "" {
		return nil, domain.NewInvalidArgumentError("user id is required")
	}
	if p.deps.Primary == nil || p.deps.Secondary == nil {
		return nil, domain.NewFailedPreconditionError("question generation models are not configured")
	}
	in = withDefaults(in)

	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	run := &runState{id: p.deps.NewID()}
	run.logger = p.logger.With(zap.String("run_id", run.id), zap.String("user_id", in.UserID))
	run.logger.Info("Starting quiz pipeline",
		zap.Int("requested", in.NumberOfQuestions),
		zap.String("difficulty", in.Difficulty),
		zap.Int("source_chars", len(in.SourceText)))

	retrieval, err := p.retriever.Retrieve(ctx, in.SourceText)
	switch classify(ctx, err) {
	case OutcomeFatal:
		return nil, fatal(ctx, StepRetrieval)
	case OutcomeDegraded:
		run.degrade(StepRetrieval, err)
		retrieval = RetrievalResult{}
	}

	chunks := Chunk(in.SourceText, p.cfg.MaxChunkChars)
	if len(chunks) > p.cfg.MaxChunks {
		run.logger.Info("Capping processed chunks",
			zap.Int("chunks", len(chunks)),
			zap.Int("max_chunks", p.cfg.MaxChunks))
		chunks = chunks[:p.cfg.MaxChunks]
	}
	quotas := Distribute(in.NumberOfQuestions, len(chunks), chunkWeights(chunks))

	var candidates []domain.Question
	for i, chunk := range chunks {
		if quotas[i] == 0 {
			continue
		}
		qs, err := p.generator.Generate(ctx, p.generateInput(in, retrieval, chunk.Text, quotas[i]))
		switch classify(ctx, err) {
		case OutcomeFatal:
			return nil, fatal(ctx, StepGeneration)
		case OutcomeDegraded:
			run.degrade(fmt.Sprintf("%s[%d]", StepGeneration, i), err)
			continue
		}
		candidates = append(candidates, qs...)
	}

	if shortfall := in.NumberOfQuestions - len(candidates); shortfall > 0 {
		source := truncateRunes(in.SourceText, p.cfg.SupplementalChars)
		qs, err := p.generator.Generate(ctx, p.generateInput(in, retrieval, source, shortfall))
		switch classify(ctx, err) {
		case OutcomeFatal:
			return nil, fatal(ctx, StepSupplemental)
		case OutcomeDegraded:
			run.degrade(StepSupplemental, err)
		default:
			candidates = append(candidates, qs...)
		}
	}
	ensureUniqueIDs(candidates, run.id)

	structural := checkAll(candidates)

	var semantic []domain.ValidationVerdict
	if len(candidates) > 0 {
		semantic, err = p.validator.Validate(ctx, SemanticInput{
			Questions:    candidates,
			RAGContext:   retrieval.Context,
			Difficulty:   in.Difficulty,
			LanguageCode: in.LanguageCode,
		})
		switch classify(ctx, err) {
		case OutcomeFatal:
			return nil, fatal(ctx, StepSemantic)
		case OutcomeDegraded:
			run.degrade(StepSemantic, err)
			semantic = allValid(candidates)
		}
	}

	sel := Select(candidates, structural, semantic, in.NumberOfQuestions)
	if sel.UsedFallback {
		run.logger.Warn("No candidate passed validation, returning best-effort selection",
			zap.Int("candidates", len(candidates)),
			zap.Int("returned", len(sel.Accepted)))
	}

	result := p.assemble(run, in, candidates, sel, retrieval)
	p.emitAudit(ctx, run, in, result)

	run.logger.Info("Quiz pipeline finished",
		zap.String("quiz_id", result.ID),
		zap.Int("generated", len(candidates)),
		zap.Int("returned", result.QuestionCount),
		zap.Int("degraded_steps", len(result.Diagnostics)))
	return result, nil
}

func withDefaults(in RunInput) RunInput {
	if in.NumberOfQuestions <= 0 {
		in.NumberOfQuestions = DefaultQuestionCount
	}
	if in.Difficulty == "" {
		in.Difficulty = DefaultDifficulty
	}
	if len(in.QuestionTypes) == 0 {
		in.QuestionTypes = domain.DefaultQuestionTypes
	}
	if in.LanguageCode == "" {
		in.LanguageCode = DefaultLanguage
	}
	if in.ContentSource == "" {
		in.ContentSource = DefaultContentSource
	}
	return in
}

func (p *Pipeline) generateInput(in RunInput, retrieval RetrievalResult, text string, count int) GenerateInput {
	return GenerateInput{
		ChunkText:    text,
		RAGContext:   retrieval.Context,
		RAGSources:   retrieval.Sources,
		Count:        count,
		Difficulty:   in.Difficulty,
		AllowedTypes: in.QuestionTypes,
		LanguageCode: in.LanguageCode,
	}
}

// ensureUniqueIDs re-ids questions whose id repeats an earlier one in the run.
func ensureUniqueIDs(questions []domain.Question, prefix string) {
	seen := make(map[string]struct{}, len(questions))
	for i := range questions {
		if _, dup := seen[questions[i].ID]; dup {
			questions[i].ID = fmt.Sprintf("%s-%d", prefix, i)
		}
		seen[questions[i].ID] = struct{}{}
	}
}

func (p *Pipeline) assemble(run *runState, in RunInput, candidates []domain.Question, sel Selection, retrieval RetrievalResult) *domain.QuizResult {
	now := p.deps.Now()
	questions := sel.Accepted
	if questions == nil {
		questions = []domain.Question{}
	}
	rejected := sel.Rejected
	if rejected == nil {
		rejected = []domain.RejectedQuestion{}
	}
	sources := retrieval.Sources
	if sources == nil {
		sources = []domain.RetrievedSource{}
	}

	return &domain.QuizResult{
		ID:             run.id,
		UserID:         in.UserID,
		Title:          quizTitle(in.Difficulty, now.In(p.cfg.Location)),
		Difficulty:     in.Difficulty,
		RequestedCount: in.NumberOfQuestions,
		QuestionCount:  len(questions),
		Questions:      questions,
		Language:       in.LanguageCode,
		ContentSource:  in.ContentSource,
		ValidationReport: domain.ValidationReport{
			TotalGenerated: len(candidates),
			Passed:         sel.Passed,
			FilteredOut:    len(candidates) - len(questions),
			Rejected:       rejected,
		},
		RetrievedSources: sources,
		Diagnostics:      run.diagnostics,
		CreatedAt:        now.UTC(),
	}
}

func quizTitle(difficulty string, at time.Time) string {
	label := difficulty
	if label != "" {
		label = strings.ToUpper(label[:1]) + label[1:]
	}
	return fmt.Sprintf("%s Quiz - %s", label, at.Format("Jan 2, 2006 3:04 PM"))
}

// emitAudit appends the audit record. A failure is recorded but never fails the run.
func (p *Pipeline) emitAudit(ctx context.Context, run *runState, in RunInput, result *domain.QuizResult) {
	if p.deps.Audit == nil {
		return
	}

	degraded := make([]string, 0, len(result.Diagnostics))
	for _, d := range result.Diagnostics {
		degraded = append(degraded, d.Step)
	}
	record := &domain.AuditRecord{
		ID:             p.deps.NewID(),
		RunID:          run.id,
		UserID:         in.UserID,
		QuizID:         result.ID,
		RequestedCount: result.RequestedCount,
		ReturnedCount:  result.QuestionCount,
		TotalGenerated: result.ValidationReport.TotalGenerated,
		FilteredOut:    result.ValidationReport.FilteredOut,
		Difficulty:     result.Difficulty,
		Language:       result.Language,
		ContentSource:  result.ContentSource,
		Degraded:       degraded,
		Result:         result,
		CreatedAt:      result.CreatedAt,
	}

	if err := p.deps.Audit.Append(ctx, AuditCollectionPath(in.UserID), record); err != nil {
		run.degrade(StepAudit, err)
		result.Diagnostics = run.diagnostics
	}
}
