package submission

import (
	"context"
	"time"

	"github.com/coderunr/judge/internal/apierr"
	"github.com/coderunr/judge/internal/codec"
	"github.com/coderunr/judge/internal/language"
	"github.com/coderunr/judge/internal/queue"
	"github.com/coderunr/judge/internal/types"
	"github.com/google/uuid"
)

// Service is the submission business-logic layer: decode/validate
// inbound payloads, persist, enqueue, and (optionally) synchronously
// wait for completion. Grounded on
// original_source/server/app/services/submission_service.py's
// SubmissionService.
type Service struct {
	repo      *Repository
	languages *language.Repository
	queue     *queue.Queue

	waitTimeout  time.Duration
	pollInterval time.Duration
}

// NewService wires the repository, language catalog and queue the way
// SubmissionService's constructor takes submission_repo/language_repo/queue.
func NewService(repo *Repository, languages *language.Repository, q *queue.Queue) *Service {
	return &Service{
		repo:         repo,
		languages:    languages,
		queue:        q,
		waitTimeout:  15 * time.Second,
		pollInterval: 500 * time.Millisecond,
	}
}

// CreateInput mirrors the reference SubmissionCreate schema.
type CreateInput struct {
	SourceCode      string
	LanguageID      int64
	Stdin           *string
	AdditionalFiles []types.AdditionalFile
	ExpectedOutput  *string
	Limits          types.Limits
}

// Create validates, persists and enqueues a new submission. If
// base64Encoded, source_code/stdin/additional_files are decoded before
// storage — the reference _decode_if_needed/_decode_additional_files.
// If wait, it blocks for the reference's 15s/500ms poll loop and
// returns the finished submission instead of just its id.
func (s *Service) Create(ctx context.Context, in CreateInput, base64Encoded, wait bool) (*types.Submission, error) {
	sourceCode, stdin, err := decodeIfNeeded(in.SourceCode, in.Stdin, base64Encoded)
	if err != nil {
		return nil, err
	}
	files, err := decodeAdditionalFiles(in.AdditionalFiles, base64Encoded)
	if err != nil {
		return nil, err
	}

	lang, err := s.languages.GetByID(ctx, in.LanguageID)
	if err != nil {
		return nil, apierr.NewValidationError("language with id %d is not supported", in.LanguageID)
	}

	sub := &types.Submission{
		SourceCode:      sourceCode,
		LanguageID:      lang.ID,
		Stdin:           stdin,
		AdditionalFiles: files,
		ExpectedOutput:  in.ExpectedOutput,
		Limits:          in.Limits,
	}

	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, err
	}
	if err := s.queue.Enqueue(ctx, types.Snapshot{Submission: *sub, Language: *lang}); err != nil {
		return nil, err
	}

	if !wait {
		return sub, nil
	}
	return s.waitForCompletion(ctx, sub.ID)
}

// CreateBatch validates and persists many submissions, enqueueing each,
// mirroring create_batch_submissions (batch submissions never support
// wait=true, matching the reference).
func (s *Service) CreateBatch(ctx context.Context, inputs []CreateInput, base64Encoded bool) ([]types.Submission, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	languageIDs := map[int64]struct{}{}
	for _, in := range inputs {
		languageIDs[in.LanguageID] = struct{}{}
	}
	languages := map[int64]types.Language{}
	for id := range languageIDs {
		lang, err := s.languages.GetByID(ctx, id)
		if err != nil {
			return nil, apierr.NewValidationError("language with id %d is not supported", id)
		}
		languages[id] = *lang
	}

	subs := make([]*types.Submission, 0, len(inputs))
	snapshotLanguages := make([]types.Language, 0, len(inputs))
	for _, in := range inputs {
		sourceCode, stdin, err := decodeIfNeeded(in.SourceCode, in.Stdin, base64Encoded)
		if err != nil {
			return nil, err
		}
		files, err := decodeAdditionalFiles(in.AdditionalFiles, base64Encoded)
		if err != nil {
			return nil, err
		}
		lang := languages[in.LanguageID]
		subs = append(subs, &types.Submission{
			SourceCode:      sourceCode,
			LanguageID:      lang.ID,
			Stdin:           stdin,
			AdditionalFiles: files,
			ExpectedOutput:  in.ExpectedOutput,
			Limits:          in.Limits,
		})
		snapshotLanguages = append(snapshotLanguages, lang)
	}

	if err := s.repo.CreateBatch(ctx, subs); err != nil {
		return nil, err
	}

	out := make([]types.Submission, len(subs))
	for i, sub := range subs {
		if err := s.queue.Enqueue(ctx, types.Snapshot{Submission: *sub, Language: snapshotLanguages[i]}); err != nil {
			return nil, err
		}
		out[i] = *sub
	}
	return out, nil
}

// Get fetches, optionally base64-encodes, and field-projects a single
// submission, mirroring get_submission.
func (s *Service) Get(ctx context.Context, id uuid.UUID, base64Encoded bool, fields string) (map[string]interface{}, error) {
	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return projectOne(*sub, base64Encoded, fields)
}

// GetBatch fetches several submissions, mirroring get_batch_submissions.
func (s *Service) GetBatch(ctx context.Context, ids []uuid.UUID, base64Encoded bool, fields string) ([]map[string]interface{}, error) {
	subs, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	fieldSet := codec.ParseFields(fields)
	out := make([]map[string]interface{}, 0, len(subs))
	for _, sub := range subs {
		encoded := sub
		if base64Encoded {
			encodeInPlace(&encoded)
		}
		m, err := codec.ToMap(encoded)
		if err != nil {
			return nil, err
		}
		out = append(out, codec.FilterData(m, fieldSet))
	}
	return out, nil
}

// ListResult mirrors the reference's paginated response envelope.
type ListResult struct {
	Items       []map[string]interface{} `json:"items"`
	TotalItems  int                       `json:"total_items"`
	TotalPages  int                       `json:"total_pages"`
	CurrentPage int                       `json:"current_page"`
	PageSize    int                       `json:"page_size"`
}

// List returns a paginated, projected page of submissions, mirroring
// list_submissions.
func (s *Service) List(ctx context.Context, page, pageSize int, base64Encoded bool, fields string) (*ListResult, error) {
	subs, total, err := s.repo.List(ctx, page, pageSize)
	if err != nil {
		return nil, err
	}

	fieldSet := codec.ParseFields(fields)
	items := make([]map[string]interface{}, 0, len(subs))
	for _, sub := range subs {
		if base64Encoded {
			encodeInPlace(&sub)
		}
		m, err := codec.ToMap(sub)
		if err != nil {
			return nil, err
		}
		items = append(items, codec.FilterData(m, fieldSet))
	}

	totalPages := 1
	if pageSize > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}

	return &ListResult{
		Items:       items,
		TotalItems:  total,
		TotalPages:  totalPages,
		CurrentPage: page,
		PageSize:    pageSize,
	}, nil
}

// Delete removes a submission by ID, mirroring delete_submission.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) waitForCompletion(ctx context.Context, id uuid.UUID) (*types.Submission, error) {
	deadline := time.Now().Add(s.waitTimeout)
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		sub, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if sub.Status == types.StatusFinished || sub.Status == types.StatusError {
			return sub, nil
		}
		if time.Now().After(deadline) {
			return nil, apierr.NewTimeoutError(id.String())
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func projectOne(sub types.Submission, base64Encoded bool, fields string) (map[string]interface{}, error) {
	if base64Encoded {
		encodeInPlace(&sub)
	}
	m, err := codec.ToMap(sub)
	if err != nil {
		return nil, err
	}
	return codec.FilterData(m, codec.ParseFields(fields)), nil
}

// encodeInPlace base64-encodes the free-form text fields of a
// submission for transport, mirroring _encode_dict_fields.
func encodeInPlace(sub *types.Submission) {
	sourceEncoded := codec.Encode(sub.SourceCode)
	sub.SourceCode = sourceEncoded
	sub.Stdin = codec.EncodeOptional(sub.Stdin)
	sub.Stdout = codec.EncodeOptional(sub.Stdout)
	sub.Stderr = codec.EncodeOptional(sub.Stderr)
	sub.CompileOutput = codec.EncodeOptional(sub.CompileOutput)
	sub.ExpectedOutput = codec.EncodeOptional(sub.ExpectedOutput)
	for i, f := range sub.AdditionalFiles {
		sub.AdditionalFiles[i] = types.AdditionalFile{Name: f.Name, Content: codec.Encode(f.Content)}
	}
}

func decodeIfNeeded(sourceCode string, stdin *string, base64Encoded bool) (string, *string, error) {
	if !base64Encoded {
		return sourceCode, stdin, nil
	}
	decodedSource, err := codec.Decode(sourceCode)
	if err != nil {
		return "", nil, apierr.NewValidationError("%s", err.Error())
	}
	decodedStdin, err := codec.DecodeOptional(stdin)
	if err != nil {
		return "", nil, apierr.NewValidationError("%s", err.Error())
	}
	return decodedSource, decodedStdin, nil
}

func decodeAdditionalFiles(files []types.AdditionalFile, base64Encoded bool) ([]types.AdditionalFile, error) {
	if len(files) == 0 || !base64Encoded {
		return files, nil
	}
	out := make([]types.AdditionalFile, len(files))
	for i, f := range files {
		content, err := codec.Decode(f.Content)
		if err != nil {
			return nil, apierr.NewValidationError("invalid base64 in additional_files: %s", err.Error())
		}
		out[i] = types.AdditionalFile{Name: f.Name, Content: content}
	}
	return out, nil
}
