// Package types holds the domain model shared across the judge: the
// language catalog descriptor, the submission entity and its execution
// constraints, and the snapshots that travel through the queue.
package types

import (
	"time"

	"github.com/google/uuid"
)

// SubmissionStatus is the four-variant lifecycle of a submission.
type SubmissionStatus string

const (
	StatusPending    SubmissionStatus = "PENDING"
	StatusProcessing SubmissionStatus = "PROCESSING"
	StatusFinished   SubmissionStatus = "FINISHED"
	StatusError      SubmissionStatus = "ERROR"
)

// AdditionalFile is one extra source file materialized alongside the
// submission's main source file inside the sandbox.
type AdditionalFile struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Language is a catalog-assigned, stable descriptor of a runnable
// language/toolchain. CompileCommand is nil for interpreted languages.
type Language struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Version         string    `json:"version"`
	FileName        string    `json:"file_name"`
	FileExtension   string    `json:"file_extension"`
	CompileCommand  *string   `json:"compile_command"`
	RunCommand      string    `json:"run_command"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Compiled reports whether the language requires a compile stage.
func (l Language) Compiled() bool {
	return l.CompileCommand != nil && *l.CompileCommand != ""
}

// Limits holds the three-valued (nil = inherit default) per-submission
// execution constraints from spec.md section 3.
type Limits struct {
	CPUTimeLimit                       *float64 `json:"cpu_time_limit"`
	CPUExtraTime                       *float64 `json:"cpu_extra_time"`
	WallTimeLimit                      *float64 `json:"wall_time_limit"`
	MemoryLimit                        *int64   `json:"memory_limit"`
	MaxProcessesAndOrThreads           *int     `json:"max_processes_and_or_threads"`
	MaxFileSize                        *int64   `json:"max_file_size"`
	NumberOfRuns                       *int     `json:"number_of_runs"`
	EnablePerProcessAndThreadTimeLimit *bool    `json:"enable_per_process_and_thread_time_limit"`
	EnablePerProcessAndThreadMemory    *bool    `json:"enable_per_process_and_thread_memory_limit"`
	RedirectStderrToStdout             *bool    `json:"redirect_stderr_to_stdout"`
	EnableNetwork                      *bool    `json:"enable_network"`
}

// ResolvedLimits is Limits with every field defaulted — what the
// Processor and Sandbox Driver actually act on.
type ResolvedLimits struct {
	CPUTimeLimit                       float64
	CPUExtraTime                       float64
	WallTimeLimit                      float64
	MemoryLimit                        int64
	MaxProcessesAndOrThreads           int
	MaxFileSize                        int64
	NumberOfRuns                       int
	EnablePerProcessAndThreadTimeLimit bool
	EnablePerProcessAndThreadMemory    bool
	RedirectStderrToStdout             bool
	EnableNetwork                      bool
}

// Submission is the durable entity described in spec.md section 3.
type Submission struct {
	ID              uuid.UUID        `json:"id"`
	SourceCode      string           `json:"source_code"`
	LanguageID      int64            `json:"language_id"`
	Stdin           *string          `json:"stdin"`
	AdditionalFiles []AdditionalFile `json:"additional_files"`
	ExpectedOutput  *string          `json:"expected_output"`

	Limits

	Status        SubmissionStatus  `json:"status"`
	Stdout        *string           `json:"stdout"`
	Stderr        *string           `json:"stderr"`
	CompileOutput *string           `json:"compile_output"`
	Meta          map[string]string `json:"meta"`
	CreatedAt     time.Time         `json:"created_at"`
}

// Snapshot is the immutable, JSON-shaped copy of a Submission + Language
// carried through the queue (spec.md glossary: Snapshot).
type Snapshot struct {
	Submission Submission `json:"submission"`
	Language   Language   `json:"language"`
}

// StageOutcome is the result of one compile-or-run invocation of the
// Sandbox Driver.
type StageOutcome struct {
	ExitStatus int
	Stdout     []byte
	Stderr     []byte
	Meta       map[string]string
}
